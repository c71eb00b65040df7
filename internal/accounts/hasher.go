package accounts

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a plaintext password into a storable hash. Hashing is
// a collaborator of the core, injected so tests can swap it out.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher constructs a BcryptHasher. A cost outside bcrypt's valid
// range falls back to the library default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash derives a bcrypt hash from the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

var _ PasswordHasher = (*BcryptHasher)(nil)

package accounts

import "time"

// UserType classifies the role of an account. The set is closed; adding a
// role means adding a constant here and teaching CanMutate about it.
type UserType string

const (
	UserTypeUser       UserType = "USER"
	UserTypeSuperAdmin UserType = "SUPER_ADMIN"
)

// Valid reports whether the value is a recognized user type.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeUser, UserTypeSuperAdmin:
		return true
	}
	return false
}

// Account represents a stored user account. PasswordHash is a write-only
// secret: it never appears in redacted views or update summaries.
type Account struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  *string
	PasswordHash string
	IsActive     bool
	UserType     UserType
	AttemptsLeft int
	TimeLeft     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the rendered name, first and last joined by a single space.
func (a Account) DisplayName() string {
	return a.FirstName + " " + a.LastName
}

// Principal describes the authenticated actor attempting an operation.
// It is derived per request from a verified bearer token and never persisted.
type Principal struct {
	ID       string
	Email    string
	UserType UserType
}

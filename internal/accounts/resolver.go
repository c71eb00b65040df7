package accounts

import (
	"fmt"

	"github.com/meridian-id/meridian/internal/platform/httpx"
)

// IdentifierType names the field an identifier refers to.
type IdentifierType string

const (
	IdentifierTypeEmail IdentifierType = "email"
	IdentifierTypeID    IdentifierType = "id"
)

// Criterion is a single-field lookup handed to the repository.
type Criterion struct {
	Field string
	Value string
}

// IdentifierOptions pairs an identifier with the field it refers to.
type IdentifierOptions struct {
	Identifier     string         `json:"identifier" validate:"required"`
	IdentifierType IdentifierType `json:"identifier_type" validate:"required"`
}

// ResolveIdentifier translates identifier options into a lookup criterion.
func ResolveIdentifier(opts IdentifierOptions) (Criterion, error) {
	if opts.Identifier == "" {
		return Criterion{}, fmt.Errorf("%w: missing identifier", httpx.ErrInvalidArgument)
	}
	switch opts.IdentifierType {
	case IdentifierTypeEmail:
		return Criterion{Field: "email", Value: opts.Identifier}, nil
	case IdentifierTypeID:
		return Criterion{Field: "id", Value: opts.Identifier}, nil
	default:
		return Criterion{}, fmt.Errorf("%w: unknown identifier type %q", httpx.ErrInvalidArgument, opts.IdentifierType)
	}
}

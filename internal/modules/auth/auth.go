package auth

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingToken  = errors.New("missing bearer token")
	ErrForbidden     = errors.New("not authorized for this supplier")
	ErrAdminPassword = errors.New("invalid admin password")
)

// TokenIssuer mints and verifies supplier session tokens.
type TokenIssuer interface {
	Issue(supplierID uuid.UUID) (string, error)
	Parse(token string) (uuid.UUID, error)
}

package user

import (
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
	"github.com/MrJamesThe3rd/revstay/internal/audit"
)

var ErrNotFound = apperr.New(apperr.ErrNotFound, "user not found")

// Role is the closed set of marketplace roles.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleSeller Role = "SELLER"
	RoleBuyer  Role = "BUYER"
)

// ParseRole accepts any casing and rejects unknown roles.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleSeller, RoleBuyer:
		return r, nil
	default:
		return "", apperr.Newf(apperr.ErrInvalidArgument, "unknown role %q", s)
	}
}

func (r Role) String() string { return string(r) }

// User is a marketplace account.
type User struct {
	ID       uuid.UUID
	Username string
	FullName string
	Email    string
	Role     Role
	Phone    string
	Active   bool
	Audit    audit.Metadata
}

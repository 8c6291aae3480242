package auth

import (
	"context"
	"slices"

	"github.com/sakif/scholar-stream/internal/model"
)

// Claims is the identity asserted by a verified bearer token.
type Claims struct {
	Email string
	UID   string
}

// Verifier checks a raw bearer token and returns the identity it carries.
// Implementations: FirebaseVerifier (production) and TokenService (local).
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// RoleLookup resolves the stored role of a user by email. A user that does
// not exist must be reported with an error wrapping apperror.ErrNotFound.
type RoleLookup interface {
	RoleOf(ctx context.Context, email string) (model.Role, error)
}

// Principal is a verified caller together with their stored role.
type Principal struct {
	Claims
	Role model.Role
}

// IsStaff reports whether the caller is a Moderator or an Admin.
func (p Principal) IsStaff() bool {
	return p.Role.IsStaff()
}

// Predicate decides whether a principal may use a route.
type Predicate func(Principal) bool

// HasRole admits principals whose role is one of roles.
func HasRole(roles ...model.Role) Predicate {
	return func(p Principal) bool {
		return slices.Contains(roles, p.Role)
	}
}

var (
	AdminOnly        = HasRole(model.RoleAdmin)
	ModeratorOrAdmin = HasRole(model.RoleModerator, model.RoleAdmin)
)

// AnyOf admits a principal if at least one predicate does.
func AnyOf(preds ...Predicate) Predicate {
	return func(p Principal) bool {
		for _, pred := range preds {
			if pred(p) {
				return true
			}
		}
		return false
	}
}

// AllOf admits a principal only if every predicate does. With no predicates
// it admits nobody.
func AllOf(preds ...Predicate) Predicate {
	return func(p Principal) bool {
		if len(preds) == 0 {
			return false
		}
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

// Package model defines the documents stored in the four collections
// (users, scholarships, reviews, applications) and their enumerations.
//
// JSON tags follow the field names the web client already uses (camelCase,
// "_id" for the store-assigned identifier). The same structs carry bson tags
// so the MongoDB backend can inline them; the ID field is excluded there
// because each backend owns its own identifier representation.
package model

import (
	"strings"
	"time"
)

// Role is the stored authorization tier of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "Moderator"
	RoleAdmin     Role = "Admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r may act on other users' reviews and applications.
func (r Role) IsStaff() bool {
	return r == RoleModerator || r == RoleAdmin
}

// NormalizeEmail is the stored form of an email: trimmed and lowercased.
// Every email that reaches a store lookup or an ownership comparison goes
// through it, so Alice@x and alice@x are one user.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User is keyed naturally by Email; ID is store-assigned.
// A user document is created on first sign-in with RoleUser.
type User struct {
	ID        string    `json:"_id"       bson:"-"`
	Name      string    `json:"name"      bson:"name"`
	Email     string    `json:"email"     bson:"email"`
	Photo     string    `json:"photo"     bson:"photo"`
	Role      Role      `json:"role"      bson:"role"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// UserProfilePatch carries the fields a user may change about themselves.
// Nil means "leave unchanged".
type UserProfilePatch struct {
	Name  *string `json:"name"`
	Photo *string `json:"photo"`
}

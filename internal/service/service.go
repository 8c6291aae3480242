// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the store
//
// Services take repository interfaces, never a concrete store, so the same
// code runs on MongoDB in production, on SQLite locally and on in-memory
// mocks in tests (see mock_test.go).
//
// Services return apperror values (ValidationFailed, NotFound, Forbidden) and
// know nothing about HTTP; the handler layer maps them to status codes.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/auth"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

// access answers ownership-or-staff questions for a caller.
//
// Routes that only authenticate carry no resolved role, so the role is looked
// up lazily, and only when the caller is not the owner.
type access struct {
	users repository.UserRepository
}

func (a access) isStaff(ctx context.Context, p auth.Principal) (bool, error) {
	if p.Role != "" {
		return p.IsStaff(), nil
	}
	u, err := a.users.GetByEmail(ctx, model.NormalizeEmail(p.Email))
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role.IsStaff(), nil
}

// ownerOrStaff returns Forbidden unless p owns the record or is staff.
func (a access) ownerOrStaff(ctx context.Context, p auth.Principal, ownerEmail string) error {
	if sameEmail(p.Email, ownerEmail) {
		return nil
	}
	staff, err := a.isStaff(ctx, p)
	if err != nil {
		return err
	}
	if !staff {
		return apperror.Forbidden("forbidden access")
	}
	return nil
}

func sameEmail(a, b string) bool {
	a = model.NormalizeEmail(a)
	return a != "" && a == model.NormalizeEmail(b)
}

// required returns a ValidationFailed error for the first empty field.
func required(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return apperror.Required(f[0])
		}
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/auth"
	"github.com/sakif/scholar-stream/internal/identity"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

var _ auth.RoleLookup = (*UserService)(nil)

// UserService manages user records and their roles.
type UserService struct {
	users    repository.UserRepository
	identity identity.Deprovisioner
	logger   *slog.Logger
}

func NewUserService(users repository.UserRepository, idp identity.Deprovisioner, logger *slog.Logger) *UserService {
	return &UserService{users: users, identity: idp, logger: logger}
}

// Create registers a user on first sign-in. It is idempotent by email:
// created is false when the email is already known, and nothing is written.
// New users always start with the "user" role, whatever the input says.
func (s *UserService) Create(ctx context.Context, in model.User) (*model.User, bool, error) {
	in.Email = model.NormalizeEmail(in.Email)
	if err := required([2]string{"email", in.Email}); err != nil {
		return nil, false, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.ID = ""
	in.Role = model.RoleUser

	created, err := s.users.CreateIfAbsent(ctx, &in)
	if err != nil {
		s.logger.Error("failed to create user",
			slog.String("email", in.Email),
			slog.String("error", err.Error()),
		)
		return nil, false, fmt.Errorf("creating user: %w", err)
	}
	if !created {
		return nil, false, nil
	}

	s.logger.Info("user created", slog.String("id", in.ID), slog.String("email", in.Email))
	return &in, true, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// RoleOf returns the stored role of the user with this email.
func (s *UserService) RoleOf(ctx context.Context, email string) (model.Role, error) {
	u, err := s.users.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// UpdateProfile changes the caller's own name and photo.
func (s *UserService) UpdateProfile(ctx context.Context, caller auth.Principal, patch model.UserProfilePatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return apperror.ValidationFailed("name", "name cannot be empty")
		}
		patch.Name = &name
	}
	return s.users.UpdateProfile(ctx, model.NormalizeEmail(caller.Email), patch)
}

// UpdateRole sets a user's role; only the three known roles are accepted.
func (s *UserService) UpdateRole(ctx context.Context, id, role string) error {
	r := model.Role(strings.TrimSpace(role))
	if !r.Valid() {
		return apperror.ValidationFailed("role",
			fmt.Sprintf("role must be one of %s, %s, %s", model.RoleUser, model.RoleModerator, model.RoleAdmin))
	}
	if err := s.users.UpdateRole(ctx, id, r); err != nil {
		return err
	}
	s.logger.Info("user role changed", slog.String("id", id), slog.String("role", string(r)))
	return nil
}

// Delete removes the user from the store and, best effort, from the identity
// provider. A provider failure is logged and never blocks the store delete.
func (s *UserService) Delete(ctx context.Context, id string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.identity.DeleteUserByEmail(ctx, u.Email); err != nil {
		s.logger.Warn("identity provider deletion failed, continuing",
			slog.String("email", u.Email),
			slog.String("error", err.Error()),
		)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.String("id", id), slog.String("email", u.Email))
	return nil
}

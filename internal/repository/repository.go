// Package repository declares the storage contracts the services depend on.
//
// Two backends implement them: repository/mongo (the production document
// store) and repository/sqlite (embedded, used for local runs and tests).
// Services only ever see these interfaces.
//
// Conventions shared by every implementation:
//   - lookups by an unknown or malformed ID return apperror.NotFound
//   - Update/Delete that match nothing return apperror.NotFound
//   - List methods return an empty, non-nil slice when nothing matches
package repository

import (
	"context"

	"github.com/sakif/scholar-stream/internal/listing"
	"github.com/sakif/scholar-stream/internal/model"
)

type UserRepository interface {
	// CreateIfAbsent inserts user unless a user with the same email exists.
	// It is atomic: the backend enforces email uniqueness. created is false
	// when the email was already present, and user is left untouched.
	CreateIfAbsent(ctx context.Context, user *model.User) (created bool, err error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, email string, patch model.UserProfilePatch) error
	UpdateRole(ctx context.Context, id string, role model.Role) error
	Delete(ctx context.Context, id string) error
}

type ScholarshipRepository interface {
	Create(ctx context.Context, s *model.Scholarship) error
	GetByID(ctx context.Context, id string) (*model.Scholarship, error)
	// List returns one page of scholarships matching q and the total number
	// of matches across all pages.
	List(ctx context.Context, q listing.Query) ([]model.Scholarship, int64, error)
	Update(ctx context.Context, id string, patch model.ScholarshipPatch) error
	Delete(ctx context.Context, id string) error
}

type ReviewRepository interface {
	Create(ctx context.Context, r *model.Review) error
	GetByID(ctx context.Context, id string) (*model.Review, error)
	ListByScholarship(ctx context.Context, scholarshipID string) ([]model.Review, error)
	ListByReviewer(ctx context.Context, email string) ([]model.Review, error)
	ListAll(ctx context.Context) ([]model.Review, error)
	Update(ctx context.Context, id string, patch model.ReviewPatch) error
	Delete(ctx context.Context, id string) error
}

// ApplicationFilter narrows ListAll; empty fields do not filter.
type ApplicationFilter struct {
	Status model.ApplicationStatus
}

type ApplicationRepository interface {
	Create(ctx context.Context, a *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	ListByApplicant(ctx context.Context, email string) ([]model.Application, error)
	ListAll(ctx context.Context, filter ApplicationFilter) ([]model.Application, error)
	SetPaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error
	SetStatus(ctx context.Context, id string, status model.ApplicationStatus) error
	SetFeedback(ctx context.Context, id, feedback string) error
	// Reject sets the status to rejected and, when feedback is non-empty,
	// replaces the feedback in the same write.
	Reject(ctx context.Context, id, feedback string) error
	// DeletePending deletes the application only if its status is still
	// pending. The status check and the delete are one store operation.
	DeletePending(ctx context.Context, id string) (deleted bool, err error)
}

// Store bundles the four collections of one backend.
type Store interface {
	Users() UserRepository
	Scholarships() ScholarshipRepository
	Reviews() ReviewRepository
	Applications() ApplicationRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

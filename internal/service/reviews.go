package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/auth"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ReviewService manages scholarship reviews.
type ReviewService struct {
	reviews      repository.ReviewRepository
	scholarships repository.ScholarshipRepository
	access       access
	logger       *slog.Logger
}

func NewReviewService(
	reviews repository.ReviewRepository,
	scholarships repository.ScholarshipRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:      reviews,
		scholarships: scholarships,
		access:       access{users: users},
		logger:       logger,
	}
}

// ReviewInput is what a reviewer submits.
type ReviewInput struct {
	ScholarshipID string
	ReviewerName  string
	ReviewerImage string
	Rating        int
	Comment       string
}

// Create stores a review by caller. The scholarship must exist; its name and
// university are copied onto the review.
func (s *ReviewService) Create(ctx context.Context, caller auth.Principal, in ReviewInput) (*model.Review, error) {
	if err := required([2]string{"scholarshipId", in.ScholarshipID}); err != nil {
		return nil, err
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	sch, err := s.scholarships.GetByID(ctx, in.ScholarshipID)
	if err != nil {
		return nil, err
	}

	r := &model.Review{
		ScholarshipID:   sch.ID,
		ScholarshipName: sch.ScholarshipName,
		UniversityName:  sch.UniversityName,
		ReviewerName:    strings.TrimSpace(in.ReviewerName),
		ReviewerEmail:   model.NormalizeEmail(caller.Email),
		ReviewerImage:   strings.TrimSpace(in.ReviewerImage),
		Rating:          in.Rating,
		Comment:         strings.TrimSpace(in.Comment),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		s.logger.Error("failed to create review", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating review: %w", err)
	}

	s.logger.Info("review created",
		slog.String("id", r.ID),
		slog.String("scholarshipId", r.ScholarshipID),
		slog.String("reviewer", r.ReviewerEmail),
	)
	return r, nil
}

func (s *ReviewService) ListByScholarship(ctx context.Context, scholarshipID string) ([]model.Review, error) {
	return s.reviews.ListByScholarship(ctx, scholarshipID)
}

// ListByReviewer lists reviews written by email; an empty email means the
// caller. Staff may list anyone's reviews.
func (s *ReviewService) ListByReviewer(ctx context.Context, caller auth.Principal, email string) ([]model.Review, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		email = model.NormalizeEmail(caller.Email)
	}
	if err := s.access.ownerOrStaff(ctx, caller, email); err != nil {
		return nil, err
	}
	return s.reviews.ListByReviewer(ctx, email)
}

func (s *ReviewService) ListAll(ctx context.Context) ([]model.Review, error) {
	return s.reviews.ListAll(ctx)
}

// Update changes rating and comment; allowed for the author and staff.
func (s *ReviewService) Update(ctx context.Context, caller auth.Principal, id string, patch model.ReviewPatch) error {
	if patch.Rating != nil {
		if err := validateRating(*patch.Rating); err != nil {
			return err
		}
	}
	if patch.Comment != nil {
		c := strings.TrimSpace(*patch.Comment)
		patch.Comment = &c
	}

	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.ownerOrStaff(ctx, caller, r.ReviewerEmail); err != nil {
		return err
	}

	if err := s.reviews.Update(ctx, id, patch); err != nil {
		return err
	}
	s.logger.Info("review updated", slog.String("id", id), slog.String("by", caller.Email))
	return nil
}

// Delete removes a review; allowed for the author and staff.
func (s *ReviewService) Delete(ctx context.Context, caller auth.Principal, id string) error {
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.ownerOrStaff(ctx, caller, r.ReviewerEmail); err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("review deleted", slog.String("id", id), slog.String("by", caller.Email))
	return nil
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperror.ValidationFailed("rating",
			fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/auth"
	"github.com/sakif/scholar-stream/internal/listing"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

// ScholarshipService manages scholarships and serves the public listing.
type ScholarshipService struct {
	repo   repository.ScholarshipRepository
	logger *slog.Logger
}

func NewScholarshipService(repo repository.ScholarshipRepository, logger *slog.Logger) *ScholarshipService {
	return &ScholarshipService{repo: repo, logger: logger}
}

// Create validates and stores a scholarship posted by caller.
func (s *ScholarshipService) Create(ctx context.Context, caller auth.Principal, in model.Scholarship) (*model.Scholarship, error) {
	trimScholarship(&in)
	if err := validateScholarship(in); err != nil {
		return nil, err
	}
	in.ID = ""
	if in.PostedUserEmail == "" {
		in.PostedUserEmail = caller.Email
	}

	if err := s.repo.Create(ctx, &in); err != nil {
		s.logger.Error("failed to create scholarship",
			slog.String("name", in.ScholarshipName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating scholarship: %w", err)
	}

	s.logger.Info("scholarship created",
		slog.String("id", in.ID),
		slog.String("name", in.ScholarshipName),
	)
	return &in, nil
}

func (s *ScholarshipService) Get(ctx context.Context, id string) (*model.Scholarship, error) {
	return s.repo.GetByID(ctx, id)
}

// List runs the filtered, sorted, paginated listing.
func (s *ScholarshipService) List(ctx context.Context, q listing.Query) (listing.Page[model.Scholarship], error) {
	data, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Error("failed to list scholarships", slog.String("error", err.Error()))
		return listing.Page[model.Scholarship]{}, fmt.Errorf("listing scholarships: %w", err)
	}
	return listing.NewPage(data, q, total), nil
}

// Update applies a partial update. Required text fields may be changed but
// not cleared.
func (s *ScholarshipService) Update(ctx context.Context, id string, patch model.ScholarshipPatch) error {
	for field, v := range map[string]*string{
		"scholarshipName":     patch.ScholarshipName,
		"universityName":      patch.UniversityName,
		"universityCountry":   patch.UniversityCountry,
		"subjectCategory":     patch.SubjectCategory,
		"scholarshipCategory": patch.ScholarshipCategory,
		"degree":              patch.Degree,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return apperror.ValidationFailed(field, field+" cannot be empty")
		}
	}
	for field, v := range map[string]*float64{
		"tuitionFees":     patch.TuitionFees,
		"applicationFees": patch.ApplicationFees,
		"serviceCharge":   patch.ServiceCharge,
	} {
		if v != nil && *v < 0 {
			return apperror.ValidationFailed(field, field+" cannot be negative")
		}
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		return err
	}
	s.logger.Info("scholarship updated", slog.String("id", id))
	return nil
}

func (s *ScholarshipService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("scholarship deleted", slog.String("id", id))
	return nil
}

func trimScholarship(in *model.Scholarship) {
	for _, f := range []*string{
		&in.ScholarshipName, &in.UniversityName, &in.UniversityImage, &in.UniversityCountry,
		&in.UniversityCity, &in.SubjectCategory, &in.ScholarshipCategory, &in.Degree,
		&in.ApplicationDeadline, &in.PostedUserEmail,
	} {
		*f = strings.TrimSpace(*f)
	}
}

func validateScholarship(in model.Scholarship) error {
	if err := required(
		[2]string{"scholarshipName", in.ScholarshipName},
		[2]string{"universityName", in.UniversityName},
		[2]string{"universityCountry", in.UniversityCountry},
		[2]string{"subjectCategory", in.SubjectCategory},
		[2]string{"scholarshipCategory", in.ScholarshipCategory},
		[2]string{"degree", in.Degree},
		[2]string{"applicationDeadline", in.ApplicationDeadline},
	); err != nil {
		return err
	}
	if in.TuitionFees < 0 || in.ApplicationFees < 0 || in.ServiceCharge < 0 {
		return apperror.ValidationFailed("applicationFees", "fees cannot be negative")
	}
	if in.UniversityWorldRank < 0 {
		return apperror.ValidationFailed("universityWorldRank", "universityWorldRank cannot be negative")
	}
	return nil
}

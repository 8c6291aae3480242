package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/auth"
	"github.com/sakif/scholar-stream/internal/model"
	"github.com/sakif/scholar-stream/internal/repository"
)

// ApplicationService manages scholarship applications.
//
// LIFECYCLE:
//
//	create (pending, unpaid) → paid → processing → completed
//	                                            ↘ rejected
//
// Applicants create, pay for and (while pending) delete their own
// applications. Status and feedback are staff-only.
type ApplicationService struct {
	applications repository.ApplicationRepository
	scholarships repository.ScholarshipRepository
	users        repository.UserRepository
	access       access
	logger       *slog.Logger
}

func NewApplicationService(
	applications repository.ApplicationRepository,
	scholarships repository.ScholarshipRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		scholarships: scholarships,
		users:        users,
		access:       access{users: users},
		logger:       logger,
	}
}

// ApplicationInput is what an applicant submits.
type ApplicationInput struct {
	ScholarshipID string
	UserName      string
	Phone         string
	Address       string
}

// Create files an application by caller for an existing scholarship. The
// scholarship's descriptive fields and fees are copied onto the application.
func (s *ApplicationService) Create(ctx context.Context, caller auth.Principal, in ApplicationInput) (*model.Application, error) {
	if err := required([2]string{"scholarshipId", in.ScholarshipID}); err != nil {
		return nil, err
	}

	sch, err := s.scholarships.GetByID(ctx, in.ScholarshipID)
	if err != nil {
		return nil, err
	}

	userID := caller.UID
	applicant := model.NormalizeEmail(caller.Email)
	if u, err := s.users.GetByEmail(ctx, applicant); err == nil {
		userID = u.ID
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	a := &model.Application{
		ScholarshipID:       sch.ID,
		ScholarshipName:     sch.ScholarshipName,
		UniversityName:      sch.UniversityName,
		ScholarshipCategory: sch.ScholarshipCategory,
		SubjectCategory:     sch.SubjectCategory,
		Degree:              sch.Degree,
		ApplicationFees:     sch.ApplicationFees,
		ServiceCharge:       sch.ServiceCharge,
		UserID:              userID,
		UserName:            strings.TrimSpace(in.UserName),
		UserEmail:           applicant,
		Phone:               strings.TrimSpace(in.Phone),
		Address:             strings.TrimSpace(in.Address),
		ApplicationStatus:   model.StatusPending,
		PaymentStatus:       model.PaymentUnpaid,
	}
	if err := s.applications.Create(ctx, a); err != nil {
		s.logger.Error("failed to create application", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating application: %w", err)
	}

	s.logger.Info("application created",
		slog.String("id", a.ID),
		slog.String("scholarshipId", a.ScholarshipID),
		slog.String("applicant", a.UserEmail),
	)
	return a, nil
}

// ListByApplicant lists email's applications; an empty email means the
// caller. Staff may list anyone's.
func (s *ApplicationService) ListByApplicant(ctx context.Context, caller auth.Principal, email string) ([]model.Application, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		email = model.NormalizeEmail(caller.Email)
	}
	if err := s.access.ownerOrStaff(ctx, caller, email); err != nil {
		return nil, err
	}
	return s.applications.ListByApplicant(ctx, email)
}

// Get returns one application to its owner or to staff.
func (s *ApplicationService) Get(ctx context.Context, caller auth.Principal, id string) (*model.Application, error) {
	a, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.ownerOrStaff(ctx, caller, a.UserEmail); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAll is the staff view, optionally narrowed to one status.
func (s *ApplicationService) ListAll(ctx context.Context, status string) ([]model.Application, error) {
	filter := repository.ApplicationFilter{}
	if status = strings.TrimSpace(status); status != "" {
		st, err := parseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	return s.applications.ListAll(ctx, filter)
}

// MarkPaid is the client-reported payment confirmation, for the owner or staff.
func (s *ApplicationService) MarkPaid(ctx context.Context, caller auth.Principal, id string) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	return s.ConfirmPayment(ctx, id)
}

// AmountDue is what the applicant pays: the application fee plus the
// service charge, as snapshotted at creation. No access check; the webhook
// has no caller.
func (s *ApplicationService) AmountDue(ctx context.Context, id string) (float64, error) {
	a, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return a.ApplicationFees + a.ServiceCharge, nil
}

// ConfirmPayment flips the payment status to paid. It is also the target of
// the verified provider webhook, which has no caller.
func (s *ApplicationService) ConfirmPayment(ctx context.Context, id string) error {
	if err := s.applications.SetPaymentStatus(ctx, id, model.PaymentPaid); err != nil {
		return err
	}
	s.logger.Info("application paid", slog.String("id", id))
	return nil
}

func (s *ApplicationService) SetStatus(ctx context.Context, id, status string) error {
	st, err := parseStatus(status)
	if err != nil {
		return err
	}
	if err := s.applications.SetStatus(ctx, id, st); err != nil {
		return err
	}
	s.logger.Info("application status changed", slog.String("id", id), slog.String("status", string(st)))
	return nil
}

func (s *ApplicationService) SetFeedback(ctx context.Context, id, feedback string) error {
	if err := s.applications.SetFeedback(ctx, id, strings.TrimSpace(feedback)); err != nil {
		return err
	}
	s.logger.Info("application feedback set", slog.String("id", id))
	return nil
}

// Reject sets the status to rejected, replacing the feedback if one is given.
func (s *ApplicationService) Reject(ctx context.Context, id, feedback string) error {
	if err := s.applications.Reject(ctx, id, strings.TrimSpace(feedback)); err != nil {
		return err
	}
	s.logger.Info("application rejected", slog.String("id", id))
	return nil
}

// Delete removes caller's own application while it is still pending. Anything
// else is Forbidden and leaves the record unchanged.
func (s *ApplicationService) Delete(ctx context.Context, caller auth.Principal, id string) error {
	a, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !sameEmail(caller.Email, a.UserEmail) {
		return apperror.Forbidden("forbidden access")
	}
	if a.ApplicationStatus != model.StatusPending {
		return apperror.Forbidden("only pending applications can be deleted")
	}

	deleted, err := s.applications.DeletePending(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		// Status changed between the read and the delete.
		return apperror.Forbidden("only pending applications can be deleted")
	}

	s.logger.Info("application deleted", slog.String("id", id), slog.String("by", caller.Email))
	return nil
}

func parseStatus(s string) (model.ApplicationStatus, error) {
	st := model.ApplicationStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", apperror.ValidationFailed("status",
			fmt.Sprintf("status must be one of %s, %s, %s, %s",
				model.StatusPending, model.StatusProcessing, model.StatusCompleted, model.StatusRejected))
	}
	return st, nil
}

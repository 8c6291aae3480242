package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/auth"
	"github.com/sakif/scholar-stream/internal/payment"
)

// PaymentService starts checkouts and applies provider confirmations.
type PaymentService struct {
	provider     payment.Provider
	applications *ApplicationService
	logger       *slog.Logger
}

func NewPaymentService(provider payment.Provider, applications *ApplicationService, logger *slog.Logger) *PaymentService {
	return &PaymentService{provider: provider, applications: applications, logger: logger}
}

// CheckoutInput is the client's request to pay an application fee.
type CheckoutInput struct {
	Amount          float64
	ApplicationID   string
	ScholarshipID   string
	UserID          string
	UserEmail       string
	ScholarshipName string
}

// Checkout creates a hosted checkout session and returns its URL. The caller
// must own the application (or be staff); nothing is written locally.
//
// A zero amount means the amount due (fee plus service charge); any other
// amount must equal it to the cent.
func (s *PaymentService) Checkout(ctx context.Context, caller auth.Principal, in CheckoutInput) (string, error) {
	if err := required([2]string{"applicationId", in.ApplicationID}); err != nil {
		return "", err
	}
	if in.Amount < 0 {
		return "", apperror.ValidationFailed("amount", "amount cannot be negative")
	}

	app, err := s.applications.Get(ctx, caller, in.ApplicationID)
	if err != nil {
		return "", err
	}

	due := app.ApplicationFees + app.ServiceCharge
	if payment.MinorUnits(due) <= 0 {
		return "", apperror.ValidationFailed("amount", "application has no fee to pay")
	}
	if in.Amount == 0 {
		in.Amount = due
	}
	if payment.MinorUnits(in.Amount) != payment.MinorUnits(due) {
		return "", apperror.ValidationFailed("amount",
			fmt.Sprintf("amount must equal the application fee of %.2f", due))
	}

	email := strings.TrimSpace(in.UserEmail)
	if email == "" {
		email = app.UserEmail
	}
	scholarshipID := in.ScholarshipID
	if scholarshipID == "" {
		scholarshipID = app.ScholarshipID
	}
	userID := in.UserID
	if userID == "" {
		userID = app.UserID
	}
	name := in.ScholarshipName
	if name == "" {
		name = app.ScholarshipName
	}

	url, err := s.provider.CreateCheckout(ctx, payment.CheckoutRequest{
		Amount:          in.Amount,
		ApplicationID:   app.ID,
		ScholarshipID:   scholarshipID,
		UserID:          userID,
		UserEmail:       email,
		ScholarshipName: name,
	})
	if err != nil {
		s.logger.Error("checkout creation failed",
			slog.String("applicationId", app.ID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("creating checkout: %w", err)
	}

	s.logger.Info("checkout created", slog.String("applicationId", app.ID))
	return url, nil
}

// HandleWebhook verifies a provider delivery and marks the application paid
// for a completed checkout. Confirmations for unknown applications, or for
// an amount other than the one due, are logged and acknowledged without
// marking anything, since redelivery cannot fix them.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	conf, err := s.provider.ParseWebhook(payload, signature)
	if errors.Is(err, payment.ErrInvalidSignature) {
		return apperror.ValidationFailed("signature", "invalid webhook signature")
	}
	if err != nil {
		return fmt.Errorf("parsing webhook: %w", err)
	}
	if conf == nil {
		return nil
	}

	due, err := s.applications.AmountDue(ctx, conf.ApplicationID)
	if errors.Is(err, apperror.ErrNotFound) {
		s.logger.Warn("payment confirmed for unknown application",
			slog.String("applicationId", conf.ApplicationID))
		return nil
	}
	if err != nil {
		return err
	}
	if conf.AmountTotal != payment.MinorUnits(due) {
		s.logger.Warn("payment amount does not match the amount due",
			slog.String("applicationId", conf.ApplicationID),
			slog.Int64("paid", conf.AmountTotal),
			slog.Int64("due", payment.MinorUnits(due)),
		)
		return nil
	}

	err = s.applications.ConfirmPayment(ctx, conf.ApplicationID)
	if errors.Is(err, apperror.ErrNotFound) {
		s.logger.Warn("application deleted before payment was confirmed",
			slog.String("applicationId", conf.ApplicationID))
		return nil
	}
	return err
}

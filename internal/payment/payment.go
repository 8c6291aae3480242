// Package payment creates hosted checkout sessions and verifies the signed
// webhook events that confirm them.
package payment

import (
	"context"
	"math"
)

// Metadata keys attached to every checkout session.
const (
	MetaApplicationID = "applicationId"
	MetaScholarshipID = "scholarshipId"
	MetaUserID        = "userId"
)

// CheckoutRequest describes one application fee payment.
type CheckoutRequest struct {
	Amount          float64
	ApplicationID   string
	ScholarshipID   string
	UserID          string
	UserEmail       string
	ScholarshipName string
}

// Confirmation is a completed, paid checkout reported by the provider.
type Confirmation struct {
	ApplicationID string
	ScholarshipID string
	UserID        string
	AmountTotal   int64 // minor units actually charged
}

// Provider is the payment backend.
type Provider interface {
	// CreateCheckout returns the URL of a hosted checkout page.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
	// ParseWebhook verifies the signature of a webhook delivery. It returns a
	// nil Confirmation for events that do not confirm a payment.
	ParseWebhook(payload []byte, signature string) (*Confirmation, error)
}

// MinorUnits converts an amount to the currency's smallest unit, rounded to
// the nearest integer: 19.99 -> 1999.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const eventCheckoutCompleted = "checkout.session.completed"

// ErrInvalidSignature is returned for webhook deliveries that fail
// verification.
var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

var _ Provider = (*Stripe)(nil)

// StripeConfig configures the Stripe provider.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SiteDomain    string
}

// Stripe creates Checkout Sessions through the Stripe API.
type Stripe struct {
	api           *client.API
	webhookSecret string
	currency      string
	siteDomain    string
}

func NewStripe(cfg StripeConfig) *Stripe {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)

	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &Stripe{
		api:           sc,
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		siteDomain:    strings.TrimRight(cfg.SiteDomain, "/"),
	}
}

func (s *Stripe) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	params := checkoutParams(req, s.currency, s.siteDomain)
	params.Context = ctx

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("payment: creating checkout session: %w", err)
	}
	return session.URL, nil
}

// checkoutParams builds a one-item payment session tagged with the request's
// identifiers. {CHECKOUT_SESSION_ID} is filled in by Stripe on redirect.
func checkoutParams(req CheckoutRequest, currency, site string) *stripe.CheckoutSessionParams {
	appID := url.QueryEscape(req.ApplicationID)
	name := req.ScholarshipName
	if name == "" {
		name = "Scholarship application fee"
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(MinorUnits(req.Amount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(site + "/payment-success?applicationId=" + appID + "&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(site + "/payment-cancelled?applicationId=" + appID),
	}
	if req.UserEmail != "" {
		params.CustomerEmail = stripe.String(req.UserEmail)
	}
	params.AddMetadata(MetaApplicationID, req.ApplicationID)
	params.AddMetadata(MetaScholarshipID, req.ScholarshipID)
	params.AddMetadata(MetaUserID, req.UserID)
	return params
}

// ParseWebhook verifies the Stripe-Signature header and extracts a paid
// checkout.session.completed event.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Confirmation, error) {
	if s.webhookSecret == "" {
		return nil, errors.New("payment: webhook secret not configured")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if event.Type != eventCheckoutCompleted || event.Data == nil {
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("payment: decoding checkout session: %w", err)
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, nil
	}

	appID := session.Metadata[MetaApplicationID]
	if appID == "" {
		return nil, errors.New("payment: checkout session has no application id")
	}
	return &Confirmation{
		ApplicationID: appID,
		ScholarshipID: session.Metadata[MetaScholarshipID],
		UserID:        session.Metadata[MetaUserID],
		AmountTotal:   session.AmountTotal,
	}, nil
}

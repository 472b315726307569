package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Intent is the subset of the processor's payment-intent object the
// application consumes. The client secret is handed to the buyer so they
// can complete the charge directly with the processor; card data never
// touches this service.
type Intent struct {
	ID           string
	ClientSecret string
}

// IntentCreator requests a payment intent from the processor. Declared as
// an interface so handlers can be exercised without network access.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error)
}

// StripeClient implements IntentCreator against the Stripe API.
type StripeClient struct {
	api *client.API
}

// NewStripeClient builds a client bound to the given secret key.
func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

// CreateIntent creates a payment intent carrying the given metadata. The
// metadata travels back on the webhook and is what ties the asynchronous
// outcome to a course and student.
func (s *StripeClient) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

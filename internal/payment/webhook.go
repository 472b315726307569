package payment

import (
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// EventVerifier authenticates a webhook delivery and decodes it into an
// event. Verification must run over the exact raw bytes received, which is
// why the handler reads the body before any binding happens.
type EventVerifier interface {
	VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeWebhook verifies deliveries signed with the shared webhook secret.
type StripeWebhook struct {
	Secret string
}

// VerifyEvent checks the signature header against the payload and returns
// the decoded event. Any mismatch fails closed.
func (w StripeWebhook) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, w.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

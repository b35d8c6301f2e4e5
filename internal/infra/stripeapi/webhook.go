package stripeapi

import (
	"strings"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"

	"summarist-billing/internal/apperr"
)

// VerifyEvent checks the Stripe-Signature header against payload and
// returns the decoded event.
func VerifyEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	if strings.TrimSpace(signature) == "" {
		return stripe.Event{}, apperr.New(apperr.KindSignatureInvalid, "stripe.VerifyEvent", "missing signature")
	}
	if secret == "" {
		return stripe.Event{}, apperr.New(apperr.KindInternal, "stripe.VerifyEvent", "webhook secret not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, &apperr.Error{
			Kind:    apperr.KindSignatureInvalid,
			Op:      "stripe.VerifyEvent",
			Message: "signature verification failed",
			Err:     err,
		}
	}
	return event, nil
}

package subscription

import (
	"encoding/json"

	"github.com/stripe/stripe-go/v75"

	"summarist-billing/internal/apperr"
)

type Kind string

const (
	KindCheckoutCompleted       Kind = "checkout.session.completed"
	KindSubscriptionCreated     Kind = "customer.subscription.created"
	KindSubscriptionUpdated     Kind = "customer.subscription.updated"
	KindSubscriptionDeleted     Kind = "customer.subscription.deleted"
	KindSubscriptionPaused      Kind = "customer.subscription.paused"
	KindSubscriptionResumed     Kind = "customer.subscription.resumed"
	KindInvoicePaid             Kind = "invoice.paid"
	KindInvoicePaymentSucceeded Kind = "invoice.payment_succeeded"
	KindInvoicePaymentFailed    Kind = "invoice.payment_failed"
)

// Event is one of CheckoutCompleted, SubscriptionChanged, InvoiceSettled or
// Unhandled.
type Event interface {
	Kind() Kind
	EventID() string
	isEvent()
}

type envelope struct {
	id   string
	kind Kind
}

func (e envelope) Kind() Kind      { return e.kind }
func (e envelope) EventID() string { return e.id }
func (envelope) isEvent()          {}

type CheckoutCompleted struct {
	envelope
	Session *stripe.CheckoutSession
}

type SubscriptionChanged struct {
	envelope
	Subscription *stripe.Subscription
}

type InvoiceSettled struct {
	envelope
	Invoice *stripe.Invoice
}

func (e InvoiceSettled) Failed() bool { return e.kind == KindInvoicePaymentFailed }

type Unhandled struct {
	envelope
}

// ParseEvent decodes a verified Stripe event into its typed form.
func ParseEvent(evt stripe.Event) (Event, error) {
	env := envelope{id: evt.ID, kind: Kind(string(evt.Type))}

	switch env.kind {
	case KindCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := decode(evt, &s); err != nil {
			return nil, err
		}
		return CheckoutCompleted{envelope: env, Session: &s}, nil

	case KindSubscriptionCreated, KindSubscriptionUpdated, KindSubscriptionDeleted,
		KindSubscriptionPaused, KindSubscriptionResumed:
		var sub stripe.Subscription
		if err := decode(evt, &sub); err != nil {
			return nil, err
		}
		return SubscriptionChanged{envelope: env, Subscription: &sub}, nil

	case KindInvoicePaid, KindInvoicePaymentSucceeded, KindInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := decode(evt, &inv); err != nil {
			return nil, err
		}
		return InvoiceSettled{envelope: env, Invoice: &inv}, nil

	default:
		return Unhandled{envelope: env}, nil
	}
}

func decode(evt stripe.Event, v any) error {
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return apperr.InvalidArgument("subscription.ParseEvent", "event has no data object")
	}
	if err := json.Unmarshal(evt.Data.Raw, v); err != nil {
		return &apperr.Error{Kind: apperr.KindInvalidArgument, Op: "subscription.ParseEvent", Message: "malformed event data", Err: err}
	}
	return nil
}

package subscription

import (
	"context"

	"github.com/stripe/stripe-go/v75"
)

// Processor is the slice of the Stripe API the reconciliation core uses.
// *stripeapi.Client satisfies it.
type Processor interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	GetCustomer(ctx context.Context, id string) (*stripe.Customer, error)
	GetProduct(ctx context.Context, id string) (*stripe.Product, error)
	SetCustomerUserID(ctx context.Context, customerID, userID string) error
	CreateCustomer(ctx context.Context, userID, email string) (*stripe.Customer, error)
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

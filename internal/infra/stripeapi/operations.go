package stripeapi

import (
	"context"

	"github.com/stripe/stripe-go/v75"
)

// MetadataUserID is the metadata key linking Stripe objects to a user.
const (
	MetadataUserID  = "userId"
	MetadataPriceID = "priceId"
)

func (c *Client) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	return call(ctx, c, "stripe.GetSubscription", func(ctx context.Context) (*stripe.Subscription, error) {
		params := &stripe.SubscriptionParams{}
		params.Context = ctx
		params.AddExpand("items.data.price.product")
		return c.API().Subscriptions.Get(id, params)
	})
}

func (c *Client) GetCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	return call(ctx, c, "stripe.GetCustomer", func(ctx context.Context) (*stripe.Customer, error) {
		params := &stripe.CustomerParams{}
		params.Context = ctx
		return c.API().Customers.Get(id, params)
	})
}

func (c *Client) GetProduct(ctx context.Context, id string) (*stripe.Product, error) {
	return call(ctx, c, "stripe.GetProduct", func(ctx context.Context) (*stripe.Product, error) {
		params := &stripe.ProductParams{}
		params.Context = ctx
		return c.API().Products.Get(id, params)
	})
}

// CreateCustomer creates a customer tagged with userID. The idempotency key
// makes a retried create return the customer from the first attempt.
func (c *Client) CreateCustomer(ctx context.Context, userID, email string) (*stripe.Customer, error) {
	return call(ctx, c, "stripe.CreateCustomer", func(ctx context.Context) (*stripe.Customer, error) {
		params := &stripe.CustomerParams{
			Metadata: map[string]string{
				MetadataUserID: userID,
			},
		}
		if email != "" {
			params.Email = stripe.String(email)
		}
		params.Context = ctx
		params.SetIdempotencyKey("customer-create-" + userID)
		return c.API().Customers.New(params)
	})
}

func (c *Client) SetCustomerUserID(ctx context.Context, customerID, userID string) error {
	_, err := call(ctx, c, "stripe.UpdateCustomer", func(ctx context.Context) (*stripe.Customer, error) {
		params := &stripe.CustomerParams{}
		params.Context = ctx
		params.AddMetadata(MetadataUserID, userID)
		return c.API().Customers.Update(customerID, params)
	})
	return err
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return call(ctx, c, "stripe.CreateCheckoutSession", func(ctx context.Context) (*stripe.CheckoutSession, error) {
		params.Context = ctx
		return c.API().CheckoutSessions.New(params)
	})
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	return call(ctx, c, "stripe.CreatePortalSession", func(ctx context.Context) (*stripe.BillingPortalSession, error) {
		params := &stripe.BillingPortalSessionParams{
			Customer:  stripe.String(customerID),
			ReturnURL: stripe.String(returnURL),
		}
		params.Context = ctx
		return c.API().BillingPortalSessions.New(params)
	})
}

// ListRecurringPrices returns active recurring prices with their product
// expanded, optionally restricted to one product.
func (c *Client) ListRecurringPrices(ctx context.Context, productID string) ([]*stripe.Price, error) {
	return call(ctx, c, "stripe.ListPrices", func(ctx context.Context) ([]*stripe.Price, error) {
		params := &stripe.PriceListParams{}
		params.Context = ctx
		params.Active = stripe.Bool(true)
		params.Type = stripe.String("recurring")
		if productID != "" {
			params.Product = stripe.String(productID)
		}
		params.AddExpand("data.product")

		var out []*stripe.Price
		it := c.API().Prices.List(params)
		for it.Next() {
			out = append(out, it.Price())
		}
		return out, it.Err()
	})
}

package subscription

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/domain/plans"
)

var checkoutCfg = CheckoutConfig{
	SuccessURL: "https://app.example.com/for-you?checkout=success",
	CancelURL:  "https://app.example.com/for-you?checkout=canceled",
}

func newFactory(f *fixture, cfg CheckoutConfig) *CheckoutFactory {
	return NewCheckoutFactory(f.proc, f.store, f.store, cfg, zap.NewNop())
}

func TestCheckoutFactory_RequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := newFactory(f, checkoutCfg).Create(context.Background(), Identity{}, "price_monthly")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestCheckoutFactory_RequiresPrice(t *testing.T) {
	f := newFixture(t)
	_, err := newFactory(f, checkoutCfg).Create(context.Background(), Identity{UserID: "user-1"}, "  ")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestCheckoutFactory_RejectsUnknownPriceWhenRequired(t *testing.T) {
	f := newFixture(t)
	cfg := checkoutCfg
	cfg.RequireKnownPrice = true

	_, err := newFactory(f, cfg).Create(context.Background(), Identity{UserID: "user-1"}, "price_unknown")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestCheckoutFactory_CreatesCustomerAndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := checkoutCfg
	cfg.RequireKnownPrice = true
	require.NoError(t, f.store.UpsertPlan(ctx, plans.Plan{StripePriceID: "price_monthly", Interval: plans.IntervalMonth}))

	f.proc.On("CreateCustomer", mock.Anything, "user-1", "reader@example.com").
		Return(&stripe.Customer{ID: "cus_new"}, nil)

	var sent *stripe.CheckoutSessionParams
	f.proc.On("CreateCheckoutSession", mock.Anything, mock.AnythingOfType("*stripe.CheckoutSessionParams")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*stripe.CheckoutSessionParams) }).
		Return(&stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil)

	res, err := newFactory(f, cfg).Create(ctx, Identity{UserID: "user-1", Email: "reader@example.com"}, "price_monthly")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", res.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", res.URL)

	require.NotNil(t, sent)
	assert.Equal(t, "subscription", *sent.Mode)
	assert.Equal(t, "cus_new", *sent.Customer)
	assert.Equal(t, "user-1", *sent.ClientReferenceID)
	require.Len(t, sent.LineItems, 1)
	assert.Equal(t, "price_monthly", *sent.LineItems[0].Price)
	assert.Equal(t, int64(1), *sent.LineItems[0].Quantity)
	assert.Equal(t, checkoutCfg.SuccessURL, *sent.SuccessURL)
	assert.Equal(t, checkoutCfg.CancelURL, *sent.CancelURL)
	assert.Equal(t, "user-1", sent.Metadata["userId"])
	assert.Equal(t, "price_monthly", sent.Metadata["priceId"])
	assert.Equal(t, "user-1", sent.SubscriptionData.Metadata["userId"])

	u, err := f.store.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "cus_new", u.CustomerID())
}

func TestCheckoutFactory_ReusesLinkedCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.LinkCustomer(ctx, "user-1", "cus_existing")
	require.NoError(t, err)

	f.proc.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p *stripe.CheckoutSessionParams) bool {
		return *p.Customer == "cus_existing"
	})).Return(&stripe.CheckoutSession{ID: "cs_2", URL: "https://checkout.stripe.com/c/cs_2"}, nil)

	res, err := newFactory(f, checkoutCfg).Create(ctx, Identity{UserID: "user-1"}, "price_monthly")
	require.NoError(t, err)
	assert.Equal(t, "cs_2", res.SessionID)
	f.proc.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckoutFactory_ConcurrentLinkWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// another request links its customer between the read and the link
	f.proc.On("CreateCustomer", mock.Anything, "user-1", "").
		Run(func(mock.Arguments) {
			_, _ = f.store.LinkCustomer(ctx, "user-1", "cus_winner")
		}).
		Return(&stripe.Customer{ID: "cus_loser"}, nil)
	f.proc.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p *stripe.CheckoutSessionParams) bool {
		return *p.Customer == "cus_winner"
	})).Return(&stripe.CheckoutSession{ID: "cs_3"}, nil)

	_, err := newFactory(f, checkoutCfg).Create(ctx, Identity{UserID: "user-1"}, "price_monthly")
	require.NoError(t, err)
}

func TestCheckoutFactory_ProcessorFailure(t *testing.T) {
	f := newFixture(t)
	f.proc.On("CreateCustomer", mock.Anything, "user-1", "").Return(&stripe.Customer{ID: "cus_1"}, nil)
	f.proc.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("card_declined"))

	_, err := newFactory(f, checkoutCfg).Create(context.Background(), Identity{UserID: "user-1"}, "price_monthly")
	assert.Equal(t, apperr.KindUpstreamFailure, apperr.KindOf(err))
}

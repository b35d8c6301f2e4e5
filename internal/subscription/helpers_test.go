package subscription

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"summarist-billing/database"
)

var (
	testNow       = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	testPeriodEnd = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
)

type processorMock struct {
	mock.Mock
}

func (m *processorMock) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	args := m.Called(ctx, id)
	sub, _ := args.Get(0).(*stripe.Subscription)
	return sub, args.Error(1)
}

func (m *processorMock) GetCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	args := m.Called(ctx, id)
	cus, _ := args.Get(0).(*stripe.Customer)
	return cus, args.Error(1)
}

func (m *processorMock) GetProduct(ctx context.Context, id string) (*stripe.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*stripe.Product)
	return p, args.Error(1)
}

func (m *processorMock) SetCustomerUserID(ctx context.Context, customerID, userID string) error {
	return m.Called(ctx, customerID, userID).Error(0)
}

func (m *processorMock) CreateCustomer(ctx context.Context, userID, email string) (*stripe.Customer, error) {
	args := m.Called(ctx, userID, email)
	cus, _ := args.Get(0).(*stripe.Customer)
	return cus, args.Error(1)
}

func (m *processorMock) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(ctx, params)
	s, _ := args.Get(0).(*stripe.CheckoutSession)
	return s, args.Error(1)
}

type fixture struct {
	proc  *processorMock
	store *database.MemoryStore
	rec   *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	proc := &processorMock{}
	t.Cleanup(func() { proc.AssertExpectations(t) })
	clock := func() time.Time { return testNow }
	store := database.NewMemoryStore(database.WithMemoryClock(clock))
	return &fixture{
		proc:  proc,
		store: store,
		rec:   NewReconciler(proc, store, zap.NewNop(), WithClock(clock)),
	}
}

func monthlyPrice() *stripe.Price {
	return &stripe.Price{
		ID:       "price_monthly",
		Nickname: "Premium Monthly",
		Product:  &stripe.Product{ID: "prod_1"},
	}
}

func subscriptionFixture(status string, md map[string]string) *stripe.Subscription {
	return &stripe.Subscription{
		ID:               "sub_1",
		Status:           stripe.SubscriptionStatus(status),
		Customer:         &stripe.Customer{ID: "cus_1"},
		Metadata:         md,
		CurrentPeriodEnd: testPeriodEnd.Unix(),
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{ID: "si_1", Price: monthlyPrice()}},
		},
	}
}

func userMD(id string) map[string]string {
	return map[string]string{"userId": id}
}

// stripeEvent builds an event the way Stripe delivers it.
func stripeEvent(t *testing.T, id, typ string, obj any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":     id,
		"object": "event",
		"type":   typ,
		"data":   map[string]any{"object": obj},
	})
	require.NoError(t, err)

	var evt stripe.Event
	require.NoError(t, json.Unmarshal(raw, &evt))
	return evt
}

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
)

func TestLinkageResolver_SubscriptionMetadata(t *testing.T) {
	f := newFixture(t)
	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(subscriptionFixture("active", userMD("user-1")), nil)

	res, err := NewLinkageResolver(f.proc, f.store, zap.NewNop()).
		Resolve(context.Background(), Lookup{SubscriptionID: "sub_1", CustomerID: "cus_1"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", res.UserID)
	assert.Equal(t, SourceSubscriptionMetadata, res.Source)
	assert.NotNil(t, res.Subscription)
	f.proc.AssertNotCalled(t, "GetCustomer", mock.Anything, mock.Anything)
}

func TestLinkageResolver_CustomerMetadataAfterSubscriptionFails(t *testing.T) {
	f := newFixture(t)
	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(nil, errors.New("boom"))
	f.proc.On("GetCustomer", mock.Anything, "cus_1").Return(&stripe.Customer{ID: "cus_1", Metadata: userMD("user-2")}, nil)

	res, err := NewLinkageResolver(f.proc, f.store, zap.NewNop()).
		Resolve(context.Background(), Lookup{SubscriptionID: "sub_1", CustomerID: "cus_1"})
	require.NoError(t, err)
	assert.Equal(t, "user-2", res.UserID)
	assert.Equal(t, SourceCustomerMetadata, res.Source)
}

func TestLinkageResolver_CustomerTakenFromSubscription(t *testing.T) {
	f := newFixture(t)
	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(subscriptionFixture("active", nil), nil)
	f.proc.On("GetCustomer", mock.Anything, "cus_1").Return(&stripe.Customer{ID: "cus_1", Metadata: userMD("user-3")}, nil)

	res, err := NewLinkageResolver(f.proc, f.store, zap.NewNop()).
		Resolve(context.Background(), Lookup{SubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.Equal(t, "user-3", res.UserID)
}

func TestLinkageResolver_StoreAfterCustomerFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.LinkCustomer(ctx, "user-4", "cus_1")
	require.NoError(t, err)

	f.proc.On("GetCustomer", mock.Anything, "cus_1").
		Return(nil, apperr.Wrap(apperr.KindNotFound, "stripe.GetCustomer", errors.New("missing")))

	res, err := NewLinkageResolver(f.proc, f.store, zap.NewNop()).Resolve(ctx, Lookup{CustomerID: "cus_1"})
	require.NoError(t, err)
	assert.Equal(t, "user-4", res.UserID)
	assert.Equal(t, SourceStore, res.Source)
}

func TestLinkageResolver_DeletedCustomerIgnored(t *testing.T) {
	f := newFixture(t)
	f.proc.On("GetCustomer", mock.Anything, "cus_1").
		Return(&stripe.Customer{ID: "cus_1", Deleted: true, Metadata: userMD("ghost")}, nil)

	_, err := NewLinkageResolver(f.proc, f.store, zap.NewNop()).
		Resolve(context.Background(), Lookup{CustomerID: "cus_1"})
	assert.Equal(t, apperr.KindLinkageUnresolved, apperr.KindOf(err))
}

func TestLinkageResolver_AllAttemptsEmpty(t *testing.T) {
	f := newFixture(t)
	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(subscriptionFixture("active", nil), nil)
	f.proc.On("GetCustomer", mock.Anything, "cus_1").Return(&stripe.Customer{ID: "cus_1"}, nil)

	_, err := NewLinkageResolver(f.proc, f.store, zap.NewNop()).
		Resolve(context.Background(), Lookup{SubscriptionID: "sub_1", CustomerID: "cus_1"})
	assert.Equal(t, apperr.KindLinkageUnresolved, apperr.KindOf(err))
}

func TestLinkageResolver_OutageIsRetryable(t *testing.T) {
	f := newFixture(t)
	outage := apperr.Upstream("stripe.GetSubscription", errors.New("503"))
	f.proc.On("GetSubscription", mock.Anything, "sub_1").Return(nil, outage)

	_, err := NewLinkageResolver(f.proc, f.store, zap.NewNop()).
		Resolve(context.Background(), Lookup{SubscriptionID: "sub_1"})
	assert.Equal(t, apperr.KindUpstreamFailure, apperr.KindOf(err))
}

func TestLinkageResolver_NothingToLookUp(t *testing.T) {
	f := newFixture(t)
	_, err := NewLinkageResolver(f.proc, f.store, zap.NewNop()).Resolve(context.Background(), Lookup{})
	assert.Equal(t, apperr.KindLinkageUnresolved, apperr.KindOf(err))
}

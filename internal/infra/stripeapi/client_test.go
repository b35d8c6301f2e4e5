package stripeapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/infra/stripeapi/stripetest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{
		SecretKey:   "sk_test_123",
		Timeout:     2 * time.Second,
		MaxFailures: 2,
		OpenTimeout: time.Minute,
		Backends:    stripetest.Backends(srv),
	}, zap.NewNop())
	return c, srv
}

func TestGetSubscription_DecodesExpandedItems(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/subscriptions/sub_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		stripetest.JSON(w, http.StatusOK, `{
			"id": "sub_123",
			"object": "subscription",
			"status": "active",
			"customer": "cus_123",
			"current_period_end": 1767225600,
			"metadata": {"userId": "user-1"},
			"items": {"object": "list", "data": [
				{"id": "si_1", "object": "subscription_item",
				 "price": {"id": "price_monthly", "object": "price", "nickname": "Premium Monthly",
				           "product": {"id": "prod_1", "object": "product", "name": "Summarist Premium"}}}
			]}
		}`)
	})

	sub, err := c.GetSubscription(context.Background(), "sub_123")
	require.NoError(t, err)
	assert.Equal(t, "active", string(sub.Status))
	assert.Equal(t, "cus_123", sub.Customer.ID)
	assert.Equal(t, "user-1", sub.Metadata["userId"])
	require.Len(t, sub.Items.Data, 1)
	assert.Equal(t, "Premium Monthly", sub.Items.Data[0].Price.Nickname)
	assert.Equal(t, "Summarist Premium", sub.Items.Data[0].Price.Product.Name)
}

func TestGetCustomer_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		stripetest.JSON(w, http.StatusNotFound, `{"error": {"type": "invalid_request_error", "code": "resource_missing", "message": "No such customer"}}`)
	})

	_, err := c.GetCustomer(context.Background(), "cus_missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestBreaker_OpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		stripetest.JSON(w, http.StatusInternalServerError, `{"error": {"type": "api_error", "message": "boom"}}`)
	})

	for i := 0; i < 2; i++ {
		_, err := c.GetProduct(context.Background(), "prod_1")
		assert.Equal(t, apperr.KindUpstreamFailure, apperr.KindOf(err))
	}

	_, err := c.GetProduct(context.Background(), "prod_1")
	assert.Equal(t, apperr.KindUpstreamFailure, apperr.KindOf(err))
	assert.Equal(t, int32(2), hits.Load(), "open breaker must short-circuit the third call")
}

func TestBreaker_IgnoresNotFound(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		stripetest.JSON(w, http.StatusNotFound, `{"error": {"type": "invalid_request_error", "code": "resource_missing"}}`)
	})

	for i := 0; i < 4; i++ {
		_, _ = c.GetCustomer(context.Background(), "cus_missing")
	}
	assert.Equal(t, int32(4), hits.Load())
}

func TestCreateCustomer_SendsIdempotencyKeyAndMetadata(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/customers", r.URL.Path)
		assert.Equal(t, "customer-create-user-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "user-1", r.PostForm.Get("metadata[userId]"))
		assert.Equal(t, "reader@example.com", r.PostForm.Get("email"))
		stripetest.JSON(w, http.StatusOK, `{"id": "cus_new", "object": "customer", "metadata": {"userId": "user-1"}}`)
	})

	cus, err := c.CreateCustomer(context.Background(), "user-1", "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_new", cus.ID)
}

func TestAPI_BuiltOnce(t *testing.T) {
	c := New(Config{SecretKey: "sk_test"}, zap.NewNop())
	assert.Same(t, c.API(), c.API())
}

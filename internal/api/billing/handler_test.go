package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"summarist-billing/database"
	"summarist-billing/internal/apperr"
	"summarist-billing/internal/app/http/middleware"
	"summarist-billing/internal/domain/billing"
	"summarist-billing/internal/subscription"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCheckout struct {
	gotID    subscription.Identity
	gotPrice string
	res      *subscription.CheckoutResult
	err      error
}

func (f *fakeCheckout) Create(_ context.Context, id subscription.Identity, priceID string) (*subscription.CheckoutResult, error) {
	f.gotID, f.gotPrice = id, priceID
	return f.res, f.err
}

type fakePortal struct {
	gotCustomer string
}

func (f *fakePortal) CreatePortalSession(_ context.Context, customerID, _ string) (*stripe.BillingPortalSession, error) {
	f.gotCustomer = customerID
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.com/p/session_1"}, nil
}

func newRouter(h *Handler, userID string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextUserID, userID)
			c.Set(middleware.ContextEmail, "reader@example.com")
		}
		c.Next()
	})
	r.POST("/create-checkout-session", h.CreateCheckoutSession)
	r.POST("/billing-portal", h.CreateBillingPortal)
	r.GET("/payments", h.GetPaymentHistory)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateCheckoutSession(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"unauthenticated", `{"priceId":"price_monthly"}`, apperr.Unauthenticated("checkout.Create", "authentication required"), http.StatusUnauthorized},
		{"missing price", `{}`, apperr.InvalidArgument("checkout.Create", "priceId is required"), http.StatusBadRequest},
		{"processor failure", `{"priceId":"price_monthly"}`, apperr.Upstream("checkout.Create", errors.New("stripe down")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&fakeCheckout{err: tt.err}, &fakePortal{}, database.NewMemoryStore(), "", zap.NewNop())
			w := do(newRouter(h, "user-1"), http.MethodPost, "/create-checkout-session", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestCreateCheckoutSession_Success(t *testing.T) {
	fc := &fakeCheckout{res: &subscription.CheckoutResult{SessionID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}}
	h := New(fc, &fakePortal{}, database.NewMemoryStore(), "", zap.NewNop())

	w := do(newRouter(h, "user-1"), http.MethodPost, "/create-checkout-session", `{"priceId":"price_monthly"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessionId":"cs_1","url":"https://checkout.stripe.com/c/cs_1"}`, w.Body.String())
	assert.Equal(t, subscription.Identity{UserID: "user-1", Email: "reader@example.com"}, fc.gotID)
	assert.Equal(t, "price_monthly", fc.gotPrice)
}

func TestCreateCheckoutSession_LegacyField(t *testing.T) {
	fc := &fakeCheckout{res: &subscription.CheckoutResult{SessionID: "cs_1"}}
	h := New(fc, &fakePortal{}, database.NewMemoryStore(), "", zap.NewNop())

	w := do(newRouter(h, "user-1"), http.MethodPost, "/create-checkout-session", `{"price_id":"price_yearly"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "price_yearly", fc.gotPrice)
}

func TestCreateCheckoutSession_MalformedJSON(t *testing.T) {
	h := New(&fakeCheckout{}, &fakePortal{}, database.NewMemoryStore(), "", zap.NewNop())
	w := do(newRouter(h, "user-1"), http.MethodPost, "/create-checkout-session", `{"priceId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBillingPortal(t *testing.T) {
	store := database.NewMemoryStore()
	portal := &fakePortal{}
	h := New(&fakeCheckout{}, portal, store, "https://app.example.com/settings", zap.NewNop())

	w := do(newRouter(h, "user-1"), http.MethodPost, "/billing-portal", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	_, err := store.LinkCustomer(context.Background(), "user-1", "cus_1")
	require.NoError(t, err)
	w = do(newRouter(h, "user-1"), http.MethodPost, "/billing-portal", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cus_1", portal.gotCustomer)
	assert.JSONEq(t, `{"url":"https://billing.stripe.com/p/session_1"}`, w.Body.String())

	w = do(newRouter(h, ""), http.MethodPost, "/billing-portal", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetPaymentHistory(t *testing.T) {
	store := database.NewMemoryStore()
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordPayment(context.Background(), billing.Payment{
		InvoiceID: "in_1", UserID: "user-1", AmountMinor: 999, Currency: "usd",
		Status: billing.PaymentStatusPaid, InvoiceCreatedAt: at,
	}))
	h := New(&fakeCheckout{}, &fakePortal{}, store, "", zap.NewNop())

	w := do(newRouter(h, "user-1"), http.MethodGet, "/payments", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"invoice_id":"in_1","amount":"9.99","amount_minor":999,"currency":"usd","status":"paid","invoiced_at":"2026-03-01T00:00:00Z"}]`, w.Body.String())

	w = do(newRouter(h, "user-2"), http.MethodGet, "/payments", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

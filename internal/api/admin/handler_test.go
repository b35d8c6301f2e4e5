package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"summarist-billing/database"
	"summarist-billing/internal/domain/billing"
	"summarist-billing/internal/domain/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	_, err := store.LinkCustomer(ctx, "user-1", "cus_1")
	require.NoError(t, err)
	require.NoError(t, store.MergeUser(ctx, "user-1", users.NewPatch().SetStatus("active")))
	require.NoError(t, store.RecordPayment(ctx, billing.Payment{InvoiceID: "in_1", UserID: "user-1"}))

	h := New(store, zap.NewNop())
	r := gin.New()
	r.GET("/admin/user/:id", h.GetUserDetails)
	r.GET("/admin/customers/:customerId", h.GetUserByCustomer)

	for _, path := range []string{"/admin/user/user-1", "/admin/customers/cus_1"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)

		var out UserDetails
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, "user-1", out.User.ID)
		assert.Equal(t, users.RolePremium, out.User.Role)
		assert.Len(t, out.Payments, 1)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/customers/cus_missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	adminapi "summarist-billing/internal/api/admin"
	"summarist-billing/internal/api/billing"
	"summarist-billing/internal/api/plans"
	stripewebhooks "summarist-billing/internal/api/stripewebhook"
	"summarist-billing/internal/api/users"
	"summarist-billing/internal/app/http/middleware"
)

type Handlers struct {
	Webhook  *stripewebhooks.Handler
	Billing  *billing.Handler
	Users    *users.Handler
	Plans    *plans.Handler
	Admin    *adminapi.Handler
	Verifier middleware.TokenVerifier
	Log      *zap.Logger
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	// raw body: the signature covers the exact bytes
	r.POST("/webhook", h.Webhook.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/plans", h.Plans.ListPlans)

	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(h.Verifier, h.Log), middleware.SanitizeAndCleanInputMiddleware())
	auth.GET("/me/subscription", h.Users.GetSubscription)
	auth.GET("/payments", h.Billing.GetPaymentHistory)
	auth.POST("/create-checkout-session", h.Billing.CreateCheckoutSession)
	auth.POST("/billing-portal", h.Billing.CreateBillingPortal)

	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(h.Verifier, h.Log), middleware.RequireRole("admin"))
	admin.POST("/sync-plans", h.Plans.SyncPlansFromStripe)
	admin.GET("/user/:id", h.Admin.GetUserDetails)
	admin.GET("/customers/:customerId", h.Admin.GetUserByCustomer)
}

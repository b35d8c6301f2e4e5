package billing

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/app/http/middleware"
	"summarist-billing/internal/domain/users"
	"summarist-billing/internal/subscription"
)

type CheckoutCreator interface {
	Create(ctx context.Context, id subscription.Identity, priceID string) (*subscription.CheckoutResult, error)
}

type PortalCreator interface {
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error)
}

type Handler struct {
	checkout  CheckoutCreator
	portal    PortalCreator
	repo      users.Repository
	returnURL string
	log       *zap.Logger
}

func New(checkout CheckoutCreator, portal PortalCreator, repo users.Repository, returnURL string, log *zap.Logger) *Handler {
	return &Handler{checkout: checkout, portal: portal, repo: repo, returnURL: returnURL, log: log}
}

func identity(c *gin.Context) subscription.Identity {
	return subscription.Identity{
		UserID: c.GetString(middleware.ContextUserID),
		Email:  c.GetString(middleware.ContextEmail),
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": apperr.PublicMessage(err)})
}

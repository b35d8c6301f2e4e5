package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
)

type checkoutRequest struct {
	PriceID       string `json:"priceId"`
	LegacyPriceID string `json:"price_id"`
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON"})
		return
	}
	priceID := body.PriceID
	if priceID == "" {
		priceID = body.LegacyPriceID
	}

	res, err := h.checkout.Create(c.Request.Context(), identity(c), priceID)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInvalidArgument {
			h.log.Error("checkout failed", zap.Error(err))
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) CreateBillingPortal(c *gin.Context) {
	id := identity(c)
	if id.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	u, err := h.repo.GetUser(c.Request.Context(), id.UserID)
	if err != nil || u.CustomerID() == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "No Stripe customer yet (subscribe first)"})
		return
	}

	portal, err := h.portal.CreatePortalSession(c.Request.Context(), u.CustomerID(), h.returnURL)
	if err != nil {
		h.log.Error("billing portal failed", zap.String("user_id", id.UserID), zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": portal.URL})
}

package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"summarist-billing/internal/app/http/middleware"
	"summarist-billing/internal/domain/plans"
	"summarist-billing/internal/domain/users"
)

type Handler struct {
	repo    users.Repository
	catalog plans.Catalog
	log     *zap.Logger
}

func New(repo users.Repository, catalog plans.Catalog, log *zap.Logger) *Handler {
	return &Handler{repo: repo, catalog: catalog, log: log}
}

// GetSubscription returns the caller's subscription record. A user the
// webhook has never written is reported as free.
func (h *Handler) GetSubscription(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	u, err := h.repo.GetUser(c.Request.Context(), userID)
	switch {
	case errors.Is(err, users.ErrNotFound):
		u = &users.User{ID: userID, Role: users.RoleFree}
	case err != nil:
		h.log.Error("load user failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load subscription"})
		return
	}

	role := u.Role
	if role == "" {
		role = users.RoleFree
	}
	c.JSON(http.StatusOK, MeSubscriptionResponse{
		UserID:       u.ID,
		Role:         string(role),
		IsPremium:    role == users.RolePremium,
		Subscription: BuildSubscriptionDTO(c.Request.Context(), h.catalog, u),
		LastPayment:  BuildLastPaymentDTO(u),
	})
}

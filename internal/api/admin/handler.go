package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"summarist-billing/internal/domain/billing"
	"summarist-billing/internal/domain/users"
)

// Handler serves support lookups over subscription records.
type Handler struct {
	repo users.Repository
	log  *zap.Logger
}

func New(repo users.Repository, log *zap.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

type UserDetails struct {
	User     *users.User       `json:"user"`
	Payments []billing.Payment `json:"payments"`
}

func (h *Handler) GetUserDetails(c *gin.Context) {
	u, err := h.repo.GetUser(c.Request.Context(), c.Param("id"))
	h.respond(c, u, err)
}

func (h *Handler) GetUserByCustomer(c *gin.Context) {
	u, err := h.repo.FindByCustomerID(c.Request.Context(), c.Param("customerId"))
	h.respond(c, u, err)
}

func (h *Handler) respond(c *gin.Context, u *users.User, err error) {
	if errors.Is(err, users.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.log.Error("admin user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	payments, err := h.repo.ListPayments(c.Request.Context(), u.ID)
	if err != nil {
		h.log.Error("admin payments lookup failed", zap.String("user_id", u.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}
	if payments == nil {
		payments = []billing.Payment{}
	}
	c.JSON(http.StatusOK, UserDetails{User: u, Payments: payments})
}

package billing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"summarist-billing/internal/domain/billing"
)

type PaymentDTO struct {
	InvoiceID   string    `json:"invoice_id"`
	Amount      string    `json:"amount"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	ReceiptURL  *string   `json:"receipt_url,omitempty"`
	InvoicedAt  time.Time `json:"invoiced_at"`
}

func (h *Handler) GetPaymentHistory(c *gin.Context) {
	userID := identity(c).UserID
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payments, err := h.repo.ListPayments(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("list payments failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	out := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		out = append(out, PaymentDTO{
			InvoiceID:   p.InvoiceID,
			Amount:      billing.FormatAmount(p.AmountMinor, p.Currency),
			AmountMinor: p.AmountMinor,
			Currency:    p.Currency,
			Status:      p.Status,
			ReceiptURL:  p.ReceiptURL,
			InvoicedAt:  p.InvoiceCreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

package stripewebhooks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/infra/eventledger"
	"summarist-billing/internal/infra/stripeapi"
	"summarist-billing/internal/subscription"
)

const maxBodyBytes = 65536

type Reconciler interface {
	Reconcile(ctx context.Context, ev subscription.Event) (subscription.Outcome, error)
}

type Handler struct {
	secret     string
	reconciler Reconciler
	ledger     eventledger.Ledger
	timeout    time.Duration
	log        *zap.Logger
}

func New(secret string, r Reconciler, ledger eventledger.Ledger, timeout time.Duration, log *zap.Logger) *Handler {
	if ledger == nil {
		ledger = eventledger.Noop{}
	}
	return &Handler{secret: secret, reconciler: r, ledger: ledger, timeout: timeout, log: log}
}

// StripeWebhook verifies and reconciles one Stripe event. Any non-2xx
// response makes Stripe redeliver, so only retryable failures return 5xx.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := stripeapi.VerifyEvent(payload, c.GetHeader("Stripe-Signature"), h.secret)
	if err != nil {
		h.log.Warn("stripe webhook rejected", zap.Error(err), zap.String("remote_ip", c.ClientIP()))
		c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	log := h.log.With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))

	seen, err := h.ledger.Seen(ctx, event.ID)
	if err != nil {
		log.Warn("event ledger unavailable", zap.Error(err))
	}
	if seen {
		log.Info("duplicate event acknowledged")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ev, err := subscription.ParseEvent(event)
	if err != nil {
		log.Warn("stripe event data unreadable", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	outcome, err := h.reconciler.Reconcile(ctx, ev)
	if err != nil {
		status := apperr.HTTPStatus(apperr.KindOf(err))
		if status < http.StatusInternalServerError && status != http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		log.Error("stripe event not reconciled", zap.Error(err), zap.Int("status", status))
		c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
		return
	}

	if err := h.ledger.Mark(ctx, event.ID); err != nil {
		log.Warn("event ledger mark failed", zap.Error(err))
	}
	log.Debug("stripe event handled", zap.String("outcome", string(outcome)))
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}

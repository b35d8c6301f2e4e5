package plans

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/domain/billing"
	"summarist-billing/internal/domain/plans"
	"summarist-billing/internal/subscription"
)

type Syncer interface {
	Run(ctx context.Context) (subscription.SyncReport, error)
}

type Handler struct {
	syncer    Syncer
	catalog   plans.Catalog
	productID string
	log       *zap.Logger
}

func New(syncer Syncer, catalog plans.Catalog, productID string, log *zap.Logger) *Handler {
	return &Handler{syncer: syncer, catalog: catalog, productID: productID, log: log}
}

type PlanDTO struct {
	PriceID   string `json:"price_id"`
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Interval  string `json:"interval"`
	TrialDays int64  `json:"trial_days"`
}

func (h *Handler) SyncPlansFromStripe(c *gin.Context) {
	report, err := h.syncer.Run(c.Request.Context())
	if err != nil {
		h.log.Error("plan sync failed", zap.Error(err))
		c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": "Failed to sync plans", "synced": report.Synced})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) ListPlans(c *gin.Context) {
	list, err := h.catalog.ListPlans(c.Request.Context(), h.productID)
	if err != nil {
		h.log.Error("list plans failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}

	out := make([]PlanDTO, 0, len(list))
	for i := range list {
		p := &list[i]
		out = append(out, PlanDTO{
			PriceID:   p.StripePriceID,
			Name:      plans.DisplayName(p),
			Amount:    billing.FormatAmount(p.AmountMinor, p.Currency),
			Currency:  p.Currency,
			Interval:  p.Interval,
			TrialDays: p.TrialDays,
		})
	}
	c.JSON(http.StatusOK, out)
}

package subscription

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/domain/plans"
)

type PriceLister interface {
	ListRecurringPrices(ctx context.Context, productID string) ([]*stripe.Price, error)
}

type SyncReport struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
}

// PlanSync copies active recurring Stripe prices into the plan catalog.
type PlanSync struct {
	prices    PriceLister
	catalog   plans.Catalog
	productID string
	log       *zap.Logger
}

func NewPlanSync(prices PriceLister, catalog plans.Catalog, productID string, log *zap.Logger) *PlanSync {
	return &PlanSync{prices: prices, catalog: catalog, productID: productID, log: log}
}

func (s *PlanSync) Run(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	prices, err := s.prices.ListRecurringPrices(ctx, s.productID)
	if err != nil {
		return report, err
	}

	for _, p := range prices {
		plan, ok := planFromPrice(p)
		if !ok || (s.productID != "" && plan.StripeProductID != s.productID) {
			report.Skipped++
			continue
		}
		if err := s.catalog.UpsertPlan(ctx, plan); err != nil {
			return report, apperr.Upstream("plans.Sync", err)
		}
		report.Synced++
	}

	s.log.Info("plans synced",
		zap.Int("synced", report.Synced),
		zap.Int("skipped", report.Skipped),
		zap.String("product_id", s.productID),
	)
	return report, nil
}

func planFromPrice(p *stripe.Price) (plans.Plan, bool) {
	if p == nil || !p.Active || p.Recurring == nil || p.Product == nil {
		return plans.Plan{}, false
	}
	// an expanded product carries its own active flag
	if p.Product.Name != "" && !p.Product.Active {
		return plans.Plan{}, false
	}
	if p.Metadata["visible"] == "false" {
		return plans.Plan{}, false
	}

	name := strings.TrimSpace(p.Metadata["plan"])
	if name == "" {
		name = strings.TrimSpace(p.Nickname)
	}
	if name == "" {
		name = strings.TrimSpace(p.Product.Name)
	}

	return plans.Plan{
		StripePriceID:   p.ID,
		StripeProductID: p.Product.ID,
		Name:            name,
		AmountMinor:     p.UnitAmount,
		Currency:        string(p.Currency),
		Interval:        string(p.Recurring.Interval),
		TrialDays:       p.Recurring.TrialPeriodDays,
	}, true
}

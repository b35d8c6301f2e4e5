package plans

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("plan not found")

// Plan is a Stripe recurring price offered at checkout.
type Plan struct {
	ID              uint      `gorm:"primaryKey" bson:"-" json:"-"`
	StripePriceID   string    `gorm:"column:stripe_price_id;not null;uniqueIndex:idx_plans_stripe_price_id" bson:"_id" json:"price_id"`
	StripeProductID string    `gorm:"column:stripe_product_id;index" bson:"productId" json:"product_id"`
	Name            string    `bson:"name" json:"name"`
	AmountMinor     int64     `gorm:"column:amount_minor" bson:"amountMinor" json:"amount_minor"`
	Currency        string    `gorm:"type:varchar(8)" bson:"currency" json:"currency"`
	Interval        string    `bson:"interval" json:"interval"` // "month" | "year"
	TrialDays       int64     `gorm:"column:trial_days" bson:"trialDays" json:"trial_days"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"-"`
}

// Catalog stores the plans synced from Stripe.
type Catalog interface {
	UpsertPlan(ctx context.Context, p Plan) error
	ListPlans(ctx context.Context, productID string) ([]Plan, error)
	FindByPriceID(ctx context.Context, priceID string) (*Plan, error)
}

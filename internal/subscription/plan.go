package subscription

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
)

// ProductGetter fetches a product by id.
type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (*stripe.Product, error)
}

// PlanDescriber derives a human-readable plan name from a price.
type PlanDescriber struct {
	products ProductGetter
	log      *zap.Logger
}

func NewPlanDescriber(products ProductGetter, log *zap.Logger) *PlanDescriber {
	return &PlanDescriber{products: products, log: log}
}

// Describe prefers the price nickname, then the product name. The product
// is fetched only when it arrived as a bare id. A failed fetch yields no
// name rather than an error.
func (d *PlanDescriber) Describe(ctx context.Context, price *stripe.Price) (string, bool) {
	if price == nil {
		return "", false
	}
	if nick := strings.TrimSpace(price.Nickname); nick != "" {
		return nick, true
	}
	if price.Product == nil {
		return "", false
	}
	if name := strings.TrimSpace(price.Product.Name); name != "" {
		return name, true
	}
	if price.Product.ID == "" || d.products == nil {
		return "", false
	}

	product, err := d.products.GetProduct(ctx, price.Product.ID)
	if err != nil {
		d.log.Warn("plan name lookup failed",
			zap.String("price_id", price.ID),
			zap.String("product_id", price.Product.ID),
			zap.Error(err),
		)
		return "", false
	}
	if product == nil {
		return "", false
	}
	if name := strings.TrimSpace(product.Name); name != "" {
		return name, true
	}
	return "", false
}

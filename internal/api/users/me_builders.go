package users

import (
	"context"

	"summarist-billing/internal/domain/plans"
	"summarist-billing/internal/domain/users"
	"summarist-billing/internal/infra/stripeapi"
)

func BuildSubscriptionDTO(ctx context.Context, catalog plans.Catalog, u *users.User) *SubscriptionDTO {
	if u == nil || u.SubscriptionStatus == nil || *u.SubscriptionStatus == "" {
		return nil
	}
	return &SubscriptionDTO{
		Status:               stripeapi.NormalizeStatus(u.SubscriptionStatus),
		RawStatus:            *u.SubscriptionStatus,
		Plan:                 planLabel(ctx, catalog, u),
		PriceID:              u.PriceID,
		CurrentPeriodEnd:     u.CurrentPeriodEnd,
		StripeSubscriptionID: u.StripeSubscriptionID,
		UpdatedAt:            u.SubscriptionUpdatedAt,
	}
}

// planLabel prefers the stored plan name, then the catalog entry for the
// price, then whatever plan value was recorded.
func planLabel(ctx context.Context, catalog plans.Catalog, u *users.User) string {
	if u.SubscriptionPlanName != nil && *u.SubscriptionPlanName != "" {
		return *u.SubscriptionPlanName
	}
	if catalog != nil && u.PriceID != nil && *u.PriceID != "" {
		if p, err := catalog.FindByPriceID(ctx, *u.PriceID); err == nil {
			return plans.DisplayName(p)
		}
	}
	if u.SubscriptionPlan != nil {
		return *u.SubscriptionPlan
	}
	return ""
}

func BuildLastPaymentDTO(u *users.User) *LastPaymentDTO {
	if u == nil || u.LastPaymentStatus == nil {
		return nil
	}
	return &LastPaymentDTO{
		InvoiceID: u.LastInvoiceID,
		Status:    *u.LastPaymentStatus,
		PaidAt:    u.LastPaymentAt,
	}
}

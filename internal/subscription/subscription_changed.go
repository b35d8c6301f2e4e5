package subscription

import (
	"context"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/domain/users"
	"summarist-billing/internal/infra/stripeapi"
)

const (
	statusCanceled = "canceled"
	statusPaused   = "paused"
)

func (r *Reconciler) subscriptionChanged(ctx context.Context, e SubscriptionChanged) (*Mutation, error) {
	sub := e.Subscription
	if sub == nil || sub.ID == "" {
		return nil, apperr.InvalidArgument("subscription.changed", "event has no subscription id")
	}

	custID := customerID(sub.Customer)
	userID := metadataUserID(sub.Metadata)
	if userID == "" {
		res, err := r.linkage.Resolve(ctx, Lookup{CustomerID: custID})
		if err != nil {
			return nil, err
		}
		userID = res.UserID
		r.log.Debug("user resolved", zap.String("source", string(res.Source)), zap.String("user_id", userID))
	}

	return &Mutation{
		UserID:     userID,
		CustomerID: custID,
		Patch:      r.subscriptionPatch(ctx, sub, e.Kind()),
	}, nil
}

// subscriptionPatch maps a subscription onto the record. Checkout completion
// and subscription events share it so the final record does not depend on
// which of them lands last.
func (r *Reconciler) subscriptionPatch(ctx context.Context, sub *stripe.Subscription, kind Kind) *users.Patch {
	p := users.NewPatch()

	status := string(sub.Status)
	if status == "" {
		switch kind {
		case KindSubscriptionDeleted:
			status = statusCanceled
		case KindSubscriptionPaused:
			status = statusPaused
		}
	}
	if status != "" {
		p.SetStatus(status)
	}
	p.SetIfPresent(users.FieldStripeSubscriptionID, sub.ID)

	r.planFields(ctx, p, firstPrice(sub))

	if end, ok := periodEnd(sub); ok && stripeapi.HasActivePeriod(status) {
		p.SetTime(users.FieldCurrentPeriodEnd, end)
	} else {
		p.Clear(users.FieldCurrentPeriodEnd)
	}
	return p
}

// planFields records the price, product and plan name. Without a resolvable
// name the plan falls back to the raw price id and any stored name is
// cleared, since it described an earlier price.
func (r *Reconciler) planFields(ctx context.Context, p *users.Patch, price *stripe.Price) {
	if price == nil {
		return
	}
	p.Set(users.FieldPriceID, price.ID)
	p.SetIfPresent(users.FieldProductID, productID(price))

	if name, ok := r.plans.Describe(ctx, price); ok {
		p.Set(users.FieldSubscriptionPlan, name)
		p.Set(users.FieldSubscriptionPlanName, name)
		return
	}
	p.Set(users.FieldSubscriptionPlan, price.ID)
	p.Clear(users.FieldSubscriptionPlanName)
}

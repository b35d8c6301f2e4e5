package subscription

import (
	"context"

	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/domain/users"
)

func (r *Reconciler) checkoutCompleted(ctx context.Context, e CheckoutCompleted) (*Mutation, error) {
	s := e.Session
	if s == nil {
		return nil, apperr.InvalidArgument("subscription.checkoutCompleted", "event has no session")
	}

	userID := metadataUserID(s.Metadata)
	if userID == "" {
		userID = s.ClientReferenceID
	}
	custID := customerID(s.Customer)
	subID := subscriptionID(s.Subscription)

	if subID == "" {
		return r.linkOnly(ctx, userID, custID)
	}

	sub, err := r.processor.GetSubscription(ctx, subID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			r.log.Warn("checkout subscription not found, linking customer only",
				zap.String("subscription_id", subID), zap.Error(err))
			return r.linkOnly(ctx, userID, custID)
		}
		return nil, err
	}

	subUser := metadataUserID(sub.Metadata)
	switch {
	case userID == "":
		userID = subUser
	case subUser != "" && subUser != userID:
		r.log.Warn("session and subscription disagree on user, using session",
			zap.String("session_user_id", userID),
			zap.String("subscription_user_id", subUser),
			zap.String("subscription_id", subID),
		)
	}
	if custID == "" {
		custID = customerID(sub.Customer)
	}
	if userID == "" {
		res, err := r.linkage.Resolve(ctx, Lookup{CustomerID: custID})
		if err != nil {
			return nil, err
		}
		userID = res.UserID
	}

	r.backfillCustomer(ctx, custID, userID)

	return &Mutation{
		UserID:     userID,
		CustomerID: custID,
		Patch:      r.subscriptionPatch(ctx, sub, e.Kind()),
	}, nil
}

// linkOnly handles a session without a subscription: only the customer link
// is written.
func (r *Reconciler) linkOnly(ctx context.Context, userID, custID string) (*Mutation, error) {
	if custID == "" {
		return nil, nil
	}
	if userID == "" {
		res, err := r.linkage.Resolve(ctx, Lookup{CustomerID: custID})
		if err != nil {
			return nil, err
		}
		userID = res.UserID
	}
	return &Mutation{UserID: userID, CustomerID: custID, Patch: users.NewPatch()}, nil
}

// backfillCustomer tags the customer with userID when it carries no link so
// later invoice events resolve from customer metadata.
func (r *Reconciler) backfillCustomer(ctx context.Context, custID, userID string) {
	if custID == "" || userID == "" {
		return
	}
	cus, err := r.processor.GetCustomer(ctx, custID)
	if err != nil {
		r.log.Warn("customer backfill lookup failed", zap.String("customer_id", custID), zap.Error(err))
		return
	}
	if customerUserID(cus) != "" || (cus != nil && cus.Deleted) {
		return
	}
	if err := r.processor.SetCustomerUserID(ctx, custID, userID); err != nil {
		r.log.Warn("customer backfill failed", zap.String("customer_id", custID), zap.Error(err))
	}
}

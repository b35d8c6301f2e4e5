package subscription

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/domain/users"
)

// Source records which lookup produced a user id.
type Source string

const (
	SourceSubscriptionMetadata Source = "subscription_metadata"
	SourceCustomerMetadata     Source = "customer_metadata"
	SourceStore                Source = "store"
)

// Lookup names the Stripe references available on an event.
type Lookup struct {
	SubscriptionID string
	CustomerID     string
}

type Resolution struct {
	UserID string
	Source Source

	// Subscription is set when the resolver fetched it, so callers can
	// reuse it.
	Subscription *stripe.Subscription
}

type LinkageResolver struct {
	processor Processor
	repo      users.Repository
	log       *zap.Logger
}

func NewLinkageResolver(p Processor, repo users.Repository, log *zap.Logger) *LinkageResolver {
	return &LinkageResolver{processor: p, repo: repo, log: log}
}

// Resolve tries subscription metadata, customer metadata and the store's
// reverse index in that order. A failing attempt is logged and the next one
// runs. When nothing resolves, the error is UpstreamFailure if an attempt
// hit an outage and LinkageUnresolved otherwise.
func (l *LinkageResolver) Resolve(ctx context.Context, q Lookup) (Resolution, error) {
	const op = "subscription.ResolveUser"
	var (
		res    Resolution
		outage error
	)
	note := func(step string, err error) {
		l.log.Warn("user lookup failed",
			zap.String("step", step),
			zap.String("subscription_id", q.SubscriptionID),
			zap.String("customer_id", q.CustomerID),
			zap.Error(err),
		)
		if apperr.Is(err, apperr.KindUpstreamFailure) && outage == nil {
			outage = err
		}
	}

	if q.SubscriptionID != "" {
		sub, err := l.processor.GetSubscription(ctx, q.SubscriptionID)
		switch {
		case err != nil:
			note(string(SourceSubscriptionMetadata), err)
		case sub != nil:
			res.Subscription = sub
			if uid := metadataUserID(sub.Metadata); uid != "" {
				res.UserID, res.Source = uid, SourceSubscriptionMetadata
				return res, nil
			}
			if q.CustomerID == "" {
				q.CustomerID = customerID(sub.Customer)
			}
		}
	}

	if q.CustomerID != "" {
		cus, err := l.processor.GetCustomer(ctx, q.CustomerID)
		if err != nil {
			note(string(SourceCustomerMetadata), err)
		} else if uid := customerUserID(cus); uid != "" {
			res.UserID, res.Source = uid, SourceCustomerMetadata
			return res, nil
		}

		u, err := l.repo.FindByCustomerID(ctx, q.CustomerID)
		switch {
		case errors.Is(err, users.ErrNotFound):
		case err != nil:
			note(string(SourceStore), apperr.Upstream("users.FindByCustomerID", err))
		case u != nil && u.ID != "":
			res.UserID, res.Source = u.ID, SourceStore
			return res, nil
		}
	}

	if outage != nil {
		return res, apperr.Upstream(op, outage)
	}
	return res, apperr.New(apperr.KindLinkageUnresolved, op, "no user linked to stripe objects")
}

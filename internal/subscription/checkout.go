package subscription

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/domain/plans"
	"summarist-billing/internal/domain/users"
	"summarist-billing/internal/infra/stripeapi"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
}

type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type CheckoutConfig struct {
	SuccessURL string
	CancelURL  string

	// RequireKnownPrice rejects prices missing from the plan catalog.
	RequireKnownPrice bool
}

// CheckoutFactory opens hosted checkout sessions for subscription prices.
type CheckoutFactory struct {
	processor Processor
	repo      users.Repository
	catalog   plans.Catalog
	cfg       CheckoutConfig
	log       *zap.Logger
}

func NewCheckoutFactory(p Processor, repo users.Repository, catalog plans.Catalog, cfg CheckoutConfig, log *zap.Logger) *CheckoutFactory {
	return &CheckoutFactory{processor: p, repo: repo, catalog: catalog, cfg: cfg, log: log}
}

func (f *CheckoutFactory) Create(ctx context.Context, id Identity, priceID string) (*CheckoutResult, error) {
	const op = "checkout.Create"

	if strings.TrimSpace(id.UserID) == "" {
		return nil, apperr.Unauthenticated(op, "authentication required")
	}
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return nil, apperr.InvalidArgument(op, "priceId is required")
	}
	if err := f.checkPrice(ctx, priceID); err != nil {
		return nil, err
	}

	custID, err := f.ensureCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(custID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:          stripe.String(f.cfg.SuccessURL),
		CancelURL:           stripe.String(f.cfg.CancelURL),
		ClientReferenceID:   stripe.String(id.UserID),
		AllowPromotionCodes: stripe.Bool(true),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				stripeapi.MetadataUserID:  id.UserID,
				stripeapi.MetadataPriceID: priceID,
			},
		},
	}
	params.AddMetadata(stripeapi.MetadataUserID, id.UserID)
	params.AddMetadata(stripeapi.MetadataPriceID, priceID)

	sess, err := f.processor.CreateCheckoutSession(ctx, params)
	if err != nil {
		f.log.Error("checkout session create failed",
			zap.String("user_id", id.UserID),
			zap.String("price_id", priceID),
			zap.Error(err),
		)
		return nil, apperr.Upstream(op, err)
	}

	f.log.Info("checkout session created",
		zap.String("user_id", id.UserID),
		zap.String("session_id", sess.ID),
		zap.String("price_id", priceID),
	)
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

func (f *CheckoutFactory) checkPrice(ctx context.Context, priceID string) error {
	if !f.cfg.RequireKnownPrice || f.catalog == nil {
		return nil
	}
	_, err := f.catalog.FindByPriceID(ctx, priceID)
	if errors.Is(err, plans.ErrNotFound) {
		return apperr.InvalidArgument("checkout.Create", "unknown priceId")
	}
	if err != nil {
		return apperr.Upstream("checkout.Create", err)
	}
	return nil
}

// ensureCustomer returns the caller's linked customer, creating and linking
// one when absent. When a concurrent request linked first, its customer
// wins.
func (f *CheckoutFactory) ensureCustomer(ctx context.Context, id Identity) (string, error) {
	const op = "checkout.ensureCustomer"

	u, err := f.repo.GetUser(ctx, id.UserID)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return "", apperr.Upstream(op, err)
	}
	if cid := u.CustomerID(); cid != "" {
		return cid, nil
	}

	cus, err := f.processor.CreateCustomer(ctx, id.UserID, id.Email)
	if err != nil {
		return "", apperr.Upstream(op, err)
	}

	linked, err := f.repo.LinkCustomer(ctx, id.UserID, cus.ID)
	if err != nil {
		return "", apperr.Upstream(op, err)
	}
	if linked != cus.ID {
		f.log.Warn("customer created concurrently, using the linked one",
			zap.String("user_id", id.UserID),
			zap.String("linked_customer_id", linked),
			zap.String("created_customer_id", cus.ID),
		)
	}
	return linked, nil
}

package subscription

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/domain/billing"
	"summarist-billing/internal/domain/users"
)

type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeUnresolved Outcome = "unresolved"
)

// Mutation is everything one event writes for one user.
type Mutation struct {
	UserID string

	// CustomerID is linked first-write-wins; it never overwrites an
	// existing link.
	CustomerID string
	Patch      *users.Patch
	Payment    *billing.Payment
}

type Reconciler struct {
	processor Processor
	repo      users.Repository
	linkage   *LinkageResolver
	plans     *PlanDescriber
	log       *zap.Logger
	now       func() time.Time
}

type Option func(*Reconciler)

// WithClock overrides the clock used for subscriptionUpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func NewReconciler(p Processor, repo users.Repository, log *zap.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		processor: p,
		repo:      repo,
		linkage:   NewLinkageResolver(p, repo, log),
		plans:     NewPlanDescriber(p, log),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile applies ev to the subscription record it concerns. Events whose
// user cannot be determined are reported as OutcomeUnresolved with a nil
// error; the caller acknowledges them.
func (r *Reconciler) Reconcile(ctx context.Context, ev Event) (Outcome, error) {
	log := r.log.With(zap.String("event_id", ev.EventID()), zap.String("event_type", string(ev.Kind())))

	var (
		m   *Mutation
		err error
	)
	switch e := ev.(type) {
	case CheckoutCompleted:
		m, err = r.checkoutCompleted(ctx, e)
	case SubscriptionChanged:
		m, err = r.subscriptionChanged(ctx, e)
	case InvoiceSettled:
		m, err = r.invoiceSettled(ctx, e)
	default:
		log.Debug("event ignored")
		return OutcomeIgnored, nil
	}

	if err != nil {
		if apperr.Is(err, apperr.KindLinkageUnresolved) {
			log.Warn("event dropped: no linked user", zap.Error(err))
			return OutcomeUnresolved, nil
		}
		return "", err
	}
	if m == nil || m.UserID == "" {
		log.Info("event carried nothing to write")
		return OutcomeIgnored, nil
	}

	if err := r.apply(ctx, m); err != nil {
		return "", err
	}
	log.Info("subscription reconciled",
		zap.String("user_id", m.UserID),
		zap.Strings("fields", fieldNames(m.Patch)),
	)
	return OutcomeApplied, nil
}

// apply is the only place reconciliation writes to the store.
func (r *Reconciler) apply(ctx context.Context, m *Mutation) error {
	const op = "subscription.apply"

	patch := m.Patch
	if patch == nil {
		patch = users.NewPatch()
	}
	patch.SetTime(users.FieldSubscriptionUpdatedAt, r.now())
	if err := patch.Validate(); err != nil {
		return apperr.Wrap(apperr.KindInternal, op, err)
	}

	if m.CustomerID != "" {
		linked, err := r.repo.LinkCustomer(ctx, m.UserID, m.CustomerID)
		switch {
		case errors.Is(err, users.ErrCustomerConflict):
			r.log.Warn("customer already linked to another user",
				zap.String("user_id", m.UserID),
				zap.String("customer_id", m.CustomerID),
			)
		case err != nil:
			return apperr.Upstream(op, err)
		case linked != m.CustomerID:
			r.log.Warn("user keeps its first linked customer",
				zap.String("user_id", m.UserID),
				zap.String("linked_customer_id", linked),
				zap.String("event_customer_id", m.CustomerID),
			)
		}
	}

	if err := r.repo.MergeUser(ctx, m.UserID, patch); err != nil {
		return apperr.Upstream(op, err)
	}

	if m.Payment != nil {
		if err := r.repo.RecordPayment(ctx, *m.Payment); err != nil {
			return apperr.Upstream(op, err)
		}
	}
	return nil
}

func fieldNames(p *users.Patch) []string {
	fields := p.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

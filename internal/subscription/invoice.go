package subscription

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"summarist-billing/internal/apperr"
	"summarist-billing/internal/domain/billing"
	"summarist-billing/internal/domain/users"
)

func (r *Reconciler) invoiceSettled(ctx context.Context, e InvoiceSettled) (*Mutation, error) {
	inv := e.Invoice
	if inv == nil {
		return nil, apperr.InvalidArgument("subscription.invoiceSettled", "event has no invoice")
	}

	subID := subscriptionID(inv.Subscription)
	custID := customerID(inv.Customer)

	res, err := r.linkage.Resolve(ctx, Lookup{SubscriptionID: subID, CustomerID: custID})
	if err != nil {
		return nil, err
	}

	p := users.NewPatch()
	if subID != "" {
		sub := res.Subscription
		if sub == nil {
			sub, err = r.processor.GetSubscription(ctx, subID)
			switch {
			case apperr.Is(err, apperr.KindNotFound):
				r.log.Warn("invoice subscription not found", zap.String("subscription_id", subID))
			case err != nil:
				return nil, err
			}
		}
		if sub != nil {
			p.SetIfPresent(users.FieldStripeSubscriptionID, sub.ID)
			r.planFields(ctx, p, firstPrice(sub))
		}
	}

	status := billing.PaymentStatusPaid
	if e.Failed() {
		status = billing.PaymentStatusFailed
	}
	p.SetIfPresent(users.FieldLastInvoiceID, inv.ID)
	p.Set(users.FieldLastPaymentStatus, status)
	if !e.Failed() {
		p.SetTime(users.FieldLastPaymentAt, invoicePaidAt(inv))
	}

	return &Mutation{
		UserID:     res.UserID,
		CustomerID: custID,
		Patch:      p,
		Payment:    paymentRow(inv, res.UserID, custID, subID, status),
	}, nil
}

func paymentRow(inv *stripe.Invoice, userID, custID, subID, status string) *billing.Payment {
	if inv.ID == "" {
		return nil
	}
	amount := inv.AmountPaid
	if status == billing.PaymentStatusFailed || amount == 0 {
		amount = inv.AmountDue
	}
	row := &billing.Payment{
		InvoiceID:        inv.ID,
		UserID:           userID,
		AmountMinor:      amount,
		Currency:         string(inv.Currency),
		Status:           status,
		InvoiceCreatedAt: time.Unix(inv.Created, 0).UTC(),
	}
	if custID != "" {
		row.StripeCustomerID = &custID
	}
	if subID != "" {
		row.StripeSubscriptionID = &subID
	}
	if inv.HostedInvoiceURL != "" {
		url := inv.HostedInvoiceURL
		row.ReceiptURL = &url
	}
	return row
}

package users

import "time"

type MeSubscriptionResponse struct {
	UserID       string           `json:"userId"`
	Role         string           `json:"role"`
	IsPremium    bool             `json:"isPremium"`
	Subscription *SubscriptionDTO `json:"subscription"`
	LastPayment  *LastPaymentDTO  `json:"lastPayment"`
}

type SubscriptionDTO struct {
	Status               string     `json:"status"`     // active|trialing|past_due|canceled|...
	RawStatus            string     `json:"raw_status"` // as reported by Stripe
	Plan                 string     `json:"plan"`
	PriceID              *string    `json:"price_id"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id"`
	UpdatedAt            *time.Time `json:"updated_at"`
}

type LastPaymentDTO struct {
	InvoiceID *string    `json:"invoice_id"`
	Status    string     `json:"status"`
	PaidAt    *time.Time `json:"paid_at"`
}

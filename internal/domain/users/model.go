package users

import "time"

// User is the per-user subscription record. It is keyed by the identity
// provider's user id and only ever written through a Patch.
type User struct {
	ID   string `gorm:"primaryKey;type:varchar(128)" bson:"_id" json:"id"`
	Role Role   `gorm:"type:varchar(16);not null;default:'free'" bson:"role,omitempty" json:"role"`

	SubscriptionStatus   *string `gorm:"column:subscription_status" bson:"subscriptionStatus,omitempty" json:"subscriptionStatus"`
	SubscriptionPlan     *string `gorm:"column:subscription_plan" bson:"subscriptionPlan,omitempty" json:"subscriptionPlan"`
	SubscriptionPlanName *string `gorm:"column:subscription_plan_name" bson:"subscriptionPlanName,omitempty" json:"subscriptionPlanName"`
	PriceID              *string `gorm:"column:price_id" bson:"priceId,omitempty" json:"priceId"`
	ProductID            *string `gorm:"column:product_id" bson:"productId,omitempty" json:"productId"`

	StripeCustomerID     *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id" bson:"stripeCustomerId,omitempty" json:"stripeCustomerId"`
	StripeSubscriptionID *string `gorm:"column:stripe_subscription_id" bson:"stripeSubscriptionId,omitempty" json:"stripeSubscriptionId"`

	CurrentPeriodEnd      *time.Time `gorm:"column:current_period_end" bson:"currentPeriodEnd,omitempty" json:"currentPeriodEnd"`
	SubscriptionUpdatedAt *time.Time `gorm:"column:subscription_updated_at" bson:"subscriptionUpdatedAt,omitempty" json:"subscriptionUpdatedAt"`

	LastInvoiceID     *string    `gorm:"column:last_invoice_id" bson:"lastInvoiceId,omitempty" json:"lastInvoiceId"`
	LastPaymentStatus *string    `gorm:"column:last_payment_status" bson:"lastPaymentStatus,omitempty" json:"lastPaymentStatus"`
	LastPaymentAt     *time.Time `gorm:"column:last_payment_at" bson:"lastPaymentAt,omitempty" json:"lastPaymentAt"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CustomerID returns the linked Stripe customer id or "".
func (u *User) CustomerID() string {
	if u == nil || u.StripeCustomerID == nil {
		return ""
	}
	return *u.StripeCustomerID
}

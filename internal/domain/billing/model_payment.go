package billing

import "time"

const (
	PaymentStatusPaid   = "paid"
	PaymentStatusFailed = "failed"
)

// Payment is one row of the invoice ledger. InvoiceID is the natural key,
// so replaying an invoice event rewrites the same row.
type Payment struct {
	ID                   uint      `gorm:"primaryKey" bson:"-" json:"-"`
	InvoiceID            string    `gorm:"column:invoice_id;not null;uniqueIndex" bson:"_id" json:"invoice_id"`
	UserID               string    `gorm:"column:user_id;type:varchar(128);index" bson:"userId" json:"-"`
	StripeCustomerID     *string   `gorm:"column:stripe_customer_id" bson:"stripeCustomerId,omitempty" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string   `gorm:"column:stripe_subscription_id" bson:"stripeSubscriptionId,omitempty" json:"stripe_subscription_id,omitempty"`
	AmountMinor          int64     `gorm:"column:amount_minor" bson:"amountMinor" json:"amount_minor"`
	Currency             string    `gorm:"column:currency;type:varchar(8)" bson:"currency" json:"currency"`
	Status               string    `gorm:"column:status;type:varchar(16)" bson:"status" json:"status"`
	ReceiptURL           *string   `gorm:"column:receipt_url" bson:"receiptUrl,omitempty" json:"receipt_url,omitempty"`
	InvoiceCreatedAt     time.Time `gorm:"column:invoice_created_at" bson:"invoiceCreatedAt" json:"invoice_created_at"`
	CreatedAt            time.Time `bson:"createdAt" json:"created_at"`
}

package subscription

import (
	"strings"
	"time"

	"github.com/stripe/stripe-go/v75"

	"summarist-billing/internal/infra/stripeapi"
)

// Stripe sends references either as bare ids or as expanded objects;
// stripe-go decodes both into pointers. These helpers never panic on nil or
// partially populated values.

// legacy keys written by earlier checkout flows
var userIDKeys = []string{stripeapi.MetadataUserID, "firebaseUID", "user_id"}

func metadataUserID(md map[string]string) string {
	for _, k := range userIDKeys {
		if v := strings.TrimSpace(md[k]); v != "" {
			return v
		}
	}
	return ""
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// customerUserID returns the linked user id of a live customer.
func customerUserID(c *stripe.Customer) string {
	if c == nil || c.Deleted {
		return ""
	}
	return metadataUserID(c.Metadata)
}

func subscriptionID(s *stripe.Subscription) string {
	if s == nil {
		return ""
	}
	return s.ID
}

func firstPrice(s *stripe.Subscription) *stripe.Price {
	if s == nil || s.Items == nil {
		return nil
	}
	for _, item := range s.Items.Data {
		if item != nil && item.Price != nil && item.Price.ID != "" {
			return item.Price
		}
	}
	return nil
}

func productID(p *stripe.Price) string {
	if p == nil || p.Product == nil {
		return ""
	}
	return p.Product.ID
}

func periodEnd(s *stripe.Subscription) (time.Time, bool) {
	if s == nil || s.CurrentPeriodEnd <= 0 {
		return time.Time{}, false
	}
	return time.Unix(s.CurrentPeriodEnd, 0).UTC(), true
}

func invoicePaidAt(inv *stripe.Invoice) time.Time {
	if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
		return time.Unix(inv.StatusTransitions.PaidAt, 0).UTC()
	}
	return time.Unix(inv.Created, 0).UTC()
}

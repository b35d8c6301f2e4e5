package stripeapi

import "strings"

// NormalizeStatus folds Stripe's subscription statuses into the smaller set
// shown to users. The raw status is what gets stored.
func NormalizeStatus(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "none"
	}
	switch strings.TrimSpace(*s) {
	case "active":
		return "active"
	case "trialing":
		return "trialing"
	case "past_due", "unpaid":
		return "past_due"
	case "canceled", "incomplete_expired":
		return "canceled"
	default:
		return strings.TrimSpace(*s)
	}
}

// HasActivePeriod reports whether a subscription in this status still has a
// billing period worth recording.
func HasActivePeriod(status string) bool {
	switch strings.TrimSpace(status) {
	case "canceled", "incomplete_expired":
		return false
	default:
		return true
	}
}

package plans

import "strings"

const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// DisplayName returns the plan name shown to users, falling back to a
// label derived from the billing interval when Stripe has no name for it.
func DisplayName(p *Plan) string {
	if p == nil {
		return ""
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return labelForInterval(p.Interval)
}

func labelForInterval(interval string) string {
	switch strings.ToLower(strings.TrimSpace(interval)) {
	case IntervalYear:
		return "Premium Plus Yearly"
	case IntervalMonth:
		return "Premium Monthly"
	default:
		return "Premium"
	}
}

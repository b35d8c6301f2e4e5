package users

import "time"

// Apply merges p into u. The patch is assumed to be valid.
func (u *User) Apply(p *Patch) {
	for _, f := range p.Fields() {
		v := p.values[f]
		_, cleared := v.(clearMarker)

		if timeFields[f] {
			var tp *time.Time
			if !cleared {
				t := v.(time.Time)
				tp = &t
			}
			switch f {
			case FieldCurrentPeriodEnd:
				u.CurrentPeriodEnd = tp
			case FieldSubscriptionUpdatedAt:
				u.SubscriptionUpdatedAt = tp
			case FieldLastPaymentAt:
				u.LastPaymentAt = tp
			}
			continue
		}

		var sp *string
		if !cleared {
			s := v.(string)
			sp = &s
		}
		switch f {
		case FieldRole:
			if sp != nil {
				u.Role = Role(*sp)
			}
		case FieldSubscriptionStatus:
			u.SubscriptionStatus = sp
		case FieldSubscriptionPlan:
			u.SubscriptionPlan = sp
		case FieldSubscriptionPlanName:
			u.SubscriptionPlanName = sp
		case FieldPriceID:
			u.PriceID = sp
		case FieldProductID:
			u.ProductID = sp
		case FieldStripeCustomerID:
			u.StripeCustomerID = sp
		case FieldStripeSubscriptionID:
			u.StripeSubscriptionID = sp
		case FieldLastInvoiceID:
			u.LastInvoiceID = sp
		case FieldLastPaymentStatus:
			u.LastPaymentStatus = sp
		}
	}
}

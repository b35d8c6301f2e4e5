package users

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Field names a mergeable attribute of the subscription record. The string
// value is the document field name; Column gives the SQL column.
type Field string

const (
	FieldRole                  Field = "role"
	FieldSubscriptionStatus    Field = "subscriptionStatus"
	FieldSubscriptionPlan      Field = "subscriptionPlan"
	FieldSubscriptionPlanName  Field = "subscriptionPlanName"
	FieldPriceID               Field = "priceId"
	FieldProductID             Field = "productId"
	FieldStripeCustomerID      Field = "stripeCustomerId"
	FieldStripeSubscriptionID  Field = "stripeSubscriptionId"
	FieldCurrentPeriodEnd      Field = "currentPeriodEnd"
	FieldSubscriptionUpdatedAt Field = "subscriptionUpdatedAt"
	FieldLastInvoiceID         Field = "lastInvoiceId"
	FieldLastPaymentStatus     Field = "lastPaymentStatus"
	FieldLastPaymentAt         Field = "lastPaymentAt"
)

var columns = map[Field]string{
	FieldRole:                  "role",
	FieldSubscriptionStatus:    "subscription_status",
	FieldSubscriptionPlan:      "subscription_plan",
	FieldSubscriptionPlanName:  "subscription_plan_name",
	FieldPriceID:               "price_id",
	FieldProductID:             "product_id",
	FieldStripeCustomerID:      "stripe_customer_id",
	FieldStripeSubscriptionID:  "stripe_subscription_id",
	FieldCurrentPeriodEnd:      "current_period_end",
	FieldSubscriptionUpdatedAt: "subscription_updated_at",
	FieldLastInvoiceID:         "last_invoice_id",
	FieldLastPaymentStatus:     "last_payment_status",
	FieldLastPaymentAt:         "last_payment_at",
}

var timeFields = map[Field]bool{
	FieldCurrentPeriodEnd:      true,
	FieldSubscriptionUpdatedAt: true,
	FieldLastPaymentAt:         true,
}

func (f Field) Column() string { return columns[f] }

var (
	ErrUnknownField        = errors.New("unknown record field")
	ErrRoleWithoutStatus   = errors.New("role can only be written together with subscriptionStatus")
	ErrRoleMismatch        = errors.New("role does not match subscriptionStatus")
	ErrCustomerIDInPatch   = errors.New("stripeCustomerId is linked through LinkCustomer, not patched")
	ErrWrongFieldValueType = errors.New("wrong value type for field")
)

type clearMarker struct{}

// Patch is a merge-patch over a User. Fields not present are left
// untouched; cleared fields are removed from the stored record.
type Patch struct {
	values map[Field]any
}

func NewPatch() *Patch {
	return &Patch{values: map[Field]any{}}
}

func (p *Patch) put(f Field, v any) *Patch {
	if p.values == nil {
		p.values = map[Field]any{}
	}
	p.values[f] = v
	return p
}

// Set asserts a string field. Use SetStatus for subscriptionStatus.
func (p *Patch) Set(f Field, v string) *Patch {
	return p.put(f, v)
}

// SetIfPresent sets f only when v is non-empty, so a missing value never
// erases a previously stored one.
func (p *Patch) SetIfPresent(f Field, v string) *Patch {
	if v == "" {
		return p
	}
	return p.put(f, v)
}

func (p *Patch) SetTime(f Field, t time.Time) *Patch {
	return p.put(f, t.UTC())
}

// Clear marks f as unknown.
func (p *Patch) Clear(f Field) *Patch {
	return p.put(f, clearMarker{})
}

// SetStatus writes the subscription status together with the role it
// derives. Surrounding whitespace is dropped.
func (p *Patch) SetStatus(status string) *Patch {
	status = strings.TrimSpace(status)
	p.put(FieldSubscriptionStatus, status)
	return p.put(FieldRole, string(RoleForStatus(status)))
}

func (p *Patch) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

func (p *Patch) Has(f Field) bool {
	if p == nil {
		return false
	}
	_, ok := p.values[f]
	return ok
}

func (p *Patch) IsCleared(f Field) bool {
	if p == nil {
		return false
	}
	_, ok := p.values[f].(clearMarker)
	return ok
}

// String returns the asserted string value of f.
func (p *Patch) String(f Field) (string, bool) {
	if p == nil {
		return "", false
	}
	s, ok := p.values[f].(string)
	return s, ok
}

func (p *Patch) Time(f Field) (time.Time, bool) {
	if p == nil {
		return time.Time{}, false
	}
	t, ok := p.values[f].(time.Time)
	return t, ok
}

// Fields returns the touched fields in a stable order.
func (p *Patch) Fields() []Field {
	if p == nil {
		return nil
	}
	out := make([]Field, 0, len(p.values))
	for f := range p.values {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate enforces the record invariants every write must respect.
func (p *Patch) Validate() error {
	if p == nil {
		return nil
	}
	for f, v := range p.values {
		if _, ok := columns[f]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
		if f == FieldStripeCustomerID {
			return ErrCustomerIDInPatch
		}
		if _, cleared := v.(clearMarker); cleared {
			if f == FieldRole || f == FieldSubscriptionStatus {
				return fmt.Errorf("%w: %s cannot be cleared", ErrWrongFieldValueType, f)
			}
			continue
		}
		if timeFields[f] {
			if _, ok := v.(time.Time); !ok {
				return fmt.Errorf("%w: %s expects a time", ErrWrongFieldValueType, f)
			}
		} else if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: %s expects a string", ErrWrongFieldValueType, f)
		}
	}

	role, hasRole := p.String(FieldRole)
	status, hasStatus := p.String(FieldSubscriptionStatus)
	switch {
	case hasRole && !hasStatus:
		return ErrRoleWithoutStatus
	case hasStatus && !hasRole:
		return ErrRoleWithoutStatus
	case hasRole && Role(role) != RoleForStatus(status):
		return ErrRoleMismatch
	}
	return nil
}

// Columns renders the patch as a gorm update map; cleared fields map to nil
// so they are written as NULL.
func (p *Patch) Columns() map[string]interface{} {
	out := make(map[string]interface{}, p.Len())
	if p == nil {
		return out
	}
	for f, v := range p.values {
		if _, cleared := v.(clearMarker); cleared {
			out[f.Column()] = nil
			continue
		}
		out[f.Column()] = v
	}
	return out
}

// Document splits the patch into document fields to set and to unset.
func (p *Patch) Document() (set map[string]any, unset []string) {
	set = map[string]any{}
	for _, f := range p.Fields() {
		v := p.values[f]
		if _, cleared := v.(clearMarker); cleared {
			unset = append(unset, string(f))
			continue
		}
		set[string(f)] = v
	}
	return set, unset
}

package users

import (
	"context"
	"errors"

	"summarist-billing/internal/domain/billing"
)

var (
	ErrNotFound = errors.New("user not found")

	// ErrCustomerConflict means the customer id is already linked to a
	// different user.
	ErrCustomerConflict = errors.New("stripe customer linked to another user")
)

// Repository is the user record store. Implementations must make
// MergeUser an upsert that only touches the patched fields.
type Repository interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	FindByCustomerID(ctx context.Context, customerID string) (*User, error)

	// LinkCustomer stores customerID for userID unless a customer id is
	// already linked, and returns whichever id is linked afterwards.
	LinkCustomer(ctx context.Context, userID, customerID string) (string, error)

	MergeUser(ctx context.Context, userID string, patch *Patch) error

	RecordPayment(ctx context.Context, p billing.Payment) error
	ListPayments(ctx context.Context, userID string) ([]billing.Payment, error)
}

package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"summarist-billing/internal/domain/billing"
	"summarist-billing/internal/domain/plans"
	"summarist-billing/internal/domain/users"
)

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*users.User, error) {
	var u users.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) FindByCustomerID(ctx context.Context, customerID string) (*users.User, error) {
	var u users.User
	err := s.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ensureRow inserts an empty free record for userID if none exists.
func ensureRow(tx *gorm.DB, userID string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&users.User{ID: userID, Role: users.RoleFree}).Error
}

func (s *PostgresStore) LinkCustomer(ctx context.Context, userID, customerID string) (string, error) {
	var linked string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRow(tx, userID); err != nil {
			return err
		}

		err := tx.Model(&users.User{}).
			Where("id = ? AND (stripe_customer_id IS NULL OR stripe_customer_id = '')", userID).
			Update("stripe_customer_id", customerID).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return users.ErrCustomerConflict
		}
		if err != nil {
			return err
		}

		var u users.User
		if err := tx.Select("id", "stripe_customer_id").Where("id = ?", userID).First(&u).Error; err != nil {
			return err
		}
		linked = u.CustomerID()
		return nil
	})
	return linked, err
}

func (s *PostgresStore) MergeUser(ctx context.Context, userID string, patch *users.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRow(tx, userID); err != nil {
			return err
		}
		cols := patch.Columns()
		if len(cols) == 0 {
			return nil
		}
		return tx.Model(&users.User{}).Where("id = ?", userID).Updates(cols).Error
	})
}

var paymentColumns = []string{
	"user_id", "stripe_customer_id", "stripe_subscription_id",
	"amount_minor", "currency", "status", "receipt_url", "invoice_created_at",
}

func (s *PostgresStore) RecordPayment(ctx context.Context, p billing.Payment) error {
	p.ID = 0
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "invoice_id"}},
			DoUpdates: clause.AssignmentColumns(paymentColumns),
		}).
		Create(&p).Error
}

func (s *PostgresStore) ListPayments(ctx context.Context, userID string) ([]billing.Payment, error) {
	var out []billing.Payment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("invoice_created_at DESC").
		Find(&out).Error
	return out, err
}

var planColumns = []string{
	"stripe_product_id", "name", "amount_minor", "currency", "interval", "trial_days", "updated_at",
}

func (s *PostgresStore) UpsertPlan(ctx context.Context, p plans.Plan) error {
	p.ID = 0
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_price_id"}},
			DoUpdates: clause.AssignmentColumns(planColumns),
		}).
		Create(&p).Error
}

func (s *PostgresStore) ListPlans(ctx context.Context, productID string) ([]plans.Plan, error) {
	var out []plans.Plan
	q := s.db.WithContext(ctx).Model(&plans.Plan{})
	if productID != "" {
		q = q.Where("stripe_product_id = ?", productID)
	}
	err := q.Order("amount_minor ASC").Find(&out).Error
	return out, err
}

func (s *PostgresStore) FindByPriceID(ctx context.Context, priceID string) (*plans.Plan, error) {
	var p plans.Plan
	err := s.db.WithContext(ctx).Where("stripe_price_id = ?", priceID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, plans.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return Migrate(s.db.WithContext(ctx))
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"summarist-billing/internal/domain/billing"
	"summarist-billing/internal/domain/plans"
	"summarist-billing/internal/domain/users"
)

const (
	usersCollection    = "users"
	paymentsCollection = "payments"
	plansCollection    = "plans"
)

// ConnectMongo connects and pings, retrying a few times while the server
// comes up.
func ConnectMongo(ctx context.Context, uri string, log *zap.Logger) (*mongo.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(uri).
				SetConnectTimeout(10 * time.Second).
				SetRetryWrites(true).
				SetRetryReads(true),
		)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = client.Ping(pingCtx, nil)
			cancel()
			if err == nil {
				log.Info("connected to mongo")
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}
		lastErr = err
		log.Warn("mongo connect failed", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, fmt.Errorf("connect to mongo: %w", lastErr)
}

type MongoStore struct {
	users    *mongo.Collection
	payments *mongo.Collection
	plans    *mongo.Collection
	now      func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		users:    db.Collection(usersCollection),
		payments: db.Collection(paymentsCollection),
		plans:    db.Collection(plansCollection),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "stripeCustomerId", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"stripeCustomerId": bson.M{"$type": "string", "$gt": ""}}),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	_, err = s.payments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "invoiceCreatedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("payments index: %w", err)
	}
	_, err = s.plans.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "productId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("plans index: %w", err)
	}
	return nil
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*users.User, error) {
	var u users.User
	err := s.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoStore) GetUser(ctx context.Context, userID string) (*users.User, error) {
	return s.findUser(ctx, bson.M{"_id": userID})
}

func (s *MongoStore) FindByCustomerID(ctx context.Context, customerID string) (*users.User, error) {
	return s.findUser(ctx, bson.M{"stripeCustomerId": customerID})
}

// LinkCustomer only matches documents without a customer id. When the
// document already has one, the upsert collides on _id and the stored id is
// returned instead. A collision on the customer index means another user
// owns customerID.
func (s *MongoStore) LinkCustomer(ctx context.Context, userID, customerID string) (string, error) {
	now := s.now()
	filter := bson.M{
		"_id":              userID,
		"stripeCustomerId": bson.M{"$in": bson.A{nil, ""}},
	}
	update := bson.M{
		"$set":         bson.M{"stripeCustomerId": customerID, "updatedAt": now},
		"$setOnInsert": bson.M{"role": users.RoleFree, "createdAt": now},
	}
	_, err := s.users.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	duplicate := mongo.IsDuplicateKeyError(err)
	if err != nil && !duplicate {
		return "", err
	}

	u, getErr := s.GetUser(ctx, userID)
	return linkedCustomer(duplicate, u, getErr)
}

// linkedCustomer interprets the read-back after a link upsert.
func linkedCustomer(duplicate bool, u *users.User, getErr error) (string, error) {
	if getErr != nil {
		if duplicate && errors.Is(getErr, users.ErrNotFound) {
			// insert of a new user collided on the customer index
			return "", users.ErrCustomerConflict
		}
		return "", getErr
	}
	if u.CustomerID() == "" {
		return "", users.ErrCustomerConflict
	}
	return u.CustomerID(), nil
}

// mergeUpdate renders a patch as an upsert update document.
func mergeUpdate(patch *users.Patch, now time.Time) bson.M {
	set, unset := patch.Document()
	set["updatedAt"] = now

	onInsert := bson.M{"createdAt": now}
	if !patch.Has(users.FieldRole) {
		onInsert["role"] = users.RoleFree
	}

	update := bson.M{"$set": set, "$setOnInsert": onInsert}
	if len(unset) > 0 {
		fields := bson.M{}
		for _, f := range unset {
			fields[f] = ""
		}
		update["$unset"] = fields
	}
	return update
}

func (s *MongoStore) MergeUser(ctx context.Context, userID string, patch *users.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		mergeUpdate(patch, s.now()),
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

// paymentUpdate keeps createdAt from the first write of an invoice.
func paymentUpdate(p billing.Payment, now time.Time) (bson.M, error) {
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil, err
	}
	var set bson.M
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, err
	}
	delete(set, "_id")
	delete(set, "createdAt")
	return bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": now}}, nil
}

func (s *MongoStore) RecordPayment(ctx context.Context, p billing.Payment) error {
	update, err := paymentUpdate(p, s.now())
	if err != nil {
		return err
	}
	_, err = s.payments.UpdateOne(ctx, bson.M{"_id": p.InvoiceID}, update, options.UpdateOne().SetUpsert(true))
	return err
}

func (s *MongoStore) ListPayments(ctx context.Context, userID string) ([]billing.Payment, error) {
	cur, err := s.payments.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "invoiceCreatedAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	var out []billing.Payment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) UpsertPlan(ctx context.Context, p plans.Plan) error {
	p.UpdatedAt = s.now()
	_, err := s.plans.ReplaceOne(ctx,
		bson.M{"_id": p.StripePriceID},
		p,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) ListPlans(ctx context.Context, productID string) ([]plans.Plan, error) {
	filter := bson.M{}
	if productID != "" {
		filter["productId"] = productID
	}
	cur, err := s.plans.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "amountMinor", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []plans.Plan
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) FindByPriceID(ctx context.Context, priceID string) (*plans.Plan, error) {
	var p plans.Plan
	err := s.plans.FindOne(ctx, bson.M{"_id": priceID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, plans.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

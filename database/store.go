package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"summarist-billing/config"
	"summarist-billing/internal/domain/plans"
	"summarist-billing/internal/domain/users"
)

// Store is the full persistence surface of the service.
type Store interface {
	users.Repository
	plans.Catalog
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MongoStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// Open builds the store selected by STORE_DRIVER. The returned close
// function releases its connections.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := OpenPostgres(cfg.DBURL, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return NewPostgresStore(db), closeFn, nil

	case config.StoreDriverMongo:
		client, err := ConnectMongo(ctx, cfg.MongoURL, log)
		if err != nil {
			return nil, nil, err
		}
		store := NewMongoStore(client.Database(cfg.MongoDatabase))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return store, client.Disconnect, nil

	case config.StoreDriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return NewMemoryStore(), func(context.Context) error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

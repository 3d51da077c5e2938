// Package database opens the configured persistence backend and returns the
// matching repository set.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"unishop/internal/config"
	"unishop/internal/fixtures"
	"unishop/internal/repositories"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Closer releases the connection held behind a Store.
type Closer func(ctx context.Context) error

func noopCloser(context.Context) error { return nil }

// Open returns the repositories selected by cfg. With UseMockData set the
// store lives in memory and is seeded from the fixture dataset; otherwise
// DBDriver picks MongoDB or a relational database through gorm.
func Open(ctx context.Context, cfg *config.Config) (*repositories.Store, Closer, error) {
	if cfg.UseMockData {
		store := repositories.NewMockStore()
		if err := fixtures.Seed(ctx, store); err != nil {
			return nil, nil, fmt.Errorf("seed mock store: %w", err)
		}
		log.Println("Using in-memory mock data")
		return store, noopCloser, nil
	}

	switch cfg.DBDriver {
	case config.DriverMongo:
		client, err := ConnectMongoDB(ctx, cfg.MongoURI, cfg.ConnectTimeout)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := repositories.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return repositories.NewMongoStore(db), client.Disconnect, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := OpenGORM(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.MigrateGORM(db); err != nil {
			return nil, nil, err
		}
		closer := func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return repositories.NewGORMStore(db), closer, nil
	}
	return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
}

// ConnectMongoDB connects to uri and pings the server. The client encodes
// decimal amounts as Decimal128.
func ConnectMongoDB(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri).SetRegistry(repositories.MongoRegistry())
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Println("Successfully connected to MongoDB")
	return client, nil
}

// OpenGORM opens a postgres or sqlite database. Driver errors for unique
// violations are translated to gorm.ErrDuplicatedKey.
func OpenGORM(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	log.Printf("Connected to %s database", driver)
	return db, nil
}

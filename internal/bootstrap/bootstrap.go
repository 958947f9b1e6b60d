// Package bootstrap opens the process-wide clients shared by the server and the seeder.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"github.com/quocanhngo/gotalk-relay/internal/config"
	"github.com/quocanhngo/gotalk-relay/internal/model"
	"github.com/quocanhngo/gotalk-relay/internal/repository"
	"github.com/quocanhngo/gotalk-relay/migrations"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Directory is a user directory that can also be seeded
type Directory interface {
	repository.UserDirectory
	repository.UserWriter
}

// OpenRedis connects and pings Redis
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Println("✅ Connected to Redis")
	return rdb, nil
}

// OpenPostgres connects to PostgreSQL and makes sure the user_records table exists
func OpenPostgres(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Printf("⚠️  Migration warning: %v", err)
		log.Println("📦 Falling back to GORM AutoMigrate...")
		if err := db.AutoMigrate(&model.UserRecordRow{}); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}
	return db, nil
}

// OpenDirectory builds the user directory selected by DIRECTORY_DRIVER.
// The returned close func releases driver connections.
func OpenDirectory(ctx context.Context, cfg *config.Config, app *firebase.App) (Directory, func(), error) {
	noop := func() {}

	switch cfg.Directory.Driver {
	case config.DirectoryFirebase:
		if app == nil {
			return nil, noop, fmt.Errorf("firebase directory requires firebase credentials")
		}
		if cfg.Firebase.DatabaseURL == "" {
			return nil, noop, fmt.Errorf("firebase directory requires FIREBASE_DATABASE_URL")
		}
		client, err := app.Database(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("get database client: %w", err)
		}
		log.Printf("📒 User directory: Firebase Realtime Database (%s/%s)", cfg.Firebase.DatabaseURL, cfg.Directory.UsersPath)
		return repository.NewFirebaseUserRepository(client, cfg.Directory.UsersPath), noop, nil

	case config.DirectoryRedis:
		rdb, err := OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		log.Printf("📒 User directory: Redis (%s:<id>)", cfg.Directory.UsersPath)
		return repository.NewRedisUserRepository(rdb, cfg.Directory.UsersPath), func() { _ = rdb.Close() }, nil

	case config.DirectoryPostgres:
		db, err := OpenPostgres(cfg)
		if err != nil {
			return nil, noop, err
		}
		closeFn := noop
		if sqlDB, err := db.DB(); err == nil {
			closeFn = func() { _ = sqlDB.Close() }
		}
		log.Println("📒 User directory: PostgreSQL (user_records)")
		return repository.NewUserRepository(db), closeFn, nil

	default:
		return nil, noop, fmt.Errorf("unknown DIRECTORY_DRIVER %q", cfg.Directory.Driver)
	}
}

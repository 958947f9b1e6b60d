package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"github.com/quocanhngo/gotalk-relay/internal/bootstrap"
	"github.com/quocanhngo/gotalk-relay/internal/config"
	"github.com/quocanhngo/gotalk-relay/internal/model"
	"github.com/quocanhngo/gotalk-relay/migrations"
	"github.com/quocanhngo/gotalk-relay/pkg/auth"
	"github.com/quocanhngo/gotalk-relay/pkg/firebaseapp"
)

func main() {
	rollback := flag.Bool("rollback", false, "revert the last user_records migration and exit (postgres driver only)")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	if *rollback {
		if cfg.Directory.Driver != config.DirectoryPostgres {
			log.Fatalf("❌ -rollback needs DIRECTORY_DRIVER=postgres, got %q", cfg.Directory.Driver)
		}
		if err := migrations.Rollback(cfg.DB.URL()); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}

	var app *firebase.App
	if cfg.Firebase.Enabled() {
		a, err := firebaseapp.New(ctx, cfg.Firebase)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Firebase app: %v", err)
		}
		app = a
	}

	dir, closeDirectory, err := bootstrap.OpenDirectory(ctx, cfg, app)
	if err != nil {
		log.Fatalf("❌ Failed to open user directory: %v", err)
	}
	defer closeDirectory()

	log.Printf("🌱 Seeding 10 user records into %s directory...", cfg.Directory.Driver)

	for i := 1; i <= 10; i++ {
		userID := fmt.Sprintf("user%d", i)
		enabled := i%4 != 0 // user4, user8 opted out
		rec := &model.UserRecord{
			UserID:               userID,
			NotificationsEnabled: &enabled,
		}
		// user3, user6, user9 never registered a device
		if i%3 != 0 {
			rec.FCMToken = "dev-token-" + uuid.NewString()
		}

		if err := dir.Upsert(ctx, rec); err != nil {
			log.Printf("❌ Failed to seed %s: %v", userID, err)
			continue
		}
		log.Printf("✅ Seeded %s | token: %t | notifications: %t", userID, rec.HasToken(), enabled)
	}

	if cfg.JWT.Secret != "" {
		token, err := auth.NewJWTManager(cfg.JWT.Secret, 24*time.Hour).GenerateToken("seeder", "Seeder")
		if err != nil {
			log.Printf("⚠️ Failed to generate dev bearer token: %v", err)
		} else {
			log.Printf("🔑 Dev bearer token (24h): %s", token)
		}
	}

	log.Println("🎉 Seeding completed!")
}

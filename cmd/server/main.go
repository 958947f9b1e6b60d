package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/gotalk-relay/internal/bootstrap"
	"github.com/quocanhngo/gotalk-relay/internal/config"
	"github.com/quocanhngo/gotalk-relay/internal/handler"
	"github.com/quocanhngo/gotalk-relay/internal/middleware"
	"github.com/quocanhngo/gotalk-relay/internal/repository"
	"github.com/quocanhngo/gotalk-relay/internal/service"
	"github.com/quocanhngo/gotalk-relay/pkg/auth"
	"github.com/quocanhngo/gotalk-relay/pkg/firebaseapp"
	"github.com/quocanhngo/gotalk-relay/pkg/notification"
	"github.com/quocanhngo/gotalk-relay/pkg/rtctoken"
)

// @title           GoTalk Relay API
// @version         1.0
// @description     RTC channel tokens and push notification relay for GoTalk.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting GoTalk Relay [env=%s]", cfg.App.Env)

	ctx := context.Background()

	// ==================== RTC Signing Credentials ====================
	if !cfg.Agora.HasCredentials() {
		if cfg.Agora.RequireCredentials {
			log.Fatal("❌ AGORA_APP_ID and AGORA_APP_CERTIFICATE must be set")
		}
		log.Println("⚠️  Agora App ID or Certificate is not set, /token will return 500")
	}

	// ==================== Firebase ====================
	var (
		fbApp  *firebase.App
		sender service.PushSender
	)
	if cfg.Firebase.Enabled() {
		app, err := firebaseapp.New(ctx, cfg.Firebase)
		if err != nil {
			log.Printf("⚠️ Failed to initialize Firebase app: %v (push notifications disabled)", err)
		} else {
			fbApp = app
			fcm, err := notification.NewFCMSender(ctx, app)
			if err != nil {
				log.Printf("⚠️ Failed to get messaging client: %v", err)
			} else {
				sender = fcm
			}
		}
	} else {
		log.Println("⚠️ Firebase credentials not provided, push notifications disabled")
	}

	// ==================== User Directory ====================
	var directory repository.UserDirectory
	dir, closeDirectory, err := bootstrap.OpenDirectory(ctx, cfg, fbApp)
	if err != nil {
		log.Printf("⚠️  User directory unavailable: %v (notification endpoints will return 500)", err)
	} else {
		directory = dir
	}
	defer closeDirectory()

	// ==================== Auth ====================
	opts := handler.RouterOptions{
		CORSOrigins: cfg.CORS.Origins,
		SwaggerFile: "./docs/swagger.json",
	}
	if cfg.JWT.Secret != "" {
		opts.JWTManager = auth.NewJWTManager(cfg.JWT.Secret, 24*time.Hour)
		rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			log.Printf("⚠️  Token revocation check disabled: %v", err)
		} else {
			defer rdb.Close()
			opts.Revocations = middleware.NewRedisRevocations(rdb)
		}
		log.Println("🔒 Notification endpoints require a bearer token")
	}

	// ==================== Initialize Layers ====================
	tokenService := service.NewTokenService(cfg.Agora, rtctoken.NewBuilder())
	notificationService := service.NewNotificationService(directory, sender, cfg.Notify)

	tokenHandler := handler.NewTokenHandler(tokenService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(tokenHandler, notificationHandler, opts)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 GoTalk relay listening at http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server exited gracefully")
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/gotalk-relay/internal/middleware"
	"github.com/quocanhngo/gotalk-relay/pkg/auth"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterOptions configures cross-cutting concerns of the HTTP surface
type RouterOptions struct {
	CORSOrigins []string
	// JWTManager protects notification routes when non-nil
	JWTManager  *auth.JWTManager
	Revocations middleware.Revocations
	// SwaggerFile is served at /docs/swagger.json when set
	SwaggerFile string
}

// NewRouter wires handlers to routes
func NewRouter(tokens *TokenHandler, notifications *NotificationHandler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), Recovery(), middleware.RequestID())
	if len(opts.CORSOrigins) > 0 {
		router.Use(middleware.CORSMiddleware(opts.CORSOrigins))
	}

	if opts.SwaggerFile != "" {
		router.StaticFile("/docs/swagger.json", opts.SwaggerFile)
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.json")))
	}

	router.GET("/health", Health)
	router.GET("/token", tokens.GetToken)

	notify := router.Group("")
	if opts.JWTManager != nil {
		notify.Use(middleware.AuthMiddleware(opts.JWTManager, opts.Revocations))
	}
	{
		notify.POST("/send-notification", notifications.SendNotification)
		notify.POST("/send-notification-batch", notifications.SendBatchNotification)
		notify.GET("/send-notification-by-token", notifications.SendNotificationByToken)
	}

	return router
}

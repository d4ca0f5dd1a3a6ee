package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"quickchat/internal/auth"
	"quickchat/internal/db"
	"quickchat/internal/delivery"
	"quickchat/internal/handlers"
	"quickchat/internal/media"
	"quickchat/internal/middleware"
	"quickchat/internal/observability"
	"quickchat/internal/presence"
	"quickchat/internal/rabbitmq"
	"quickchat/internal/repositories"
	"quickchat/internal/telemetry"
	"quickchat/internal/ws"
)

const serviceName = "quickchat"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, os.Getenv("OTLP_ENDPOINT"))
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	amqpURL := os.Getenv("AMQP_URL")
	exchange := getEnv("AMQP_EXCHANGE", "quickchat.events")

	auditPublisher := rabbitmq.NewPublisher(amqpURL, exchange)
	defer auditPublisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.chat", serviceName, getEnv("ENVIRONMENT", "dev"))

	if amqpURL != "" {
		eventPublisher, err := observability.NewAMQPPublisher(amqpURL, exchange)
		if err != nil {
			log.Printf("ws event publishing disabled: %v", err)
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	tokens := auth.NewTokenManager(getEnv("JWT_SECRET", "dev-secret-change-me"), 7*24*time.Hour)
	uploader := media.NewUploader(os.Getenv("MEDIA_UPLOAD_URL"))

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	registry := presence.NewRegistry()
	engine := delivery.NewEngine(messageRepo, registry, uploader)

	authHandler := handlers.NewAuthHandler(userRepo, tokens, uploader)
	messageHandler := handlers.NewMessageHandler(userRepo, messageRepo, engine)
	gateway := ws.NewGateway(registry, tokens)

	router := gin.Default()
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	authMiddleware := middleware.AuthMiddleware(tokens)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Long-lived websocket connections must not inherit the request timeout.
	api := router.Group("/api", middleware.Timeout(10*time.Second))

	api.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "Server is running"})
	})

	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/check", authMiddleware, authHandler.Check)
	api.PUT("/auth/update-profile", authMiddleware, authHandler.UpdateProfile)

	api.GET("/messages/users", authMiddleware, messageHandler.ListUsers)
	api.GET("/messages/:id", authMiddleware, messageHandler.GetConversation)
	api.POST("/messages/send/:id", authMiddleware, messageHandler.SendMessage)
	api.PUT("/messages/mark/:id", authMiddleware, messageHandler.MarkMessageSeen)

	router.GET("/ws", gateway.Handle)

	handlers.RegisterDebugRoutes(router, auditEmitter, os.Getenv("DEBUG_ROUTES") == "true")

	port := getEnv("PORT", "5000")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

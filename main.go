package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/config"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/db"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/handlers"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/middleware"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/models"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/observability"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/rabbitmq"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/repositories"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/session"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/telemetry"
	"github.com/The-Prime-Crafters/3VLTN-Dashboard/internal/ws"
)

func main() {
	cfg := config.Load()

	shutdownTracing := telemetry.SetupTracing(context.Background(), "dashboard", cfg.OTLPEndpoint)
	defer shutdownTracing(context.Background())

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange)
	defer publisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(publisher))

	audit := telemetry.NewAuditEmitter(publisher, "audit.dashboard", "dashboard", cfg.Environment)

	sessions := session.NewService(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	userRepo := repositories.NewUserRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()
	gateway := ws.NewGateway(hub, sessions, roomRepo, messageRepo, userRepo, audit)

	authHandler := handlers.NewAuthHandler(userRepo, sessions, audit)
	adminHandler := handlers.NewAdminHandler(userRepo, audit)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("dashboard"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", middleware.RequireSession(sessions), authHandler.Me)

	admin := router.Group("/api/admin", middleware.RequireRoles(sessions, models.RoleAdmin))
	admin.GET("/pending", adminHandler.Pending)
	admin.GET("/users", adminHandler.Users)
	admin.POST("/approve", adminHandler.Approve)

	router.GET("/ws/chat", gateway.Handle)

	pages := router.Group("/", middleware.RouteGuard(sessions))
	for _, route := range handlers.PageRoutes {
		pages.GET(route, handlers.PageShell)
	}

	if cfg.Debug {
		router.GET("/debug/audit-test", func(c *gin.Context) {
			audit.Emit(c.Request.Context(), "INFO", "audit test", c.GetHeader("X-Request-ID"), nil)
			c.JSON(200, gin.H{"status": "ok"})
		})
	}

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

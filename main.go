package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"social-service/internal/auth"
	"social-service/internal/config"
	"social-service/internal/db"
	"social-service/internal/friends"
	"social-service/internal/handlers"
	"social-service/internal/logging"
	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
	"social-service/internal/tracing"
	"social-service/internal/ws"
)

const serviceName = "social-service"

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogSink, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}
	defer logger.Close()

	if cfg.TracingEnabled {
		shutdown, err := tracing.Init(context.Background(), cfg.OTLPEndpoint, serviceName, cfg.Environment)
		if err != nil {
			logger.Warnf("tracing disabled: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Warnf("tracer shutdown: %v", err)
				}
			}()
		}
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Errorf("failed to connect to db: %v", err)
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()

	emitter := telemetry.NewAuditEmitter(publisher, cfg.AuditRouting, serviceName, cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	hub := ws.NewHub(logger)
	friendSvc := friends.NewService(userRepo, chatRepo, hub, logger)

	userHandler := handlers.NewUserHandler(userRepo, chatRepo, friendSvc, jwtManager, hub, emitter, logger, cfg.TokenTTL)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, logger)
	wsHandler := ws.NewHandler(hub, jwtManager, publisher)

	limiterStore := middleware.NewLimiterStore(cfg.AuthRatePerMinute, cfg.AuthRateBurst, 10*time.Minute)
	defer limiterStore.Stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(jwtManager)
	authLimit := middleware.RateLimitMiddleware(limiterStore)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/user/signup", authLimit, userHandler.Signup)
	router.POST("/user/signin", authLimit, userHandler.Signin)
	router.POST("/user/signout", userHandler.Signout)

	router.GET("/user", authMiddleware, userHandler.GetUserByIdentifier)
	router.GET("/user/all", authMiddleware, userHandler.ListUsers)
	router.POST("/user/by-email", authMiddleware, userHandler.UsersByEmail)
	router.GET("/user/:id", authMiddleware, userHandler.GetUser)
	router.DELETE("/user/:id", authMiddleware, userHandler.DeleteUser)

	router.POST("/user/friendRequest", authMiddleware, userHandler.SendFriendRequest)
	router.PATCH("/user/friendRequest", authMiddleware, userHandler.UpdateFriendRequestStatus)
	router.PATCH("/user/removeFriend", authMiddleware, userHandler.RemoveFriend)

	router.GET("/chat/:id", authMiddleware, chatHandler.GetUserChats)
	router.POST("/chat/:id/message", authMiddleware, chatHandler.PostMessage)

	router.GET("/ws", wsHandler.Handle)

	handlers.RegisterDebugRoutes(router, emitter, cfg.DebugRoutes)

	logger.Infof("listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"portfolio-analytics-api/internal/clients"
	"portfolio-analytics-api/internal/config"
	"portfolio-analytics-api/internal/controllers"
	"portfolio-analytics-api/internal/correlation"
	"portfolio-analytics-api/internal/messaging"
	"portfolio-analytics-api/internal/middleware"
	mongorepo "portfolio-analytics-api/internal/repositories/mongo"
	"portfolio-analytics-api/internal/risk"
	"portfolio-analytics-api/internal/scheduler"
	"portfolio-analytics-api/internal/services"
	"portfolio-analytics-api/internal/strategy"
	"portfolio-analytics-api/pkg/cache"
	"portfolio-analytics-api/pkg/database"
	"portfolio-analytics-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logrus.Fatal("Invalid configuration: ", err)
	}

	// Initialize logger
	logger.Init(cfg.Logger)
	log := logrus.WithField("service", "portfolio-analytics-api")

	log.Info("Starting Portfolio Analytics API service...")

	// Initialize database connection
	db, err := database.NewMongoDB(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer db.Disconnect()

	// Initialize Redis cache
	cacheClient, err := cache.NewRedisClient(cfg.Cache)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer cacheClient.Close()

	// Initialize repositories
	priceRepo := mongorepo.NewPriceHistoryRepository(db.GetDatabase())

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := priceRepo.EnsureIndexes(startupCtx); err != nil {
		cancelStartup()
		log.Fatal("Failed to prepare price history store: ", err)
	}
	cancelStartup()

	// Initialize external clients
	marketClient := clients.NewMarketDataClient(cfg.ExternalAPIs)
	portfolioClient := clients.NewPortfolioClient(cfg.ExternalAPIs)

	// Initialize analytics engines
	riskEngine := risk.NewEngine(risk.Config{
		RiskFreeRate:    cfg.Analytics.RiskFreeRate,
		BenchmarkTicker: cfg.Analytics.BenchmarkTicker,
		Simulations:     cfg.Analytics.Simulations,
		Seed:            cfg.Analytics.Seed,
		TradingDays:     cfg.Analytics.TradingDays,
	}, priceRepo, marketClient)

	correlationEngine := correlation.NewEngine(priceRepo)

	strategyEngine := strategy.NewEngine(strategy.Config{
		RiskFreeRate:    cfg.Analytics.RiskFreeRate,
		BenchmarkTicker: cfg.Analytics.BenchmarkTicker,
		TradingDays:     cfg.Analytics.TradingDays,
	}, priceRepo, marketClient)

	// Initialize RabbitMQ publisher
	var publisher services.EventPublisherInterface
	var reportPublisher *messaging.ReportPublisher
	if cfg.RabbitMQ.Enabled {
		reportPublisher, err = messaging.NewReportPublisher(
			amqpURL(cfg.RabbitMQ), cfg.RabbitMQ.ReportExchange, cfg.RabbitMQ.ReportRoutingKey, logrus.StandardLogger())
		if err != nil {
			log.Error("Failed to initialize report publisher: ", err)
		} else {
			publisher = reportPublisher
			defer reportPublisher.Close()
		}
	}

	// Initialize service
	analyticsService := services.NewAnalyticsService(
		portfolioClient,
		riskEngine,
		correlationEngine,
		strategyEngine,
		cacheClient,
		publisher,
		strategy.Catalog(),
		cfg.Analytics,
	)

	// Initialize RabbitMQ consumer for portfolio change events
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()

	if cfg.RabbitMQ.Enabled {
		consumer, err := messaging.NewPortfolioEventsConsumer(
			amqpURL(cfg.RabbitMQ),
			"portfolio-analytics.portfolio-events",
			func(ctx context.Context, event messaging.PortfolioChangedEvent) error {
				return analyticsService.InvalidatePortfolio(ctx, event.PortfolioID)
			},
			logrus.StandardLogger(),
		)
		if err != nil {
			log.Error("Failed to initialize portfolio events consumer: ", err)
		} else {
			defer consumer.Close()
			if err := consumer.Start(consumerCtx); err != nil {
				log.Error("Failed to start portfolio events consumer: ", err)
			}
		}
	}

	// Initialize scheduler
	if cfg.Scheduler.Enabled {
		jobs, err := scheduler.NewScheduler(cfg.Scheduler, marketClient, priceRepo)
		if err != nil {
			log.Error("Failed to initialize scheduler: ", err)
		} else {
			if err := jobs.Start(consumerCtx); err != nil {
				log.Error("Failed to start scheduler: ", err)
			} else {
				defer jobs.Stop()
			}
		}
	}

	// Setup HTTP server
	router := setupRouter(cfg, analyticsService, db, cacheClient, marketClient, portfolioClient)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: ", err)
	}

	log.Info("Server exited")
}

func setupRouter(
	cfg *config.Config,
	service *services.AnalyticsService,
	db *database.MongoDB,
	cacheClient *cache.RedisClient,
	marketClient *clients.MarketDataClient,
	portfolioClient *clients.PortfolioClient,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	logging := middleware.NewLoggingMiddleware(logrus.StandardLogger(), []string{"/health", "/metrics"})
	router.Use(logging.RequestID())
	router.Use(logging.LogRequests())
	router.Use(logging.LogPanic())
	router.Use(middleware.Metrics())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		checks := gin.H{
			"mongodb":       db.IsHealthy(checkCtx),
			"redis":         cacheClient.Ping(checkCtx) == nil,
			"market_data":   marketClient.IsHealthy(checkCtx),
			"portfolio_api": portfolioClient.IsHealthy(checkCtx),
		}

		status := "healthy"
		code := http.StatusOK
		for _, ok := range checks {
			if !ok.(bool) {
				status = "degraded"
				code = http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"service":   "portfolio-analytics-api",
			"checks":    checks,
			"timestamp": time.Now().UTC(),
		})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api")
	if cfg.Auth.RequireAuth {
		auth := middleware.NewAuthMiddleware(middleware.DefaultAuthConfig(cfg.Auth.JWTSecret))
		api.Use(auth.ValidateToken())
	}

	controllers.NewAnalyticsController(service, logrus.StandardLogger()).RegisterRoutes(api)
	controllers.NewStrategyController(service, logrus.StandardLogger()).RegisterRoutes(api)

	return router
}

// amqpURL builds the broker URL, preferring an explicit RABBITMQ_URL
func amqpURL(cfg config.RabbitMQConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.VHost)
}

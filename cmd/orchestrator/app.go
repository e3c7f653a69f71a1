package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq" // PostgreSQL driver

	"switchboard/internal/campaign"
	"switchboard/internal/config"
	"switchboard/internal/constants"
	"switchboard/internal/dispatch"
	"switchboard/internal/execution"
	"switchboard/internal/guard"
	"switchboard/internal/integration"
	"switchboard/internal/logger"
	"switchboard/internal/orchestrator"
	"switchboard/internal/rules"
	"switchboard/internal/tenant"
	"switchboard/pkg/bootstrap"
	pkgcel "switchboard/pkg/cel"
	"switchboard/pkg/health"
	"switchboard/pkg/metrics"
	"switchboard/pkg/middleware"
	"switchboard/pkg/migrations"
	"switchboard/pkg/ratelimit"
	"switchboard/pkg/tracing"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	base           *bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	db             *sql.DB
	mongoClient    *mongo.Client
	redisClient    *redisclient.Client
	server         *http.Server
	router         *gin.Engine
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config:      cfg,
		logger:      log,
		base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.base.InitBroker(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	if err := a.initRouter(ctx); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	if err := a.initServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	tp, err := tracing.Init(a.config.Tracing, "orchestrator")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("postgres configuration is required")
	}
	a.db = db

	if a.config.Database.RunMigrations {
		if err := migrations.RunPostgres(a.db, a.config.Database.MigrationsPath); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		a.logger.InfowCtx(ctx, "Database migrations applied")
	}

	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return err
	}
	if mongoClient == nil {
		return fmt.Errorf("mongodb configuration is required")
	}
	a.mongoClient = mongoClient

	if a.config.Database.Redis.Host != "" {
		redisClient, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			a.logger.WarnwCtx(ctx, "Redis connection failed, integration cache disabled", "error", err)
		} else {
			a.redisClient = redisClient
		}
	}

	return nil
}

func (a *App) initRouter(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware("orchestrator"))
	}

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.config.Orchestrator.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             a.config.Orchestrator.RateLimit.RPS,
			Burst:           a.config.Orchestrator.RateLimit.Burst,
			CleanupInterval: time.Duration(a.config.Orchestrator.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.config.Orchestrator.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.RateLimitMiddleware(rateLimitConfig))
		a.logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	dbName := a.config.Database.MongoDB.Database
	if dbName == "" {
		dbName = constants.DefaultMongoDBName
	}
	eventStore := orchestrator.NewMongoEventStore(a.mongoClient.Database(dbName))
	if err := eventStore.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure event indexes: %w", err)
	}

	var integrations integration.Repository = integration.NewRepository(a.db)
	if a.redisClient != nil {
		ttl := time.Duration(a.config.Database.Redis.TTLSeconds) * time.Second
		integrations = integration.NewCachedRepository(integrations, a.redisClient, ttl, a.logger)
	}

	ruleStore := rules.NewRepository(a.db)
	history := execution.NewRepository(a.db)
	tenants := tenant.NewRepository(a.db)
	campaigns := campaign.NewRepository(a.db)

	countryCode := a.config.Dispatch.DefaultCountryCode
	if countryCode == "" {
		countryCode = constants.DefaultCountryCode
	}
	dispatcher := dispatch.NewDispatcher(tenants, campaigns, countryCode, a.logger)

	evaluator, err := pkgcel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("failed to create expression evaluator: %w", err)
	}

	eventsTopic := a.config.Broker.Kafka.EventsTopic
	if eventsTopic == "" {
		eventsTopic = constants.DefaultEventsTopic
	}

	svc := orchestrator.NewService(
		integrations,
		ruleStore,
		history,
		guard.NewService(history),
		dispatcher,
		eventStore,
		a.base.Publisher,
		evaluator,
		eventsTopic,
		a.logger,
	)

	handler := orchestrator.NewHandler(svc, a.logger)
	handler.RegisterRoutes(router)

	metrics.RegisterOrchestratorMetrics()
	metrics.RegisterBrokerMetrics()
	metrics.RegisterCircuitBreakerMetrics()

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
	return nil
}

func (a *App) initServer() error {
	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Server.Port),
		Handler: a.router,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(ctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	errs = append(errs, a.base.ShutdownBroker()...)

	dbErrs := a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/MicroblogGo/internal/auth"
	"github.com/utafrali/MicroblogGo/internal/cache"
	redisstore "github.com/utafrali/MicroblogGo/internal/cache/redis"
	"github.com/utafrali/MicroblogGo/internal/config"
	"github.com/utafrali/MicroblogGo/internal/event"
	handler "github.com/utafrali/MicroblogGo/internal/handler/http"
	"github.com/utafrali/MicroblogGo/internal/repository/postgres"
	"github.com/utafrali/MicroblogGo/internal/seed"
	"github.com/utafrali/MicroblogGo/internal/sender"
	mocksender "github.com/utafrali/MicroblogGo/internal/sender/mock"
	"github.com/utafrali/MicroblogGo/internal/sender/sendgrid"
	"github.com/utafrali/MicroblogGo/internal/service"
	"github.com/utafrali/MicroblogGo/migrations"
	"github.com/utafrali/MicroblogGo/pkg/database"
	"github.com/utafrali/MicroblogGo/pkg/health"
	"github.com/utafrali/MicroblogGo/pkg/httpclient"
	pkgkafka "github.com/utafrali/MicroblogGo/pkg/kafka"
	"github.com/utafrali/MicroblogGo/pkg/middleware"
	"github.com/utafrali/MicroblogGo/pkg/tracing"
)

const serviceName = "microblog"

// App wires together all dependencies and runs the microblog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer // nil when Kafka is disabled
	accounts       *service.AccountService
	authLimiter    *middleware.IPRateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis for the verification cache.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)))

	// Initialize Kafka producer.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		}, logger)
		publisher = producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("kafka disabled, domain events will not be published")
	}

	// Build the dependency graph.
	tokens := auth.NewTokenCodec(cfg.JWTSecret)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	userRepo := postgres.NewUserRepository(pool)
	postRepo := postgres.NewPostRepository(pool)
	commentRepo := postgres.NewCommentRepository(pool)
	eventProducer := event.NewProducer(publisher, logger)
	emailSender := newSender(cfg, logger)

	if _, err := seed.NewAdminSeeder(userRepo, hasher, logger).SeedFile(ctx, cfg.AdminsFile); err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("seed admins: %w", err)
	}

	verificationService := service.NewVerificationService(
		userRepo,
		cache.NewVerificationCache(redisstore.NewStore(redisClient), cfg.VerificationTTL),
		emailSender,
		eventProducer,
		service.VerificationConfig{From: cfg.EmailFrom, Window: cfg.VerificationWindow},
		logger,
	)
	accountService := service.NewAccountService(userRepo, tokens, hasher, verificationService, eventProducer, logger)
	postService := service.NewPostService(postRepo, accountService, logger)
	commentService := service.NewCommentService(commentRepo, accountService, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	authLimiter := middleware.NewIPRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, 10*time.Minute)
	router := handler.NewRouter(handler.Services{
		Accounts:     accountService,
		Verification: verificationService,
		Posts:        postService,
		Comments:     commentService,
	}, tokens, healthHandler, logger, handler.RouterConfig{
		ServiceName: serviceName,
		CORS:        middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins},
		AuthLimiter: authLimiter,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		accounts:       accountService,
		authLimiter:    authLimiter,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newSender picks the email transport named by the configuration.
func newSender(cfg *config.Config, logger *slog.Logger) sender.Sender {
	if cfg.EmailTransport != config.EmailTransportSendGrid {
		logger.Info("using log email sender")
		return mocksender.NewLogSender(logger)
	}

	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.Config{
			Timeout:      10 * time.Second,
			MaxRetries:   2,
			RetryWaitMin: 200 * time.Millisecond,
			RetryWaitMax: 2 * time.Second,
		}),
		httpclient.CircuitBreakerConfig{
			Name:         "sendgrid",
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			FailureRatio: 0.5,
			MinRequests:  5,
		},
		logger,
	)
	logger.Info("using sendgrid email sender")
	return sendgrid.NewSender(client, sendgrid.Config{APIKey: cfg.SendGridAPIKey, BaseURL: cfg.SendGridBaseURL})
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go a.authLimiter.Run(ctx)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Background verification emails started by sign-ups
// 3. Tracer (flush pending spans)
// 4. Kafka producer
// 5. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Let pending verification emails finish; each has its own timeout.
	a.accounts.Wait()

	// 3. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 5. Close Redis and PostgreSQL.
	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

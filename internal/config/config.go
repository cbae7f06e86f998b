package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/MicroblogGo/pkg/config"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Email transports.
const (
	EmailTransportLog      = "log"
	EmailTransportSendGrid = "sendgrid"
)

// Config holds all configuration for the microblog service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"microblog"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"microblog_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"microblog"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`
	SlowQueryThresholdMs  int   `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth
	JWTSecret          string  `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	// BcryptCost outside bcrypt's range falls back to its default cost.
	BcryptCost         int     `env:"BCRYPT_COST" envDefault:"12"`
	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// Email verification
	EmailTransport     string        `env:"EMAIL_TRANSPORT" envDefault:"log"`
	EmailFrom          string        `env:"EMAIL_FROM" envDefault:"noreply@microblog.local"`
	SendGridAPIKey     string        `env:"SENDGRID_API_KEY"`
	SendGridBaseURL    string        `env:"SENDGRID_BASE_URL" envDefault:"https://api.sendgrid.com"`
	VerificationTTL    time.Duration `env:"VERIFICATION_TTL" envDefault:"24h"`
	VerificationWindow time.Duration `env:"VERIFICATION_RESEND_WINDOW" envDefault:"60s"`

	// Seeding
	AdminsFile string `env:"ADMINS_FILE"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from the environment, after any dotenv files.
func Load(dotenvFiles ...string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, dotenvFiles...); err != nil {
		return nil, fmt.Errorf("load microblog config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}

	switch c.EmailTransport {
	case EmailTransportLog:
	case EmailTransportSendGrid:
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when EMAIL_TRANSPORT is %q", EmailTransportSendGrid)
		}
	default:
		return fmt.Errorf("invalid EMAIL_TRANSPORT %q: must be %q or %q", c.EmailTransport, EmailTransportLog, EmailTransportSendGrid)
	}

	if c.VerificationTTL <= 0 {
		return fmt.Errorf("VERIFICATION_TTL must be positive, got %s", c.VerificationTTL)
	}
	if c.VerificationWindow <= 0 || c.VerificationWindow > c.VerificationTTL {
		return fmt.Errorf("VERIFICATION_RESEND_WINDOW must be positive and at most VERIFICATION_TTL, got %s", c.VerificationWindow)
	}

	return nil
}

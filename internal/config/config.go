// Package config loads and validates app config from env and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Env is the application environment ("development", "production", ...).
	Env string `mapstructure:"APP_ENV"`

	// DatabaseURL is a full Postgres URL; when empty it is built from the DB_* parts.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBSSLMode   string `mapstructure:"DB_SSLMODE"`

	// AuthJWTSecret is the HS256 secret shared with the identity provider.
	AuthJWTSecret string `mapstructure:"AUTH_JWT_SECRET"`
	// AuthJWTIssuer, when set, must match the iss claim.
	AuthJWTIssuer string `mapstructure:"AUTH_JWT_ISSUER"`

	RateLimitRequests int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow   time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	RateLimitSweep    time.Duration `mapstructure:"RATE_LIMIT_SWEEP"`
	// RedisAddr switches rate limiting to the shared Redis limiter.
	RedisAddr string `mapstructure:"REDIS_ADDR"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripeCurrency      string `mapstructure:"STRIPE_CURRENCY"`

	// AMQPURL enables confirmation messages; empty disables publishing.
	AMQPURL      string `mapstructure:"AMQP_URL"`
	AMQPExchange string `mapstructure:"AMQP_EXCHANGE"`
	AMQPQueue    string `mapstructure:"AMQP_QUEUE"`

	SendGridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	MailFrom       string `mapstructure:"MAIL_FROM"`
	MailFromName   string `mapstructure:"MAIL_FROM_NAME"`

	RollbarToken string `mapstructure:"ROLLBAR_TOKEN"`
	Build        string `mapstructure:"BUILD"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName  string `mapstructure:"OTEL_SERVICE_NAME"`

	CORSAllowedOrigin string `mapstructure:"CORS_ALLOWED_ORIGIN"`
	// Timezone is the IANA zone tour booking dates and times are given in.
	Timezone string `mapstructure:"SCHOOL_TIMEZONE"`
}

var defaults = map[string]any{
	"HTTP_ADDR":                   ":8080",
	"APP_ENV":                     "development",
	"DATABASE_URL":                "",
	"DB_HOST":                     "localhost",
	"DB_PORT":                     "5432",
	"DB_USER":                     "postgres",
	"DB_PASSWORD":                 "postgres",
	"DB_NAME":                     "schoolportal",
	"DB_SSLMODE":                  "disable",
	"AUTH_JWT_SECRET":             "",
	"AUTH_JWT_ISSUER":             "",
	"RATE_LIMIT_REQUESTS":         10,
	"RATE_LIMIT_WINDOW":           time.Minute,
	"RATE_LIMIT_SWEEP":            time.Minute,
	"REDIS_ADDR":                  "",
	"STRIPE_SECRET_KEY":           "",
	"STRIPE_WEBHOOK_SECRET":       "",
	"STRIPE_CURRENCY":             "usd",
	"AMQP_URL":                    "",
	"AMQP_EXCHANGE":               "school-portal",
	"AMQP_QUEUE":                  "confirmation_emails",
	"SENDGRID_API_KEY":            "",
	"MAIL_FROM":                   "noreply@localhost",
	"MAIL_FROM_NAME":              "School Portal",
	"ROLLBAR_TOKEN":               "",
	"BUILD":                       "dev",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_EXPORTER_OTLP_INSECURE": false,
	"OTEL_SERVICE_NAME":           "school-portal",
	"CORS_ALLOWED_ORIGIN":         "*",
	"SCHOOL_TIMEZONE":             "UTC",
}

// Load reads .env (if present), then builds and validates Config from the environment.
// Env vars override .env values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.IsProduction() && c.AuthJWTSecret == "" {
		return errors.New("config: AUTH_JWT_SECRET must be set when APP_ENV=production")
	}
	if c.RateLimitRequests <= 0 {
		return errors.New("config: RATE_LIMIT_REQUESTS must be positive")
	}
	if c.RateLimitWindow <= 0 || c.RateLimitSweep <= 0 {
		return errors.New("config: RATE_LIMIT_WINDOW and RATE_LIMIT_SWEEP must be positive durations")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: SCHOOL_TIMEZONE: %w", err)
	}
	if c.StripeSecretKey != "" && c.StripeWebhookSecret == "" {
		return errors.New("config: STRIPE_WEBHOOK_SECRET must be set when STRIPE_SECRET_KEY is set")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Location returns the school's time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN returns the Postgres connection URL, accepted by both pgx and golang-migrate.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

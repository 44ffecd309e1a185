package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Admin AdminConfig

	// PublicAllowedOrigins is a comma-separated allowlist of origins allowed to call the API
	// from the browser (public site and dashboard). Example:
	//   https://www.example-taxi.in,http://localhost:3000
	PublicAllowedOrigins []string

	// BusinessTimezone decides what "today" means for booking checks.
	BusinessTimezone string

	// DraftTTL is how long an untouched booking wizard draft stays usable.
	DraftTTL time.Duration

	Cache  CacheConfig
	Kafka  KafkaConfig
	Notify NotifyConfig
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AdminConfig struct {
	// Password is exchanged for a short-lived session token at /v1/admin/login.
	Password string
	// TokenSecret signs admin session tokens (HS256).
	TokenSecret string
	TokenTTL    time.Duration
}

type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers      []string
	BookingTopic string
}

type NotifyConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	ToEmail        string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "taxibooking"),
			User:     env("DB_USER", "taxibooking"),
			Password: env("DB_PASSWORD", "taxibooking"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Admin: AdminConfig{
			Password:    os.Getenv("ADMIN_PASSWORD"),
			TokenSecret: os.Getenv("ADMIN_TOKEN_SECRET"),
			TokenTTL:    envDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		},

		PublicAllowedOrigins: envList("PUBLIC_ALLOWED_ORIGINS", "http://localhost:3000"),
		BusinessTimezone:     env("BUSINESS_TIMEZONE", "Asia/Kolkata"),
		DraftTTL:             envDuration("DRAFT_TTL", 24*time.Hour),

		Cache: CacheConfig{
			RedisURL: os.Getenv("REDIS_URL"),
			TTL:      envDuration("CACHE_TTL", 60*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      envList("KAFKA_BROKERS", ""),
			BookingTopic: env("KAFKA_BOOKING_TOPIC", "booking-events"),
		},
		Notify: NotifyConfig{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			FromEmail:      os.Getenv("NOTIFY_FROM_EMAIL"),
			FromName:       env("NOTIFY_FROM_NAME", "Bookings"),
			ToEmail:        os.Getenv("NOTIFY_TO_EMAIL"),
		},
	}
}

// Location returns the business timezone, falling back to UTC when the zone database lacks it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) IsProd() bool {
	return c.AppEnv == "prod"
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	// Bare numbers are seconds.
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

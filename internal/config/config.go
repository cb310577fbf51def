package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig configures the email and LINE delivery channels plus
// the deferred creation-notice timing.
type NotificationConfig struct {
	EmailFrom               string
	SMTPHost                string
	SMTPPort                string
	LinePushURL             string
	LineChannelToken        string
	SendTimeoutSeconds      int
	CreationDebounceSeconds int
	CreationFallbackSeconds int
	CreationDedupeTTLHours  int
	DispatchTimeoutSeconds  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "maintenance-ticket-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:               getEnv("NOTIFY_EMAIL_FROM", "maintenance@example.com"),
			SMTPHost:                os.Getenv("NOTIFY_SMTP_HOST"),
			SMTPPort:                getEnv("NOTIFY_SMTP_PORT", "25"),
			LinePushURL:             getEnv("NOTIFY_LINE_PUSH_URL", "https://api.line.me/v2/bot/message/push"),
			LineChannelToken:        os.Getenv("NOTIFY_LINE_CHANNEL_TOKEN"),
			SendTimeoutSeconds:      getEnvAsInt("NOTIFY_SEND_TIMEOUT_SECONDS", 10),
			CreationDebounceSeconds: getEnvAsInt("NOTIFY_CREATION_DEBOUNCE_SECONDS", 5),
			CreationFallbackSeconds: getEnvAsInt("NOTIFY_CREATION_FALLBACK_SECONDS", 120),
			CreationDedupeTTLHours:  getEnvAsInt("NOTIFY_CREATION_DEDUPE_TTL_HOURS", 24),
			DispatchTimeoutSeconds:  getEnvAsInt("NOTIFY_DISPATCH_TIMEOUT_SECONDS", 30),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SendTimeout bounds a single outbound notification call.
func (n NotificationConfig) SendTimeout() time.Duration {
	if n.SendTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.SendTimeoutSeconds) * time.Second
}

// CreationDebounce is the quiet window after an image upload before the
// creation notice fires.
func (n NotificationConfig) CreationDebounce() time.Duration {
	return time.Duration(n.CreationDebounceSeconds) * time.Second
}

// CreationFallback is the delay after ticket creation at which the creation
// notice fires even when no images were uploaded.
func (n NotificationConfig) CreationFallback() time.Duration {
	return time.Duration(n.CreationFallbackSeconds) * time.Second
}

// CreationDedupeTTL bounds the lifetime of the fire-once guard key.
func (n NotificationConfig) CreationDedupeTTL() time.Duration {
	return time.Duration(n.CreationDedupeTTLHours) * time.Hour
}

// DispatchTimeout bounds one event handler invocation.
func (n NotificationConfig) DispatchTimeout() time.Duration {
	if n.DispatchTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(n.DispatchTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

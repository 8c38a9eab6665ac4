package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr string

	// PostgresDSN selects the persistent stores. Empty means in-memory stores,
	// which is the mode used by tests and local development.
	PostgresDSN string

	Redis RedisConfig

	// KafkaBrokers enables the audit publisher when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	JWT JWTConfig

	Google GoogleConfig

	// ExtendedProfile requires gender and birth date in addition to phone
	// before a profile counts as complete. Profile completeness is judged by
	// the session controller, so only programs embedding it consume this
	// flag; the API server just reports it at startup.
	ExtendedProfile bool
}

// RedisConfig configures the revocation store connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// JWTConfig configures bearer token minting and validation.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	TokenTTL   time.Duration
}

// GoogleConfig configures the federated sign-in verifier. Empty ClientID
// disables federated sign-in.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func FromEnv() Config {
	cfg := Config{
		Addr:        envOr("PROFILEGATE_ADDR", ":8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		AuditTopic: envOr("AUDIT_TOPIC", "profilegate.audit"),
		JWT: JWTConfig{
			SigningKey: os.Getenv("JWT_SIGNING_KEY"),
			Issuer:     envOr("JWT_ISSUER", "profilegate"),
			Audience:   envOr("JWT_AUDIENCE", "profilegate-clients"),
			TokenTTL:   envDurationOr("JWT_TOKEN_TTL", time.Hour),
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
		ExtendedProfile: os.Getenv("EXTENDED_PROFILE") == "true",
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if cfg.JWT.SigningKey == "" {
		// Development default; must be overridden in production.
		cfg.JWT.SigningKey = "dev-secret-key-change-in-production"
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

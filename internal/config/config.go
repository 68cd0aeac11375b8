package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinSigningKeyBytes is the smallest accepted HS256 signing key.
const MinSigningKeyBytes = 32

// Revocation backends.
const (
	RevocationBackendMemory = "memory"
	RevocationBackendRedis  = "redis"
)

// ErrProcessLocalRevocation is returned by RequireSharedRevocation for the
// memory backend.
var ErrProcessLocalRevocation = errors.New("revocation backend is process-local")

// Config aggregates runtime configuration shared by the gateway, identity and support services.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Gateway      GatewayConfig
	Identity     IdentityConfig
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
	MigrationsDir  string
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

// AuthConfig defines token and revocation parameters.
type AuthConfig struct {
	JWTSecret             string
	JWTSecretBase64       bool
	AccessTokenTTLMinutes int
	BcryptCost            int
	RevocationBackend     string
	RevocationSweep       time.Duration
}

// GatewayConfig configures the edge.
type GatewayConfig struct {
	PublicRoutes []string
	// Upstreams maps a path prefix to a base URL.
	Upstreams map[string]string
}

// IdentityConfig points downstream services at the identity lookup endpoint.
type IdentityConfig struct {
	UserServiceURL string
	LookupTimeout  time.Duration
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// DefaultPublicRoutes are exempt from authentication at the edge.
var DefaultPublicRoutes = []string{
	"/auth/login",
	"/auth/register",
	"/auth/token",
	"/user/auth/login",
	"/user/auth/register",
	"/eureka",
	"/eureka/**",
	"/health/**",
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	upstreams, err := parseUpstreams(os.Getenv("GATEWAY_UPSTREAMS"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_UPSTREAMS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-mesh"),
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
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
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
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			JWTSecretBase64:       getEnvAsBool("AUTH_JWT_SECRET_BASE64", false),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			RevocationBackend:     strings.ToLower(getEnv("AUTH_REVOCATION_BACKEND", RevocationBackendRedis)),
			RevocationSweep:       getEnvAsDuration("AUTH_REVOCATION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Gateway: GatewayConfig{
			PublicRoutes: getEnvAsList("GATEWAY_PUBLIC_ROUTES", DefaultPublicRoutes),
			Upstreams:    upstreams,
		},
		Identity: IdentityConfig{
			UserServiceURL: getEnv("IDENTITY_USER_SERVICE_URL", "http://127.0.0.1:8081"),
			LookupTimeout:  getEnvAsDuration("IDENTITY_LOOKUP_TIMEOUT", 2*time.Second),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	switch cfg.Auth.RevocationBackend {
	case RevocationBackendMemory, RevocationBackendRedis:
	default:
		return nil, fmt.Errorf("invalid AUTH_REVOCATION_BACKEND %q", cfg.Auth.RevocationBackend)
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

// AccessTokenTTL returns the lifetime of issued tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// SigningKey decodes the configured secret and enforces the minimum key length.
func (a AuthConfig) SigningKey() ([]byte, error) {
	if a.JWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}
	key := []byte(a.JWTSecret)
	if a.JWTSecretBase64 {
		decoded, err := base64.StdEncoding.DecodeString(a.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("decode AUTH_JWT_SECRET: %w", err)
		}
		key = decoded
	}
	if len(key) < MinSigningKeyBytes {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", MinSigningKeyBytes, len(key))
	}
	return key, nil
}

// RequireSharedRevocation fails unless revocations are read from the shared
// store. Processes that validate tokens revoked elsewhere (the gateway, the
// support bearer fallback) never see revocations kept in another process.
func (a AuthConfig) RequireSharedRevocation() error {
	if a.RevocationBackend == RevocationBackendRedis {
		return nil
	}
	return fmt.Errorf("%w: AUTH_REVOCATION_BACKEND=%q, logouts in the identity service would stay valid here; use %q",
		ErrProcessLocalRevocation, a.RevocationBackend, RevocationBackendRedis)
}

func parseUpstreams(raw string) (map[string]string, error) {
	upstreams := make(map[string]string)
	for _, entry := range splitList(raw) {
		prefix, target, ok := strings.Cut(entry, "=")
		prefix, target = strings.TrimSpace(prefix), strings.TrimRight(strings.TrimSpace(target), "/")
		if !ok || !strings.HasPrefix(prefix, "/") || target == "" {
			return nil, fmt.Errorf("entry %q must look like /prefix=http://host:port", entry)
		}
		upstreams[prefix] = target
	}
	return upstreams, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	list := splitList(os.Getenv(key))
	if len(list) == 0 {
		return append([]string(nil), fallback...)
	}
	return list
}

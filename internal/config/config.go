package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DirectoryPostgres = "postgres"
	DirectoryMemory   = "memory"

	NotifierLog   = "log"
	NotifierRedis = "redis"

	minSecretLen = 32
)

// Config contains runtime configuration values.
type Config struct {
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	DirectoryDriver string        `env:"DIRECTORY_DRIVER" envDefault:"postgres"`
	DBMaxConns      int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	AutoMigrate     bool          `env:"AUTO_MIGRATE" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	JWTIssuer        string        `env:"JWT_ISSUER"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	PasswordHashTime    uint32 `env:"PASSWORD_HASH_TIME" envDefault:"3"`
	PasswordHashMemory  uint32 `env:"PASSWORD_HASH_MEMORY" envDefault:"65536"`
	PasswordHashThreads uint8  `env:"PASSWORD_HASH_THREADS" envDefault:"2"`

	NotifierDriver string        `env:"NOTIFIER_DRIVER" envDefault:"log"`
	NotifyQueue    string        `env:"NOTIFY_QUEUE" envDefault:"auth:notifications"`
	NotifyTimeout  time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`

	GoogleClientIDs []string `env:"GOOGLE_CLIENT_IDS" envSeparator:","`
	AppleClientIDs  []string `env:"APPLE_CLIENT_IDS" envSeparator:","`

	DefaultOrgSlug string `env:"DEFAULT_ORG_SLUG" envDefault:"default"`
	DefaultOrgName string `env:"DEFAULT_ORG_NAME" envDefault:"Default"`

	ServiceName          string   `env:"SERVICE_NAME" envDefault:"account-auth"`
	NodeID               int64    `env:"NODE_ID" envDefault:"1"`
	RateLimitRPM         int      `env:"RATE_LIMIT_RPM" envDefault:"100"`
	TelemetryEndpoint    string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TelemetryInsecure    bool     `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	CORSAllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PATCH,OPTIONS"`
	CORSAllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Authorization,Content-Type,X-Org-Slug"`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
}

// Load reads configuration from the environment, after merging a local .env file if present.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads configuration from the process environment and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.GoogleClientIDs = cleanList(cfg.GoogleClientIDs)
	cfg.AppleClientIDs = cleanList(cfg.AppleClientIDs)
	cfg.CORSAllowedOrigins = cleanList(cfg.CORSAllowedOrigins)
	cfg.CORSAllowedMethods = cleanList(cfg.CORSAllowedMethods)
	cfg.CORSAllowedHeaders = cleanList(cfg.CORSAllowedHeaders)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c Config) Validate() error {
	var errs []error

	switch c.DirectoryDriver {
	case DirectoryPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres directory"))
		}
	case DirectoryMemory:
	default:
		errs = append(errs, fmt.Errorf("DIRECTORY_DRIVER %q is not supported", c.DirectoryDriver))
	}

	switch c.NotifierDriver {
	case NotifierLog, NotifierRedis:
	default:
		errs = append(errs, fmt.Errorf("NOTIFIER_DRIVER %q is not supported", c.NotifierDriver))
	}

	if len(c.JWTAccessSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_ACCESS_SECRET must be at least %d bytes", minSecretLen))
	}
	if len(c.JWTRefreshSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_REFRESH_SECRET must be at least %d bytes", minSecretLen))
	}
	if c.JWTAccessSecret != "" && c.JWTAccessSecret == c.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		errs = append(errs, fmt.Errorf("NODE_ID %d is outside 0..1023", c.NodeID))
	}
	if strings.TrimSpace(c.DefaultOrgSlug) == "" {
		errs = append(errs, errors.New("DEFAULT_ORG_SLUG is required"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func cleanList(in []string) []string {
	var cleaned []string
	for _, p := range in {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinSessionSecretLen is the shortest accepted HMAC signing secret, in bytes.
const MinSessionSecretLen = 32

// Storage drivers.
const (
	StorageDynamo   = "dynamo"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all runtime configuration loaded from environment variables.
// It is built once in main and passed down explicitly.
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"3000"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// SessionSecret signs session tokens. There is no fallback value.
	SessionSecret string `env:"SESSION_SECRET"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"dynamo"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisURL      string `env:"REDIS_URL"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@example.com"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SNSRegion    string `env:"SNS_REGION" envDefault:"us-east-1"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	OTPTTL           time.Duration `env:"OTP_TTL" envDefault:"10m"`
	OTPDebug         bool          `env:"OTP_DEBUG" envDefault:"false"`
	OTPSweepInterval time.Duration `env:"OTP_SWEEP_INTERVAL" envDefault:"1h"`
	OTPSendLimit     int           `env:"OTP_SEND_LIMIT" envDefault:"5"`
	OTPSendWindow    time.Duration `env:"OTP_SEND_WINDOW" envDefault:"10m"`
	SigninLimit      int           `env:"SIGNIN_LIMIT" envDefault:"10"`
	SigninWindow     time.Duration `env:"SIGNIN_WINDOW" envDefault:"15m"`

	RoutePolicyFile string   `env:"ROUTE_POLICY_FILE"`
	AllowedOrigins  []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","` // CORS allowed origins

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-Ip. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts           string `env:"DYNAMO_TABLE_ACCOUNTS" envDefault:"accounts"`
	VerificationTokens string `env:"DYNAMO_TABLE_VERIFICATION_TOKENS" envDefault:"verification_tokens"`
}

// EdgeConfig configures the standalone route gate proxy.
type EdgeConfig struct {
	Port            string `env:"EDGE_PORT" envDefault:"8080"`
	AppEnv          string `env:"APP_ENV" envDefault:"development"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	UpstreamURL     string `env:"EDGE_UPSTREAM_URL"`
	SessionSecret   string `env:"SESSION_SECRET"`
	RoutePolicyFile string `env:"ROUTE_POLICY_FILE"`
}

// Load reads all configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEdge reads and validates the edge proxy configuration.
func LoadEdge() (*EdgeConfig, error) {
	var cfg EdgeConfig
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// IsProduction reports whether the service runs with production safeguards.
func (c *Config) IsProduction() bool { return isProduction(c.AppEnv) }

func (c *EdgeConfig) IsProduction() bool { return isProduction(c.AppEnv) }

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error
	if err := validateSecret(c.SessionSecret); err != nil {
		errs = append(errs, err)
	}
	switch c.StorageDriver {
	case StorageDynamo:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL must be set when STORAGE_DRIVER=postgres"))
		}
	case StorageMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("STORAGE_DRIVER=memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	if c.OTPTTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL must be positive"))
	}
	if c.OTPDebug && c.IsProduction() {
		errs = append(errs, errors.New("OTP_DEBUG must not be enabled in production"))
	}
	if c.OTPSweepInterval < 0 {
		errs = append(errs, errors.New("OTP_SWEEP_INTERVAL must not be negative"))
	}
	return errors.Join(errs...)
}

// Validate rejects edge configurations the proxy must not start with.
func (c *EdgeConfig) Validate() error {
	var errs []error
	if err := validateSecret(c.SessionSecret); err != nil {
		errs = append(errs, err)
	}
	if c.UpstreamURL == "" {
		errs = append(errs, errors.New("EDGE_UPSTREAM_URL must be set"))
	}
	return errors.Join(errs...)
}

func validateSecret(secret string) error {
	if secret == "" {
		return errors.New("SESSION_SECRET must be set")
	}
	if len(secret) < MinSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSessionSecretLen)
	}
	return nil
}

func isProduction(appEnv string) bool {
	return strings.EqualFold(appEnv, "production") || strings.EqualFold(appEnv, "prod")
}

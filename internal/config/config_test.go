package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, StorageDynamo, cfg.StorageDriver)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, "accounts", cfg.DynamoTables.Accounts)
	assert.Equal(t, "verification_tokens", cfg.DynamoTables.VerificationTokens)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.OTPDebug)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoad_MissingSecretIsFatal(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET must be set")
}

func TestValidate_ShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.SessionSecret = "short"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestValidate_DebugCodeForbiddenInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.AppEnv = "production"
	cfg.OTPDebug = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTP_DEBUG")

	cfg.AppEnv = "development"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := validConfig()
	cfg.StorageDriver = StoragePostgres
	assert.Error(t, cfg.Validate())

	cfg.DatabaseURL = "postgres://localhost/auth"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MemoryStoreForbiddenInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.StorageDriver = StorageMemory
	assert.NoError(t, cfg.Validate())

	cfg.AppEnv = "production"
	assert.Error(t, cfg.Validate())
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.StorageDriver = "mongo"
	assert.Error(t, cfg.Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.SessionSecret = ""
	cfg.OTPTTL = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, 2, len(strings.Split(err.Error(), "\n")))
}

func TestEdgeConfig_Validate(t *testing.T) {
	cfg := EdgeConfig{SessionSecret: testSecret}
	assert.Error(t, cfg.Validate())

	cfg.UpstreamURL = "http://localhost:3001"
	assert.NoError(t, cfg.Validate())
}

func validConfig() *Config {
	return &Config{
		AppEnv:        "development",
		SessionSecret: testSecret,
		StorageDriver: StorageDynamo,
		OTPTTL:        10 * time.Minute,
	}
}

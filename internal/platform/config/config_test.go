package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("KYC_ENV", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("ALLOW_INSECURE_TLS_FALLBACK", "")
	t.Setenv("KYC_ADMIN_TOKEN", "")
	t.Setenv("KYC_LOG_LEVEL", "")

	cfg := FromEnv()

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Server.AdminToken)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 250_000, cfg.Pipeline.MaxImageBytes)
	assert.Equal(t, 5, cfg.Verification.RegisterAttempts)
	assert.Equal(t, 2*time.Second, cfg.Verification.RegisterDelay)
	assert.False(t, cfg.Credential.AllowInsecureTLSFallback)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("KYC_ENV", "production")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092,b1:9092")
	t.Setenv("VERIFICATION_TOKEN_TIMEOUT", "12s")
	t.Setenv("PIPELINE_COMPRESS_WORKERS", "not-a-number")
	t.Setenv("KYC_ADMIN_TOKEN", "ops-secret")

	cfg := FromEnv()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 12*time.Second, cfg.Credential.Timeout)
	assert.Equal(t, 4, cfg.Pipeline.CompressWorker, "invalid ints fall back to the default")
	assert.Equal(t, "ops-secret", cfg.Server.AdminToken)
}

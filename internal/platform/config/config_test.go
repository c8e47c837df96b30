package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("FRAUDINTEL_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("LOW_QUOTA_RATIO", "")

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.InDelta(t, 0.9, cfg.Notification.LowQuotaRatio, 1e-9)
	assert.NotEmpty(t, cfg.JWTSigningKey)
	assert.Equal(t, 10000, cfg.Audit.BufferSize)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FRAUDINTEL_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,broker-1:9092,")
	t.Setenv("REDIS_DIAL_TIMEOUT", "250ms")
	t.Setenv("AUDIT_BUFFER_SIZE", "not-a-number")
	t.Setenv("LOW_QUOTA_RATIO", "0.75")
	t.Setenv("SEED_ACCOUNTS", "/etc/fraudintel/accounts.yaml")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Redis.DialTimeout)
	assert.Equal(t, 10000, cfg.Audit.BufferSize, "unparseable values fall back to defaults")
	assert.InDelta(t, 0.75, cfg.Notification.LowQuotaRatio, 1e-9)
	assert.Equal(t, "/etc/fraudintel/accounts.yaml", cfg.Database.SeedAccounts)
}

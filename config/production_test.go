package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SUPABASE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	validEnv(t)
	cfg := LoadFromEnv()

	assert.Equal(t, "P57", cfg.Ticket.NumberPrefix)
	assert.Equal(t, 3, cfg.Ticket.NumberMaxRetries)
	assert.Equal(t, "authenticated", cfg.Supabase.JWTAudience)
	assert.Equal(t, "feedback:", cfg.Cache.RedisPrefix)
	assert.False(t, cfg.Events.Enabled)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, 8*time.Second, cfg.AI.Timeout)
	require.NoError(t, ValidateProductionConfig(cfg))
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	validEnv(t)
	t.Setenv("SUPABASE_ADMIN_EMAILS", "owner@p57.studio, ,gm@p57.studio")
	t.Setenv("EVENTS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TICKET_NUMBER_MAX_RETRIES", "5")
	t.Setenv("CACHE_DEFAULT_TTL", "90s")
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg := LoadFromEnv()
	assert.Equal(t, []string{"owner@p57.studio", "gm@p57.studio"}, cfg.Supabase.AdminEmails)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)
	assert.Equal(t, 5, cfg.Ticket.NumberMaxRetries)
	assert.Equal(t, 90*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidateProductionConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ProductionConfig)
		wantErr string
	}{
		{"short jwt secret", func(c *ProductionConfig) { c.Supabase.JWTSecret = "short" }, "SUPABASE_JWT_SECRET must be at least 32"},
		{"missing password", func(c *ProductionConfig) { c.Database.Password = "" }, "DB_PASSWORD is required"},
		{"bad log level", func(c *ProductionConfig) { c.Logging.Level = "trace" }, "LOG_LEVEL"},
		{"events without topic", func(c *ProductionConfig) { c.Events.Enabled = true; c.Events.Topic = "" }, "EVENTS_TOPIC"},
		{"ai without url", func(c *ProductionConfig) { c.AI.Enabled = true }, "AI_BASE_URL"},
		{"empty ticket prefix", func(c *ProductionConfig) { c.Ticket.NumberPrefix = "" }, "TICKET_NUMBER_PREFIX"},
		{"negative retries", func(c *ProductionConfig) { c.Ticket.NumberMaxRetries = -1 }, "TICKET_NUMBER_MAX_RETRIES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validEnv(t)
			cfg := LoadFromEnv()
			tt.mutate(cfg)
			err := ValidateProductionConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoggingConfigEnabled(t *testing.T) {
	tests := []struct {
		configured string
		level      string
		want       bool
	}{
		{"debug", "debug", true},
		{"info", "debug", false},
		{"info", "info", true},
		{"warn", "info", false},
		{"warn", "error", true},
		{"error", "warn", false},
		{"", "info", true},
		{"", "debug", false},
	}

	for _, tt := range tests {
		t.Run(tt.configured+"/"+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, LoggingConfig{Level: tt.configured}.Enabled(tt.level))
		})
	}
}

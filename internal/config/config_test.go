package config

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.False(t, config.Database.Enabled)
	assert.False(t, config.Redis.Enabled)

	assert.True(t, config.RecordSystem.UseMockData)
	assert.Equal(t, 30*time.Second, config.RecordSystem.TimeoutDuration())
	assert.Equal(t, 3, config.RecordSystem.RetryAttempts)
	assert.Equal(t, 2*time.Second, config.RecordSystem.BackoffDuration())
	assert.Equal(t, "sn_auth", config.RecordSystem.CredentialKey)

	assert.Equal(t, 300, config.Cache.TenantsStaleTime)
	assert.Equal(t, 300, config.Cache.ServicesStaleTime)
	assert.Equal(t, 600, config.Cache.DomainsStaleTime)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	t.Setenv("RECORD_SYSTEM_USE_MOCK_DATA", "false")
	t.Setenv("RECORD_SYSTEM_BASE_URL", "https://bloom.example.com/api")
	t.Setenv("CACHE_DOMAINS_STALE_TIME", "60")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, config.RecordSystem.UseMockData)
	assert.Equal(t, "https://bloom.example.com/api", config.RecordSystem.BaseURL)
	assert.Equal(t, 60, config.Cache.DomainsStaleTime)
}

func TestProvideRecordSystemConfig_SharesSection(t *testing.T) {
	cfg := &Config{RecordSystem: RecordSystemConfig{UseMockData: true}}
	rs := ProvideRecordSystemConfig(cfg)

	cfg.RecordSystem.UseMockData = false
	assert.False(t, rs.UseMockData, "section pointer should observe runtime changes")
}

func TestProperty_RecordSystemDurations(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("durations scale from configured units", prop.ForAll(
		func(timeout, backoff int) bool {
			c := RecordSystemConfig{Timeout: timeout, RateLimitBackoff: backoff}
			return c.TimeoutDuration() == time.Duration(timeout)*time.Second &&
				c.BackoffDuration() == time.Duration(backoff)*time.Millisecond
		},
		gen.IntRange(0, 600),
		gen.IntRange(0, 10000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	RecordSystem RecordSystemConfig `mapstructure:"record_system"`
	Features     FeaturesConfig     `mapstructure:"features"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Builder      BuilderConfig      `mapstructure:"builder"`
	API          APIConfig          `mapstructure:"api"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	IdleTimeout     int    `mapstructure:"idle_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration. The activity log falls back
// to memory when Enabled is false.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecordSystemConfig describes how to reach the external record system.
// UseMockData is read on every data-access call, so flipping it at runtime
// switches between fixtures and live calls.
type RecordSystemConfig struct {
	UseMockData      bool   `mapstructure:"use_mock_data"`
	Instance         string `mapstructure:"instance"`
	BaseURL          string `mapstructure:"base_url"`
	Timeout          int    `mapstructure:"timeout"`
	RetryAttempts    int    `mapstructure:"retry_attempts"`
	RateLimitBackoff int    `mapstructure:"rate_limit_backoff_ms"`
	CredentialKey    string `mapstructure:"credential_key"`
	BasicCredential  string `mapstructure:"basic_credential"`
}

// TimeoutDuration returns the per-request timeout.
func (c RecordSystemConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// BackoffDuration returns the fixed wait before the single 429 retry.
func (c RecordSystemConfig) BackoffDuration() time.Duration {
	return time.Duration(c.RateLimitBackoff) * time.Millisecond
}

// FeaturesConfig holds feature flags. Neither flag changes behavior yet.
type FeaturesConfig struct {
	EnableAnalytics    bool `mapstructure:"enable_analytics"`
	EnableRealtimeSync bool `mapstructure:"enable_realtime_sync"`
}

// CacheConfig holds query cache staleness windows in seconds
type CacheConfig struct {
	TenantsStaleTime  int `mapstructure:"tenants_stale_time"`
	ServicesStaleTime int `mapstructure:"services_stale_time"`
	DomainsStaleTime  int `mapstructure:"domains_stale_time"`
	Retention         int `mapstructure:"retention"`
}

// BuilderConfig holds configuration draft settings
type BuilderConfig struct {
	DraftTTL int `mapstructure:"draft_ttl"`
}

// APIConfig holds portal API settings
type APIConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	ActivityLimit  int     `mapstructure:"activity_limit"`
}

// Defaults registers default values on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.shutdown_timeout", 30)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "portal")
	v.SetDefault("database.dbname", "portal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("record_system.use_mock_data", true)
	v.SetDefault("record_system.instance", "")
	v.SetDefault("record_system.base_url", "/api")
	v.SetDefault("record_system.timeout", 30)
	v.SetDefault("record_system.retry_attempts", 3)
	v.SetDefault("record_system.rate_limit_backoff_ms", 2000)
	v.SetDefault("record_system.credential_key", "sn_auth")
	v.SetDefault("features.enable_analytics", false)
	v.SetDefault("features.enable_realtime_sync", false)
	v.SetDefault("cache.tenants_stale_time", 300)
	v.SetDefault("cache.services_stale_time", 300)
	v.SetDefault("cache.domains_stale_time", 600)
	v.SetDefault("cache.retention", 1800)
	v.SetDefault("builder.draft_ttl", 86400)
	v.SetDefault("api.rate_limit_rps", 50)
	v.SetDefault("api.rate_limit_burst", 100)
	v.SetDefault("api.activity_limit", 20)
}

// LoadConfig loads configuration from environment and config files
func LoadConfig() (*Config, error) {
	v := viper.New()
	Defaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ProvideRecordSystemConfig exposes the record system section on its own so
// data access depends on nothing else.
func ProvideRecordSystemConfig(cfg *Config) *RecordSystemConfig {
	return &cfg.RecordSystem
}

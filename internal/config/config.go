package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
	Health    HealthConfig    `mapstructure:"health"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type ProcessorConfig struct {
	BaseURL string `mapstructure:"PROCESSOR_BASE_URL"`
	APIKey  string `mapstructure:"PROCESSOR_API_KEY"`
	Timeout string `mapstructure:"PROCESSOR_TIMEOUT"`
}

type SchedulerConfig struct {
	Timezone string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	DefaultDiscountRate    string `mapstructure:"DEFAULT_DISCOUNT_RATE"`
	DiscountHorizonDays    int    `mapstructure:"DISCOUNT_HORIZON_DAYS"`
	RoundingToleranceCents int64  `mapstructure:"ROUNDING_TOLERANCE_CENTS"`
	QuoteCacheTTL          string `mapstructure:"QUOTE_CACHE_TTL"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("DEFAULT_DISCOUNT_RATE", "0.10")
	viper.SetDefault("DISCOUNT_HORIZON_DAYS", 0)
	viper.SetDefault("ROUNDING_TOLERANCE_CENTS", 1)
	viper.SetDefault("QUOTE_CACHE_TTL", "5m")
	viper.SetDefault("PROCESSOR_TIMEOUT", "10s")
	viper.SetDefault("SCHEDULER_TIMEZONE", "UTC")
	viper.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Processor.BaseURL == "" {
		return fmt.Errorf("PROCESSOR_BASE_URL is required")
	}

	if c.Business.RoundingToleranceCents < 0 {
		return fmt.Errorf("ROUNDING_TOLERANCE_CENTS must not be negative")
	}

	// Validate discount rate
	rate, err := decimal.NewFromString(c.Business.DefaultDiscountRate)
	if err != nil {
		return fmt.Errorf("DEFAULT_DISCOUNT_RATE must be a valid decimal: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("DEFAULT_DISCOUNT_RATE must be between 0 and 1")
	}

	// Validate quote cache TTL
	if _, err := time.ParseDuration(c.Business.QuoteCacheTTL); err != nil {
		return fmt.Errorf("QUOTE_CACHE_TTL must be a valid duration: %w", err)
	}

	// Validate processor timeout
	if _, err := time.ParseDuration(c.Processor.Timeout); err != nil {
		return fmt.Errorf("PROCESSOR_TIMEOUT must be a valid duration: %w", err)
	}

	// Validate health check timeout
	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetDefaultDiscountRate returns the default discount rate as decimal
func (c *Config) GetDefaultDiscountRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.DefaultDiscountRate)
	return rate
}

// GetQuoteCacheTTL returns the quote cache TTL as duration
func (c *Config) GetQuoteCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.QuoteCacheTTL)
	return ttl
}

// GetProcessorTimeout returns the processor client timeout as duration
func (c *Config) GetProcessorTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Processor.Timeout)
	return timeout
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load loads configuration from file. A .env file in the working directory is read
// first so that HOMEDASH_* variables defined there override file values.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")             // Current directory
		v.AddConfigPath("./configs")     // Project configs directory
		v.AddConfigPath("/etc/homedash") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides: HOMEDASH_DATA_PATH -> data.path
	v.SetEnvPrefix("HOMEDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)

	// Data defaults
	v.SetDefault("data.path", d.Data.Path)
	v.SetDefault("data.format", d.Data.Format)
	v.SetDefault("data.timestamp_column", d.Data.TimestampColumn)
	v.SetDefault("data.timezone", d.Data.Timezone)
	v.SetDefault("data.sheet", d.Data.Sheet)

	// Auth defaults
	v.SetDefault("auth.enabled", d.Auth.Enabled)
	v.SetDefault("auth.api_keys", d.Auth.APIKeys)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)

	// Queue defaults
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.subject", d.Queue.Subject)
	v.SetDefault("queue.redis_db", d.Queue.RedisDB)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	// Report defaults
	v.SetDefault("report.enabled", d.Report.Enabled)
	v.SetDefault("report.at", d.Report.At)
	v.SetDefault("report.room", d.Report.Room)
	v.SetDefault("report.timezone", d.Report.Timezone)

	// Breaker defaults
	v.SetDefault("breaker.enabled", d.Breaker.Enabled)
	v.SetDefault("breaker.max_requests", d.Breaker.MaxRequests)
	v.SetDefault("breaker.interval", d.Breaker.Interval)
	v.SetDefault("breaker.timeout", d.Breaker.Timeout)
	v.SetDefault("breaker.consecutive_failures", d.Breaker.ConsecutiveFailures)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigins:  "*",
		},
		Data: DataConfig{
			Path:            "./data/processed_with_ac_timestamp.csv",
			TimestampColumn: "AC_Timestamp",
			Timezone:        "UTC",
		},
		Auth: AuthConfig{
			Enabled: false,
			APIKeys: []string{},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			TimeFormat: "RFC3339",
		},
		Queue: QueueConfig{
			Type:         "memory",
			Subject:      "homedash.reports.daily",
			RedisStream:  "homedash",
			RedisGroup:   "homedash-group",
			KafkaGroupID: "homedash-reports",
		},
		Report: ReportConfig{
			Enabled: false,
			At:      "07:00",
			Room:    "LivingRoom",
		},
		Breaker: BreakerConfig{
			Enabled:             true,
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 3,
		},
	}
}

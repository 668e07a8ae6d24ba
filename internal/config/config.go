package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Report  ReportConfig  `mapstructure:"report"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`          // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"`     // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`  // fiber read timeout
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // fiber write timeout
	CORSOrigins  string        `mapstructure:"cors_origins"`  // comma separated, "*" for any
}

// DataConfig describes the sensor dataset loaded at startup
type DataConfig struct {
	Path            string `mapstructure:"path"`             // CSV or XLSX file
	Format          string `mapstructure:"format"`           // csv, xlsx or empty to infer from extension
	TimestampColumn string `mapstructure:"timestamp_column"` // header of the timestamp column
	Timezone        string `mapstructure:"timezone"`         // zone naive timestamps are read in ("Asia/Tokyo", "+09:00", "UTC")
	Sheet           string `mapstructure:"sheet"`            // XLSX sheet, first sheet when empty
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // memory (default), nats, redis, kafka
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication
	Subject  string `mapstructure:"subject"`  // Subject daily reports are published on

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "homedash")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "homedash-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// ReportConfig configures the scheduled daily report
type ReportConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	At       string `mapstructure:"at"`       // time of day, HH:MM
	Room     string `mapstructure:"room"`     // room summarized by the report
	Timezone string `mapstructure:"timezone"` // zone that defines "today"; data timezone when empty
}

// BreakerConfig configures the circuit breaker around queue publishes
type BreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	MaxRequests         uint32        `mapstructure:"max_requests"`         // requests allowed while half-open
	Interval            time.Duration `mapstructure:"interval"`             // closed-state counter reset period
	Timeout             time.Duration `mapstructure:"timeout"`              // open-state duration
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"` // failures that trip the breaker
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report config: %w", err)
	}

	if err := c.Breaker.Validate(); err != nil {
		return fmt.Errorf("breaker config: %w", err)
	}

	// Reports published on the memory queue never leave the process
	if c.Report.Enabled && c.Queue.IsMemory() {
		return fmt.Errorf("report config: report.enabled requires queue.type nats, redis or kafka")
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Validate validates data configuration
func (c *DataConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("data.path is required")
	}

	switch strings.ToLower(c.Format) {
	case "":
		ext := strings.ToLower(filepath.Ext(c.Path))
		if ext != ".csv" && ext != ".xlsx" {
			return fmt.Errorf("cannot infer data.format from %q, set csv or xlsx", c.Path)
		}
	case "csv", "xlsx":
	default:
		return fmt.Errorf("data.format must be 'csv' or 'xlsx'")
	}

	if c.Timezone != "" {
		if _, err := ParseTimezone(c.Timezone); err != nil {
			return fmt.Errorf("data.timezone: %w", err)
		}
	}

	return nil
}

// Validate validates auth configuration
func (c *AuthConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.APIKeys) == 0 {
		return fmt.Errorf("auth.api_keys is required when auth is enabled")
	}
	for i, key := range c.APIKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("auth.api_keys[%d] is empty", i)
		}
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "memory":
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("queue.url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 && c.URL == "" {
			return fmt.Errorf("queue.kafka_brokers or queue.url is required for kafka")
		}
	default:
		return fmt.Errorf("queue.type must be one of: memory, nats, redis, kafka")
	}

	if c.Subject == "" {
		return fmt.Errorf("queue.subject is required")
	}
	return nil
}

// IsMemory reports whether the in-process queue is selected
func (c *QueueConfig) IsMemory() bool {
	return c.Type == "" || c.Type == "memory"
}

// Validate validates report configuration
func (c *ReportConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, err := time.Parse("15:04", c.At); err != nil {
		return fmt.Errorf("report.at must be HH:MM, got %q", c.At)
	}
	if c.Room == "" {
		return fmt.Errorf("report.room is required")
	}
	if c.Timezone != "" {
		if _, err := ParseTimezone(c.Timezone); err != nil {
			return fmt.Errorf("report.timezone: %w", err)
		}
	}
	return nil
}

// Validate validates breaker configuration
func (c *BreakerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ConsecutiveFailures == 0 {
		return fmt.Errorf("breaker.consecutive_failures must be at least 1")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("breaker.timeout must be positive")
	}
	return nil
}

package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Pearson  PearsonConfig  `mapstructure:"pearson"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// BodyLimit caps request bodies in bytes; analysis payloads carry whole series
	BodyLimit int `mapstructure:"body_limit"`

	// RequestTimeout bounds a synchronous /v1/correlate run
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	JobSubject    string `mapstructure:"job_subject"`    // Subject analysis jobs are published on (default: "cets.jobs")
	ResultSubject string `mapstructure:"result_subject"` // Subject job results are published on (default: "cets.results")

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "cets")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "cets-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// AnalysisConfig holds the CETS tester parameters
type AnalysisConfig struct {
	SubLength      int     `mapstructure:"sub_length"` // 0 estimates the sub-series length per dimension
	TsRatio        float64 `mapstructure:"ts_ratio"`
	AcfRatio       float64 `mapstructure:"acf_ratio"`
	AdfRatio       float64 `mapstructure:"adf_ratio"`
	WidthRatio     float64 `mapstructure:"width_ratio"`
	SubLenMax      int     `mapstructure:"sub_len_max"`
	SubLenMin      int     `mapstructure:"sub_len_min"`
	R              int     `mapstructure:"r"`
	Alpha          float64 `mapstructure:"alpha"`
	NNDisThreshold float64 `mapstructure:"nn_dis_threshold"`
	Workers        int     `mapstructure:"workers"` // 0 uses GOMAXPROCS
	Seed           uint64  `mapstructure:"seed"`
}

// PearsonConfig configures the Pearson baseline tester
type PearsonConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// WorkerConfig configures the asynchronous job worker
type WorkerConfig struct {
	Concurrency int           `mapstructure:"concurrency"`  // Jobs processed at once
	JobTimeout  time.Duration `mapstructure:"job_timeout"`  // Per-job analysis deadline
	Compression string        `mapstructure:"compression"`  // Payload compression: snappy (default), none
	MetricsPort int           `mapstructure:"metrics_port"` // Port serving /health and /metrics; 0 disables
}

// DatasetConfig points the CLI at a dataset directory
type DatasetConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Pearson.Validate(); err != nil {
		return fmt.Errorf("pearson config: %w", err)
	}

	if err := c.Worker.Validate(); err != nil {
		return fmt.Errorf("worker config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.BodyLimit < 0 {
		return fmt.Errorf("body_limit cannot be negative")
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout cannot be negative")
	}

	return nil
}

// Validate validates authentication configuration
func (c *AuthConfig) Validate() error {
	if c.Enabled && len(c.APIKeys) == 0 {
		return fmt.Errorf("auth.api_keys is required when auth is enabled")
	}
	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "nats", "redis", "kafka", "memory":
	default:
		return fmt.Errorf("queue.type must be one of: nats, redis, kafka, memory")
	}

	if c.Type == "kafka" && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("queue.kafka_brokers is required for kafka")
	}

	if c.JobSubject == "" || c.ResultSubject == "" {
		return fmt.Errorf("queue.job_subject and queue.result_subject are required")
	}

	if c.JobSubject == c.ResultSubject {
		return fmt.Errorf("queue.job_subject and queue.result_subject cannot be the same")
	}

	return nil
}

// Validate checks the ranges the CETS tester accepts
func (c *AnalysisConfig) Validate() error {
	if c.SubLength < 0 {
		return fmt.Errorf("analysis.sub_length must be positive or 0")
	}

	if c.TsRatio < 1 || c.AcfRatio < 1 || c.AdfRatio < 1 {
		return fmt.Errorf("analysis.ts_ratio, acf_ratio and adf_ratio must be at least 1")
	}

	if c.WidthRatio <= 0 {
		return fmt.Errorf("analysis.width_ratio must be positive")
	}

	if c.SubLenMin < 1 || c.SubLenMax < c.SubLenMin {
		return fmt.Errorf("analysis.sub_len_min must be at least 1 and not exceed sub_len_max")
	}

	if c.R < 1 {
		return fmt.Errorf("analysis.r must be at least 1")
	}

	if c.NNDisThreshold < 0 {
		return fmt.Errorf("analysis.nn_dis_threshold cannot be negative")
	}

	if c.Workers < 0 {
		return fmt.Errorf("analysis.workers cannot be negative")
	}

	return nil
}

// Validate validates the Pearson baseline configuration
func (c *PearsonConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("pearson.threshold must be within [0, 1]")
	}
	return nil
}

// Validate validates worker configuration
func (c *WorkerConfig) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("worker.concurrency must be at least 1")
	}

	if c.JobTimeout <= 0 {
		return fmt.Errorf("worker.job_timeout must be positive")
	}

	if c.Compression != "snappy" && c.Compression != "none" {
		return fmt.Errorf("worker.compression must be 'snappy' or 'none'")
	}

	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("worker.metrics_port must be between 0 and 65535")
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

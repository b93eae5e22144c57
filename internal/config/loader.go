package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/cets")
	}

	setDefaults(v)

	// CETS_ANALYSIS_SUB_LENGTH overrides analysis.sub_length
	v.SetEnvPrefix("CETS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults mirrors DefaultConfig so that partial files and env-only
// deployments resolve to the same values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	v.SetDefault("auth.enabled", d.Auth.Enabled)
	v.SetDefault("auth.api_keys", d.Auth.APIKeys)

	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.job_subject", d.Queue.JobSubject)
	v.SetDefault("queue.result_subject", d.Queue.ResultSubject)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	v.SetDefault("analysis.sub_length", d.Analysis.SubLength)
	v.SetDefault("analysis.ts_ratio", d.Analysis.TsRatio)
	v.SetDefault("analysis.acf_ratio", d.Analysis.AcfRatio)
	v.SetDefault("analysis.adf_ratio", d.Analysis.AdfRatio)
	v.SetDefault("analysis.width_ratio", d.Analysis.WidthRatio)
	v.SetDefault("analysis.sub_len_max", d.Analysis.SubLenMax)
	v.SetDefault("analysis.sub_len_min", d.Analysis.SubLenMin)
	v.SetDefault("analysis.r", d.Analysis.R)
	v.SetDefault("analysis.alpha", d.Analysis.Alpha)
	v.SetDefault("analysis.nn_dis_threshold", d.Analysis.NNDisThreshold)
	v.SetDefault("analysis.workers", d.Analysis.Workers)
	v.SetDefault("analysis.seed", d.Analysis.Seed)

	v.SetDefault("pearson.threshold", d.Pearson.Threshold)

	v.SetDefault("worker.concurrency", d.Worker.Concurrency)
	v.SetDefault("worker.job_timeout", d.Worker.JobTimeout)
	v.SetDefault("worker.compression", d.Worker.Compression)
	v.SetDefault("worker.metrics_port", d.Worker.MetricsPort)

	v.SetDefault("dataset.dir", d.Dataset.Dir)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			HTTPPort:       5555,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   5 * time.Minute,
			BodyLimit:      64 * 1024 * 1024,
			RequestTimeout: 5 * time.Minute,
		},
		Queue: QueueConfig{
			Type:          "nats",
			URL:           "nats://localhost:4222",
			JobSubject:    "cets.jobs",
			ResultSubject: "cets.results",
			RedisStream:   "cets",
			RedisGroup:    "cets-group",
			KafkaGroupID:  "cets-worker",
		},
		Analysis: AnalysisConfig{
			SubLength:      0,
			TsRatio:        1,
			AcfRatio:       16,
			AdfRatio:       64,
			WidthRatio:     0.5,
			SubLenMax:      100,
			SubLenMin:      20,
			R:              3,
			Alpha:          1.96,
			NNDisThreshold: 0.0025,
			Workers:        0,
			Seed:           1,
		},
		Pearson: PearsonConfig{
			Threshold: 0.1,
		},
		Worker: WorkerConfig{
			Concurrency: 2,
			JobTimeout:  30 * time.Minute,
			Compression: "snappy",
			MetricsPort: 9101,
		},
		Dataset: DatasetConfig{
			Dir: "./data",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}

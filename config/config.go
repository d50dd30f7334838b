package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Optionflow OptionflowConfig `yaml:"optionflow"`
	Delta      DeltaConfig      `yaml:"delta"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type OptionflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// DeltaConfig configures the upstream exchange API client.
type DeltaConfig struct {
	BaseURL           string  `yaml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Timeout returns the request timeout as a duration.
func (c DeltaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FetchConfig is the control surface of the fetch orchestrator. These
// are plain configuration values; beyond validation there is no
// core-side interpretation.
type FetchConfig struct {
	Assets            []string `yaml:"assets"`
	MinOpenInterest   float64  `yaml:"min_open_interest"`
	Candlestick       bool     `yaml:"candlestick"`
	ResolutionMinutes int      `yaml:"resolution_minutes"`
	LookbackHours     int      `yaml:"lookback_hours"`
	TopPerType        int      `yaml:"top_per_type"`
	FetchOnStart      bool     `yaml:"fetch_on_start"`
}

type DashboardConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type ArchiveConfig struct {
	Enabled bool            `yaml:"enabled"`
	Dir     string          `yaml:"dir"`
	S3      ArchiveS3Config `yaml:"s3"`
}

type ArchiveS3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Delta: DeltaConfig{
			TimeoutSeconds:    10,
			RequestsPerSecond: 5,
		},
		Fetch: FetchConfig{
			Candlestick:       true,
			ResolutionMinutes: 60,
			LookbackHours:     24,
			TopPerType:        5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Archive.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Archive.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Archive.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Archive.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Archive.S3.Bucket = strings.TrimSpace(v)
		}
	}
	config.Archive.S3.Bucket = strings.TrimSpace(config.Archive.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Optionflow.Name == "" {
		return fmt.Errorf("optionflow.name is required")
	}
	if cfg.Optionflow.Version == "" {
		return fmt.Errorf("optionflow.version is required")
	}

	if len(cfg.Fetch.Assets) == 0 {
		return fmt.Errorf("fetch.assets must list at least one underlying asset")
	}
	if cfg.Fetch.MinOpenInterest < 0 {
		return fmt.Errorf("fetch.min_open_interest must not be negative")
	}
	if cfg.Fetch.ResolutionMinutes <= 0 {
		return fmt.Errorf("fetch.resolution_minutes must be greater than 0")
	}
	if cfg.Fetch.LookbackHours <= 0 {
		return fmt.Errorf("fetch.lookback_hours must be greater than 0")
	}
	if cfg.Fetch.Candlestick && cfg.Fetch.TopPerType <= 0 {
		return fmt.Errorf("fetch.top_per_type must be greater than 0 when candlesticks are enabled")
	}

	if cfg.Delta.TimeoutSeconds <= 0 {
		return fmt.Errorf("delta.timeout_seconds must be greater than 0")
	}

	if cfg.Archive.Enabled && cfg.Archive.Dir == "" && !cfg.Archive.S3.Enabled {
		return fmt.Errorf("archive.dir or archive.s3 is required when the archive is enabled")
	}
	if cfg.Archive.S3.Enabled {
		if cfg.Archive.S3.Bucket == "" {
			return fmt.Errorf("archive.s3.bucket is required when S3 archival is enabled")
		}
		if cfg.Archive.S3.Region == "" {
			return fmt.Errorf("archive.s3.region is required when S3 archival is enabled")
		}
	}

	return nil
}

// Package config defines the explicit configuration struct passed to every
// pipeline component at construction. There are no process-wide singletons;
// main loads one Config and hands it down.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults when the YAML leaves a field unset.
const (
	DefaultStagingDir     = "temp_cnpj_data"
	DefaultChunkSize      = 100000
	DefaultTimeoutSeconds = 30
	DefaultRetryCount     = 5
)

// Config struct for YAML configuration.
type Config struct {
	BaseURL    string `yaml:"BASE_URL"`
	StagingDir string `yaml:"STAGING_DIR"`

	DBHost     string `yaml:"DB_HOST"`
	DBPort     int    `yaml:"DB_PORT"`
	DBUser     string `yaml:"DB_USER"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBName     string `yaml:"DB_NAME"`
	DBSSLMode  string `yaml:"DB_SSLMODE"`

	ChunkSize      int `yaml:"CHUNK_SIZE"`
	TimeoutSeconds int `yaml:"TIMEOUT_SECONDS"`
	RetryCount     int `yaml:"RETRY_COUNT"`

	// Kafka settings are optional; ingestion events are disabled when no
	// brokers are configured.
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
}

// Load reads and parses a YAML config file and applies defaults.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset fields with the recognized default values.
func (c *Config) ApplyDefaults() {
	if c.StagingDir == "" {
		c.StagingDir = DefaultStagingDir
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.RetryCount <= 0 {
		c.RetryCount = DefaultRetryCount
	}
}

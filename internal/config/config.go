package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Converter backends.
const (
	ConverterDocling = "docling"
	ConverterLocal   = "local"
)

type Config struct {
	Port string `mapstructure:"port"`

	// Auth
	APIKey string `mapstructure:"api_key"`

	LogLevel string `mapstructure:"log_level"`

	// Conversion collaborator
	Converter          string        `mapstructure:"converter"`
	DoclingURL         string        `mapstructure:"docling_url"`
	DoclingTimeout     time.Duration `mapstructure:"docling_timeout"`
	DoclingUploadsPath string        `mapstructure:"docling_uploads_path"`

	// Worker pool
	WorkerCount  int `mapstructure:"worker_count"`
	MaxQueueSize int `mapstructure:"max_queue_size"`

	// Retry of transient conversion failures
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`

	// Chunking
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
	TocRulesFile string `mapstructure:"toc_rules_file"`

	// Job state
	JobTTL time.Duration `mapstructure:"job_ttl"`

	// Chunk store
	DBPath         string `mapstructure:"db_path"`
	StoreBatchSize int    `mapstructure:"store_batch_size"`

	// PDF
	PDFFallbackPdftotext bool `mapstructure:"pdf_fallback_pdftotext"`
}

var defaults = map[string]any{
	"port":                   "8090",
	"api_key":                "",
	"log_level":              "info",
	"converter":              ConverterDocling,
	"docling_url":            "http://localhost:5001",
	"docling_timeout":        10 * time.Minute,
	"docling_uploads_path":   "/app/uploads",
	"worker_count":           4,
	"max_queue_size":         100,
	"max_attempts":           3,
	"retry_delay":            2 * time.Second,
	"chunk_size":             1200,
	"chunk_overlap":          200,
	"toc_rules_file":         "",
	"job_ttl":                time.Hour,
	"db_path":                "data/docchunk.db",
	"store_batch_size":       100,
	"pdf_fallback_pdftotext": true,
}

// Load reads configuration from defaults, an optional YAML file and
// DOCCHUNK_* environment variables, in increasing precedence.
// An empty cfgFile looks for config.yaml in the working directory.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix("DOCCHUNK")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.clamp()
	return cfg, nil
}

func (c *Config) clamp() {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 100
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1200
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.DoclingTimeout <= 0 {
		c.DoclingTimeout = 10 * time.Minute
	}
	if c.DoclingUploadsPath == "" {
		c.DoclingUploadsPath = "/app/uploads"
	}
	if c.JobTTL <= 0 {
		c.JobTTL = time.Hour
	}
	if c.StoreBatchSize <= 0 {
		c.StoreBatchSize = 100
	}
	c.Converter = strings.ToLower(strings.TrimSpace(c.Converter))
}

func (c Config) Validate() error {
	switch c.Converter {
	case ConverterDocling:
		if c.DoclingURL == "" {
			return fmt.Errorf("docling_url is required for the docling converter")
		}
	case ConverterLocal:
	default:
		return fmt.Errorf("unknown converter %q (want %s or %s)", c.Converter, ConverterDocling, ConverterLocal)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	return nil
}

// ValidateServe adds the checks that only apply to the HTTP service.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required (DOCCHUNK_API_KEY)")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

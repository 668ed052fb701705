// Package config provides configuration management for mandrill operations.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds the global settings for DataFrame and salted-join operations.
type Config struct {
	// Parallel processing
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // minimum rows before operations go parallel
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`     // worker goroutines (0 = one per CPU)
	ChunkSize         int `json:"chunk_size" yaml:"chunk_size"`                 // rows per parallel chunk

	// Salted-join defaults
	DefaultSaltFactor  int     `json:"default_salt_factor" yaml:"default_salt_factor"`   // salt factor used when the caller passes none
	SkewShareThreshold float64 `json:"skew_share_threshold" yaml:"skew_share_threshold"` // key share of total rows above which salting is recommended
	SaltDelimiter      string  `json:"salt_delimiter" yaml:"salt_delimiter"`             // delimiter between key and salt index

	// Debugging
	VerboseLogging bool `json:"verbose_logging" yaml:"verbose_logging"`
}

// Default configuration values.
const (
	DefaultParallelThreshold  = 1000
	DefaultChunkSize          = 1000
	DefaultSaltFactor         = 10
	DefaultSkewShareThreshold = 0.01
	DefaultSaltDelimiter      = "-"
)

var (
	globalConfig Config
	configMutex  sync.RWMutex
)

func init() {
	globalConfig = NewConfig()
}

// NewConfig returns a configuration populated with defaults.
func NewConfig() Config {
	return Config{
		ParallelThreshold:  DefaultParallelThreshold,
		WorkerPoolSize:     0, // auto-detect
		ChunkSize:          DefaultChunkSize,
		DefaultSaltFactor:  DefaultSaltFactor,
		SkewShareThreshold: DefaultSkewShareThreshold,
		SaltDelimiter:      DefaultSaltDelimiter,
		VerboseLogging:     false,
	}
}

// Validate returns an error when the configuration is not usable.
func (c *Config) Validate() error {
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("ChunkSize must be positive, got %d", c.ChunkSize)
	}

	if c.DefaultSaltFactor < 1 {
		return fmt.Errorf("DefaultSaltFactor must be at least 1, got %d", c.DefaultSaltFactor)
	}

	if c.SkewShareThreshold <= 0.0 || c.SkewShareThreshold > 1.0 {
		return fmt.Errorf("SkewShareThreshold must be in (0, 1], got %f", c.SkewShareThreshold)
	}

	if c.SaltDelimiter == "" {
		return fmt.Errorf("SaltDelimiter must not be empty")
	}

	return nil
}

// WithDefaults fills zero values with their defaults and returns the result.
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = defaults.ChunkSize
	}
	if c.DefaultSaltFactor == 0 {
		c.DefaultSaltFactor = defaults.DefaultSaltFactor
	}
	if c.SkewShareThreshold == 0.0 {
		c.SkewShareThreshold = defaults.SkewShareThreshold
	}
	if c.SaltDelimiter == "" {
		c.SaltDelimiter = defaults.SaltDelimiter
	}

	return c
}

// SetGlobalConfig replaces the global configuration.
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration.
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON parses configuration from JSON data.
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from MANDRILL_* environment variables,
// starting from defaults.
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("MANDRILL_PARALLEL_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelThreshold = parsed
		}
	}

	if val := os.Getenv("MANDRILL_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerPoolSize = parsed
		}
	}

	if val := os.Getenv("MANDRILL_CHUNK_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ChunkSize = parsed
		}
	}

	if val := os.Getenv("MANDRILL_DEFAULT_SALT_FACTOR"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.DefaultSaltFactor = parsed
		}
	}

	if val := os.Getenv("MANDRILL_SKEW_SHARE_THRESHOLD"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.SkewShareThreshold = parsed
		}
	}

	if val := os.Getenv("MANDRILL_SALT_DELIMITER"); val != "" {
		config.SaltDelimiter = val
	}

	if val := os.Getenv("MANDRILL_VERBOSE_LOGGING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	return config
}

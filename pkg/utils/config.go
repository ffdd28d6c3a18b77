package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PHRASEHUB_"

type Config struct {
	HTTPAddr string         `yaml:"http_addr"`
	TCPAddr  string         `yaml:"tcp_addr"`
	GRPCAddr string         `yaml:"grpc_addr"`
	DBPath   string         `yaml:"db_path"`
	Log      LogConfig      `yaml:"log"`
	Search   SearchConfig   `yaml:"search"`
	Backends BackendsConfig `yaml:"backends"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`
}

type SearchConfig struct {
	Threshold              float64       `yaml:"threshold"`
	CrossCheckLimit        int           `yaml:"cross_check_limit"`
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures"`
	Timeout                time.Duration `yaml:"timeout"`
	CacheSize              int           `yaml:"cache_size"`
}

type BackendsConfig struct {
	GoogleBooks BackendConfig `yaml:"google_books"`
	OpenLibrary BackendConfig `yaml:"open_library"`
}

type BackendConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	PageSize          int           `yaml:"page_size"`
	MaxPages          int           `yaml:"max_pages"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	Timeout           time.Duration `yaml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr: ":8080",
		TCPAddr:  ":9090",
		GRPCAddr: ":9092",
		Log:      LogConfig{Level: "info", Format: "text"},
		Search: SearchConfig{
			Threshold:              0.22,
			MaxConsecutiveFailures: 5,
			Timeout:                2 * time.Minute,
			CacheSize:              256,
		},
		Backends: BackendsConfig{
			GoogleBooks: BackendConfig{
				Enabled:           true,
				BaseURL:           "https://www.googleapis.com",
				PageSize:          40,
				RequestsPerSecond: 20,
				Burst:             1,
				Timeout:           15 * time.Second,
			},
			OpenLibrary: BackendConfig{
				Enabled:           true,
				BaseURL:           "https://openlibrary.org",
				PageSize:          20,
				MaxPages:          10,
				RequestsPerSecond: 2,
				Burst:             1,
				Timeout:           30 * time.Second,
			},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, a
// .env file in the working directory and PHRASEHUB_* variables, in that
// order. An empty path skips the YAML file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	// a missing .env is fine
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v := strings.TrimSpace(os.Getenv(EnvPrefix + key)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("HTTP_ADDR", &c.HTTPAddr)
	str("TCP_ADDR", &c.TCPAddr)
	str("GRPC_ADDR", &c.GRPCAddr)
	str("DB_PATH", &c.DBPath)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)

	float("THRESHOLD", &c.Search.Threshold)
	integer("CROSS_CHECK_LIMIT", &c.Search.CrossCheckLimit)
	integer("MAX_CONSECUTIVE_FAILURES", &c.Search.MaxConsecutiveFailures)
	duration("SEARCH_TIMEOUT", &c.Search.Timeout)
	integer("CACHE_SIZE", &c.Search.CacheSize)

	for prefix, b := range map[string]*BackendConfig{
		"GOOGLE_BOOKS_": &c.Backends.GoogleBooks,
		"OPEN_LIBRARY_": &c.Backends.OpenLibrary,
	} {
		boolean(prefix+"ENABLED", &b.Enabled)
		str(prefix+"BASE_URL", &b.BaseURL)
		str(prefix+"API_KEY", &b.APIKey)
		integer(prefix+"PAGE_SIZE", &b.PageSize)
		integer(prefix+"MAX_PAGES", &b.MaxPages)
		float(prefix+"RPS", &b.RequestsPerSecond)
	}

	return errors.Join(errs...)
}

// Validate rejects values the search pipeline cannot work with.
func (c Config) Validate() error {
	if c.Search.Threshold <= 0 || c.Search.Threshold > 1 {
		return fmt.Errorf("config: search.threshold must be in (0, 1], got %v", c.Search.Threshold)
	}
	if c.Search.CrossCheckLimit < 0 {
		return fmt.Errorf("config: search.cross_check_limit must be non-negative, got %d", c.Search.CrossCheckLimit)
	}
	if c.Search.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("config: search.max_consecutive_failures must be non-negative, got %d", c.Search.MaxConsecutiveFailures)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	for name, b := range map[string]BackendConfig{
		"google_books": c.Backends.GoogleBooks,
		"open_library": c.Backends.OpenLibrary,
	} {
		if !b.Enabled {
			continue
		}
		if b.BaseURL == "" {
			return fmt.Errorf("config: backends.%s.base_url is required", name)
		}
		if b.PageSize < 0 || b.MaxPages < 0 || b.RequestsPerSecond < 0 {
			return fmt.Errorf("config: backends.%s: negative page_size, max_pages or requests_per_second", name)
		}
	}
	return nil
}

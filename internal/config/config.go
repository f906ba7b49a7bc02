// Package config loads visaguide settings.
//
// Resolution order (highest to lowest precedence):
//  1. Command line flags (applied by the caller)
//  2. VISAGUIDE_* environment variables, including those from a .env file
//  3. The YAML config file
//  4. Built-in defaults
package config

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
const EnvPrefix = "VISAGUIDE_"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds every setting of the client.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	DefaultVisa string        `yaml:"default_visa"`
	VisaTypes   []string      `yaml:"visa_types"`
	Timeout     time.Duration `yaml:"timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Cache CacheConfig `yaml:"cache"`

	FilterRollback    bool `yaml:"filter_rollback"`
	EvaluateThreshold int  `yaml:"evaluate_threshold"`

	BrowseAddr   string `yaml:"browse_addr"`
	KnowledgeDir string `yaml:"knowledge_dir"`
	ReportDir    string `yaml:"report_dir"`
}

// CacheConfig selects and configures the knowledge cache.
type CacheConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisPrefix   string        `yaml:"redis_prefix"`
	TTL           time.Duration `yaml:"ttl"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:           "http://localhost:5000",
		VisaTypes:         []string{"E", "L", "B"},
		LogLevel:          "info",
		LogFormat:         "text",
		EvaluateThreshold: 5,
		BrowseAddr:        ":8090",
		ReportDir:         ".",
		Cache: CacheConfig{
			Backend:     CacheMemory,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "visaguide:kb:",
			TTL:         time.Hour,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty; a missing file is an error) and the environment. A .env file
// in the working directory is loaded when present; it never overrides
// variables that are already set.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides fields from VISAGUIDE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("BASE_URL", &c.BaseURL)
	str("DEFAULT_VISA", &c.DefaultVisa)
	if v, ok := lookup(EnvPrefix + "VISA_TYPES"); ok {
		c.VisaTypes = splitList(v)
	}
	duration("TIMEOUT", &c.Timeout)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("CACHE", &c.Cache.Backend)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	integer("REDIS_DB", &c.Cache.RedisDB)
	str("REDIS_PREFIX", &c.Cache.RedisPrefix)
	duration("CACHE_TTL", &c.Cache.TTL)
	boolean("FILTER_ROLLBACK", &c.FilterRollback)
	integer("EVALUATE_THRESHOLD", &c.EvaluateThreshold)
	str("BROWSE_ADDR", &c.BrowseAddr)
	str("KNOWLEDGE_DIR", &c.KnowledgeDir)
	str("REPORT_DIR", &c.ReportDir)

	return errors.Join(errs...)
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.BaseURL == "" && c.KnowledgeDir == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.EvaluateThreshold < 1 {
		errs = append(errs, fmt.Errorf("evaluate_threshold must be positive, got %d", c.EvaluateThreshold))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

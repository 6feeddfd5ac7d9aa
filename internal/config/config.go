package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zamorofthat/shieldcore/duration"
)

// Config holds everything needed to build an engine from a file and
// environment overrides.
type Config struct {
	Key             string          `yaml:"key"`
	Characteristics []string        `yaml:"characteristics"`
	BlockCache      BlockCacheConfig `yaml:"block_cache"`
	Remote          RemoteConfig    `yaml:"remote"`
	Logging         LoggingConfig   `yaml:"logging"`
	Telemetry       TelemetryConfig `yaml:"telemetry"`
	Rules           []RuleConfig    `yaml:"rules"`
}

// BlockCacheConfig selects and configures the cached-block backend.
type BlockCacheConfig struct {
	Backend string      `yaml:"backend"` // "memory" or "redis"
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection configuration for the block cache.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// RemoteConfig configures the remote decision client used by
// remote-evaluated rules (RATE_LIMIT, SHIELD).
type RemoteConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// TelemetryConfig holds OpenTelemetry tracing configuration.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Exporter    string `yaml:"exporter"` // "otlp", "stdout", or "none"
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// RuleConfig is the YAML projection of a single rule primitive. Which
// fields apply depends on Type; config.Build rejects a config whose
// combination of fields and Type cannot be translated into a
// rules.LocalRule or remote-only placeholder.
type RuleConfig struct {
	Type     string   `yaml:"type"` // shield | rate_limit/<algorithm> | bot | email | sensitive_info
	Mode     string   `yaml:"mode"` // LIVE | DRY_RUN
	Max      int64    `yaml:"max"`
	Interval string   `yaml:"interval"` // duration string, e.g. "1m"
	Capacity int64    `yaml:"capacity"` // token bucket burst capacity
	Refill   int64    `yaml:"refill"`   // token bucket tokens per interval
	Allow    []string `yaml:"allow"`
	Deny     []string `yaml:"deny"`
	Block    []string `yaml:"block"`
}

// IntervalSeconds parses Interval using the same additive duration
// grammar the engine accepts elsewhere in request data.
func (r RuleConfig) IntervalSeconds() (int, error) {
	if r.Interval == "" {
		return 0, nil
	}
	return duration.Parse(r.Interval)
}

// Load reads and parses path, returning defaults() if it does not
// exist, then applies SHIELDCORE_* environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path from trusted CLI flag
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaults()
			cfg.applyEnvOverrides()
			if err := cfg.validate(); err != nil {
				return nil, fmt.Errorf("validating config: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config with sensible default values: an in-memory
// block cache, an empty remote endpoint, and a single shield rule.
func defaults() *Config {
	return &Config{
		Key:             "",
		Characteristics: []string{"ip.src"},
		BlockCache: BlockCacheConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "shieldcore:block:",
			},
		},
		Remote: RemoteConfig{
			Timeout: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Format: "json",
			Level:  "info",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Exporter:    "none",
			ServiceName: "shieldcore",
			Endpoint:    "localhost:4317",
			Insecure:    true,
		},
		Rules: []RuleConfig{
			{Type: "shield", Mode: "LIVE"},
		},
	}
}

// applyEnvOverrides applies environment variable overrides, mirroring
// the teacher's ELIDA_* override surface under a SHIELDCORE_* prefix.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SHIELDCORE_KEY"); v != "" {
		c.Key = v
	}
	if v := os.Getenv("SHIELDCORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SHIELDCORE_BLOCK_CACHE_BACKEND"); v != "" {
		c.BlockCache.Backend = v
	}
	if v := os.Getenv("SHIELDCORE_REDIS_ADDR"); v != "" {
		c.BlockCache.Redis.Addr = v
	}
	if v := os.Getenv("SHIELDCORE_REDIS_PASSWORD"); v != "" {
		c.BlockCache.Redis.Password = v
	}
	if v := os.Getenv("SHIELDCORE_REMOTE_ENDPOINT"); v != "" {
		c.Remote.Endpoint = v
	}
	if v := os.Getenv("SHIELDCORE_REMOTE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.Remote.Timeout = time.Duration(ms) * time.Millisecond
		}
	}

	if os.Getenv("SHIELDCORE_TELEMETRY_ENABLED") == "true" {
		c.Telemetry.Enabled = true
	}
	if v := os.Getenv("SHIELDCORE_TELEMETRY_EXPORTER"); v != "" {
		c.Telemetry.Exporter = v
	}
	if v := os.Getenv("SHIELDCORE_TELEMETRY_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Enabled = true
		c.Telemetry.Exporter = "otlp"
		c.Telemetry.Endpoint = v
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true" {
		c.Telemetry.Insecure = true
	}
}

// validate checks that the configuration is coherent enough to build
// an engine from.
func (c *Config) validate() error {
	if c.BlockCache.Backend != "memory" && c.BlockCache.Backend != "redis" {
		return fmt.Errorf("block_cache.backend must be \"memory\" or \"redis\", got %q", c.BlockCache.Backend)
	}
	if c.BlockCache.Backend == "redis" && c.BlockCache.Redis.Addr == "" {
		return fmt.Errorf("block_cache.redis.addr is required when backend is \"redis\"")
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("remote.timeout must be non-negative")
	}
	if len(c.Rules) == 0 {
		return fmt.Errorf("at least one rule is required")
	}
	if len(c.Rules) > 10 {
		return fmt.Errorf("at most 10 rules are supported, got %d", len(c.Rules))
	}
	for i, r := range c.Rules {
		if r.Mode != "" && r.Mode != "LIVE" && r.Mode != "DRY_RUN" {
			return fmt.Errorf("rules[%d].mode must be \"LIVE\" or \"DRY_RUN\", got %q", i, r.Mode)
		}
		if len(r.Allow) > 0 && len(r.Deny) > 0 {
			return fmt.Errorf("rules[%d]: allow and deny are mutually exclusive", i)
		}
	}
	return nil
}

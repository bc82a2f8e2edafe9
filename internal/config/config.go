// Package config loads and validates application configuration from YAML files
// and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Identity      IdentityConfig      `yaml:"identity"`
	RulePacks     RulePacksConfig     `yaml:"rule_packs"`
	Schema        SchemaConfig        `yaml:"schema"`
	Backup        BackupConfig        `yaml:"backup"`
	Evolution     EvolutionConfig     `yaml:"evolution"`
	Capability    CapabilityConfig    `yaml:"capability"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig describes Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// IdentityConfig describes JWT and identity provider settings. When
// Enabled is false the API runs unauthenticated, intended for local use.
type IdentityConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Issuer       string        `yaml:"issuer"`
	Audience     string        `yaml:"audience"`
	JWKSURL      string        `yaml:"jwks_url"`
	JWKSCacheTTL time.Duration `yaml:"jwks_cache_ttl"`
	Algorithms   []string      `yaml:"algorithms"`
}

// RulePacksConfig describes where to find validation rule pack YAML files.
type RulePacksConfig struct {
	Directories     []string `yaml:"directories"`
	HotReload       bool     `yaml:"hot_reload"`
	StrictChecksums bool     `yaml:"strict_checksums"`
}

// SchemaConfig describes the post-migration structural gate.
type SchemaConfig struct {
	Enabled bool `yaml:"enabled"`
	// SpecFile overrides the embedded flow schema when set.
	SpecFile string `yaml:"spec_file"`
}

// BackupConfig describes snapshot persistence settings.
type BackupConfig struct {
	// Driver selects the store: memory, filesystem, or postgres.
	Driver          string        `yaml:"driver"`
	Directory       string        `yaml:"directory"`
	DSNEnv          string        `yaml:"dsn_env"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// EvolutionConfig describes evolution execution settings.
type EvolutionConfig struct {
	Lock LockConfig `yaml:"lock"`
}

// LockConfig describes the per-document evolution lock.
type LockConfig struct {
	// Driver selects the locker: memory or redis.
	Driver  string        `yaml:"driver"`
	AddrEnv string        `yaml:"addr_env"`
	DB      int           `yaml:"db"`
	TTL     time.Duration `yaml:"ttl"`
}

// CapabilityConfig describes authorization settings.
type CapabilityConfig struct {
	StaticPolicyFile string      `yaml:"static_policy_file"`
	Cache            CacheConfig `yaml:"cache"`
}

// CacheConfig describes cache settings.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// ObservabilityConfig describes logging, tracing, and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Tracing  TracingConfig `yaml:"tracing"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// TracingConfig describes distributed tracing settings.
type TracingConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Exporter          string  `yaml:"exporter"`
	Endpoint          string  `yaml:"endpoint"`
	SamplingRate      float64 `yaml:"sampling_rate"`
	ForceSampleErrors bool    `yaml:"force_sample_errors"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			HandlerTimeout:  25 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type", "X-Correlation-Id"},
				MaxAge:         86400,
			},
		},
		Identity: IdentityConfig{
			Enabled:      true,
			JWKSCacheTTL: 1 * time.Hour,
			Algorithms:   []string{"RS256"},
		},
		RulePacks: RulePacksConfig{
			Directories:     []string{"/rulepacks"},
			StrictChecksums: true,
		},
		Schema: SchemaConfig{
			Enabled: true,
		},
		Backup: BackupConfig{
			Driver:          "memory",
			Directory:       "/var/lib/bosflow/backups",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Evolution: EvolutionConfig{
			Lock: LockConfig{
				Driver: "memory",
				TTL:    30 * time.Second,
			},
		},
		Capability: CapabilityConfig{
			Cache: CacheConfig{
				TTL:        5 * time.Minute,
				MaxEntries: 10000,
			},
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Tracing: TracingConfig{
				Exporter:     "otlp",
				SamplingRate: 0.1,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Identity.Enabled {
		if c.Identity.Issuer == "" {
			errs = append(errs, "identity.issuer is required")
		}
		if c.Identity.JWKSURL == "" {
			errs = append(errs, "identity.jwks_url is required")
		}
		if c.Identity.Audience == "" {
			errs = append(errs, "identity.audience is required")
		}
	}
	switch c.Backup.Driver {
	case "", "memory", "filesystem", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("backup.driver %q is not one of memory, filesystem, postgres", c.Backup.Driver))
	}
	if c.Backup.Driver == "filesystem" && c.Backup.Directory == "" {
		errs = append(errs, "backup.directory is required for the filesystem driver")
	}
	if c.Backup.Driver == "postgres" && c.Backup.DSNEnv == "" {
		errs = append(errs, "backup.dsn_env is required for the postgres driver")
	}
	switch c.Evolution.Lock.Driver {
	case "", "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("evolution.lock.driver %q is not one of memory, redis", c.Evolution.Lock.Driver))
	}
	if c.Evolution.Lock.Driver == "redis" && c.Evolution.Lock.AddrEnv == "" {
		errs = append(errs, "evolution.lock.addr_env is required for the redis driver")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads BOSFLOW_* environment variables and overrides config
// values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOSFLOW_SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BOSFLOW_IDENTITY_ISSUER"); v != "" {
		cfg.Identity.Issuer = v
	}
	if v := os.Getenv("BOSFLOW_IDENTITY_JWKS_URL"); v != "" {
		cfg.Identity.JWKSURL = v
	}
	if v := os.Getenv("BOSFLOW_IDENTITY_AUDIENCE"); v != "" {
		cfg.Identity.Audience = v
	}
	if v := os.Getenv("BOSFLOW_OBSERVABILITY_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("BOSFLOW_BACKUP_DRIVER"); v != "" {
		cfg.Backup.Driver = v
	}
	if v := os.Getenv("BOSFLOW_EVOLUTION_LOCK_DRIVER"); v != "" {
		cfg.Evolution.Lock.Driver = v
	}
}

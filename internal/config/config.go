// Package config loads tillsync configuration from a YAML file with
// environment-variable overrides, and validates the result against an
// embedded CUE schema before anything starts using it.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// RemoteConfig locates the remote API.
type RemoteConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key" json:"api_key"`
}

// Config is the full runtime configuration.
type Config struct {
	StorePath            string       `yaml:"store_path" json:"store_path"`
	TenantID             string       `yaml:"tenant_id" json:"tenant_id"`
	Remote               RemoteConfig `yaml:"remote" json:"remote"`
	DrainIntervalSeconds int          `yaml:"drain_interval_seconds" json:"drain_interval_seconds"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		StorePath:            "till.db",
		DrainIntervalSeconds: 30,
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides, then schema validation.
// A .env file in the working directory is honored if present.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // load .env if it exists

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.StorePath = getenv("TILLSYNC_STORE_PATH", cfg.StorePath)
	cfg.TenantID = getenv("TILLSYNC_TENANT_ID", cfg.TenantID)
	cfg.Remote.BaseURL = getenv("TILLSYNC_REMOTE_URL", cfg.Remote.BaseURL)
	cfg.Remote.APIKey = getenv("TILLSYNC_API_KEY", cfg.Remote.APIKey)
	if v := os.Getenv("TILLSYNC_DRAIN_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DrainIntervalSeconds = n
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Validate checks a configuration against the embedded CUE schema.
func Validate(cfg Config) error {
	cctx := cuecontext.New()

	schema := cctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup config schema: %w", err)
	}

	unified := def.Unify(cctx.Encode(cfg))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

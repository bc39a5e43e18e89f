// Package config loads the resolver configuration from YAML and the
// environment and builds the gateway, clients and registry from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gateway"
	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
	"github.com/Sternrassler/gathercontent-resolver/pkg/logging"
	"github.com/Sternrassler/gathercontent-resolver/pkg/pagination"
	"github.com/Sternrassler/gathercontent-resolver/pkg/ratelimit"
	"github.com/Sternrassler/gathercontent-resolver/pkg/registry"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Log logging.Config `yaml:"log"`

	// ListenAddr is the HTTP address of the serve command.
	ListenAddr string `yaml:"listen_addr"`

	// HTTPTimeout bounds one upstream HTTP attempt.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// MaxConcurrency bounds per-item fetches inside one GetItems call.
	MaxConcurrency int `yaml:"max_concurrency"`

	Throttle   ThrottleConfig      `yaml:"throttle"`
	Retry      gateway.RetryConfig `yaml:"retry"`
	Pagination pagination.Config   `yaml:"pagination"`

	Sources []SourceConfig `yaml:"sources"`
}

// ThrottleConfig is the shared request ceiling. With RedisAddr set the
// window lives in Redis and is shared by every process using it.
type ThrottleConfig struct {
	ratelimit.Policy `yaml:",inline"`

	RedisAddr string `yaml:"redis_addr"`
	RedisKey  string `yaml:"redis_key"`
}

// Credentials identify one GatherContent project.
type Credentials struct {
	APIUsername string `yaml:"api_username"`
	APIKey      string `yaml:"api_key"`
	ProjectID   string `yaml:"project_id"`
	APIHost     string `yaml:"api_host"`
}

// SourceConfig registers one source key.
type SourceConfig struct {
	Key         string `yaml:"key"`
	Credentials `yaml:",inline"`

	// Preview holds draft-read credentials. Empty fields inherit from
	// the published credentials.
	Preview *Credentials `yaml:"preview,omitempty"`
}

// DefaultConfig returns the default configuration with no sources.
func DefaultConfig() *Config {
	return &Config{
		Log: logging.Config{
			Level: logging.LevelInfo,
		},
		ListenAddr:     ":8080",
		HTTPTimeout:    30 * time.Second,
		MaxConcurrency: 10,
		Throttle: ThrottleConfig{
			Policy: ratelimit.DefaultPolicy(),
		},
		Retry:      gateway.DefaultRetryConfig(),
		Pagination: pagination.DefaultConfig(),
	}
}

// Load reads path, falling back to defaults when the file does not
// exist, and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. Credential
// variables target the default source, creating it when absent.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GATHERCONTENT_API_USERNAME"); v != "" {
		c.defaultSource().APIUsername = v
	}
	if v := os.Getenv("GATHERCONTENT_API_KEY"); v != "" {
		c.defaultSource().APIKey = v
	}
	if v := os.Getenv("GATHERCONTENT_PROJECT_ID"); v != "" {
		c.defaultSource().ProjectID = v
	}
	if v := os.Getenv("GATHERCONTENT_API_HOST"); v != "" {
		c.defaultSource().APIHost = v
	}

	if addr := os.Getenv("GATHERCONTENT_REDIS_ADDR"); addr != "" {
		c.Throttle.RedisAddr = addr
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = logging.LogLevel(strings.ToLower(level))
	}
	if port := os.Getenv("PORT"); port != "" {
		c.ListenAddr = ":" + port
	}
}

func (c *Config) defaultSource() *SourceConfig {
	for i := range c.Sources {
		if sourceKey(c.Sources[i].Key) == registry.DefaultSource {
			return &c.Sources[i]
		}
	}
	c.Sources = append(c.Sources, SourceConfig{Key: registry.DefaultSource})
	return &c.Sources[len(c.Sources)-1]
}

func sourceKey(key string) string {
	if key == "" {
		return registry.DefaultSource
	}
	return key
}

// Validate checks the configuration. Credential problems are reported as
// *gathercontent.ConfigurationError.
func (c *Config) Validate() error {
	if err := c.Throttle.Policy.Validate(); err != nil {
		return err
	}
	if c.Retry.Retries < 0 {
		return fmt.Errorf("retries must be >= 0 (got %d)", c.Retry.Retries)
	}
	if len(c.Sources) == 0 {
		return &gathercontent.ConfigurationError{
			Source: registry.DefaultSource,
			Err:    gathercontent.ErrMissingCredentials,
			Reason: "no sources configured (set GATHERCONTENT_API_USERNAME, GATHERCONTENT_API_KEY and GATHERCONTENT_PROJECT_ID)",
		}
	}

	seen := make(map[string]bool)
	for _, src := range c.Sources {
		key := sourceKey(src.Key)
		if seen[key] {
			return &gathercontent.ConfigurationError{Source: key, Err: gathercontent.ErrDuplicateSource}
		}
		seen[key] = true

		if missing := src.Credentials.missing(); len(missing) > 0 {
			return &gathercontent.ConfigurationError{
				Source: key,
				Err:    gathercontent.ErrMissingCredentials,
				Reason: strings.Join(missing, ", "),
			}
		}
	}
	return nil
}

func (cr Credentials) missing() []string {
	var missing []string
	if cr.APIUsername == "" {
		missing = append(missing, "api_username")
	}
	if cr.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if cr.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	return missing
}

// previewCredentials fills empty preview fields from the published ones.
func (s SourceConfig) previewCredentials() (Credentials, bool) {
	if s.Preview == nil {
		return Credentials{}, false
	}
	p := *s.Preview
	if p.APIUsername == "" {
		p.APIUsername = s.APIUsername
	}
	if p.APIKey == "" {
		p.APIKey = s.APIKey
	}
	if p.ProjectID == "" {
		p.ProjectID = s.ProjectID
	}
	if p.APIHost == "" {
		p.APIHost = s.APIHost
	}
	return p, true
}

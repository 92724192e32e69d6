// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package config

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/curio-dev/curio/internal/secrets"
	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level Curio configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Index     IndexConfig     `mapstructure:"index"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls how Curio listens for connections.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	// TrustedProxies lists CIDR ranges whose forwarded headers identify
	// the real client IP. Leave empty unless Curio sits behind a reverse
	// proxy you control.
	TrustedProxies []string `mapstructure:"trusted_proxies"`

	// RateLimitRPS throttles each client IP to this many requests per
	// second; zero disables throttling. RateLimitBurst is the spike
	// allowance above the sustained rate.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// StorageConfig selects the storage backend and where it keeps its data.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// EmbeddingConfig selects the embedding provider and model. Dimensions is
// the vector width every stored embedding must share; changing it on an
// existing store requires re-ingesting.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`

	// APIKey is either the credential itself or a keyring://service/key
	// reference resolved from the OS keyring at load time.
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// IndexConfig controls the embedding batch processor.
type IndexConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// SearchConfig bounds result sizes.
type SearchConfig struct {
	DefaultK int `mapstructure:"default_k"`
	MaxK     int `mapstructure:"max_k"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults applies Curio's default values to the given Viper instance.
// Keys without a meaningful default still get an empty one so Unmarshal
// sees their environment overrides.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "127.0.0.1:8787")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.rate_limit_rps", 0.0)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.data_dir", defaultDataDir())
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimensions", 1536)
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("index.batch_size", 128)
	v.SetDefault("search.default_k", 10)
	v.SetDefault("search.max_k", 100)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// SetupEnv configures environment variable overrides (prefix CURIO_,
// dots replaced with underscores: CURIO_SERVER_LISTEN overrides
// server.listen).
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("CURIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper unmarshals and validates a Config from an already-populated
// Viper instance. Callers are responsible for SetDefaults/SetupEnv and
// any config file reads.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix CURIO_).
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, curioerr.Errorf(curioerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	// Swap keyring:// references for the secrets they name before
	// unmarshalling, so provider clients never see a URI where a
	// credential belongs.
	if err := secrets.ResolveViperSecrets(v, secrets.NewKeyringStore()); err != nil {
		return nil, err
	}

	return FromViper(v)
}

// defaultDataDir returns ~/.local/share/curio, or a relative curio-data
// when the home directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "curio-data"
	}
	return filepath.Join(home, ".local", "share", "curio")
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than
// stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateIndex()...)
	errs = append(errs, c.validateSearch()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	host, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}
	_ = host // host can be empty (e.g., ":8080"), which is valid

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	for _, cidr := range c.Server.TrustedProxies {
		if strings.TrimSpace(cidr) == "" {
			continue
		}
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
				"config: server.trusted_proxies entry %q is not a CIDR range: %w",
				cidr, err,
			))
		}
	}

	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: server.rate_limit_rps must not be negative, got %g",
			c.Server.RateLimitRPS,
		))
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst <= 0 {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: server.rate_limit_burst must be positive when server.rate_limit_rps is set, got %d",
			c.Server.RateLimitBurst,
		))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite], got %q",
			c.Storage.Backend,
		))
	}

	if c.Storage.DataDir == "" {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue, "config: storage.data_dir must not be empty"))
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	validProviders := map[string]bool{"openai": true, "google": true, "hash": true}
	if !validProviders[c.Embedding.Provider] {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: embedding.provider must be one of [openai, google, hash], got %q",
			c.Embedding.Provider,
		))
	}

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: embedding.dimensions must be greater than 0, got %d",
			c.Embedding.Dimensions,
		))
	}

	return errs
}

func (c *Config) validateIndex() []error {
	var errs []error

	if c.Index.BatchSize <= 0 {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: index.batch_size must be greater than 0, got %d",
			c.Index.BatchSize,
		))
	}

	return errs
}

func (c *Config) validateSearch() []error {
	var errs []error

	if c.Search.DefaultK <= 0 {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: search.default_k must be greater than 0, got %d",
			c.Search.DefaultK,
		))
	}

	if c.Search.MaxK < c.Search.DefaultK {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: search.max_k must be at least search.default_k, got %d < %d",
			c.Search.MaxK, c.Search.DefaultK,
		))
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: logging.level must be one of [debug, info, warn, error], got %q",
			c.Logging.Level,
		))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, curioerr.Errorf(curioerr.CodeConfigValidateInvalidValue,
			"config: logging.format must be one of [text, json], got %q",
			c.Logging.Format,
		))
	}

	return errs
}

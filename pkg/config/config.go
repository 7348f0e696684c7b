// Package config loads pkgcompare settings.
//
// Settings are resolved in three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, by default $XDG_CONFIG_HOME/pkgcompare/config.toml
//     (falling back to ~/.config/pkgcompare/config.toml)
//  3. PKGCOMPARE_* environment variables, including any loaded from a
//     .env file in the working directory
//
// A missing config file is not an error.
//
// Example config.toml:
//
//	registry_url = "https://registry.npmjs.org"
//	http_timeout = "15s"
//	concurrency = 4
//	reuse_results = true
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	"github.com/matzehuels/pkgcompare/pkg/integrations"
	"github.com/matzehuels/pkgcompare/pkg/integrations/bundlephobia"
	"github.com/matzehuels/pkgcompare/pkg/integrations/downloads"
	"github.com/matzehuels/pkgcompare/pkg/integrations/npm"
	"github.com/matzehuels/pkgcompare/pkg/notify"
	"github.com/matzehuels/pkgcompare/pkg/panel"
)

const (
	appName   = "pkgcompare"
	fileName  = "config.toml"
	envPrefix = "PKGCOMPARE_"
)

// DefaultServeAddr is the listen address of the local API.
const DefaultServeAddr = "127.0.0.1:8080"

// Config holds every tunable setting.
type Config struct {
	RegistryURL       string        `toml:"registry_url"`
	DownloadsURL      string        `toml:"downloads_url"`
	BundleURL         string        `toml:"bundle_url"`
	HTTPTimeout       time.Duration `toml:"http_timeout"`
	Concurrency       int           `toml:"concurrency"`
	DownloadsStart    string        `toml:"downloads_start"`
	ReuseResults      bool          `toml:"reuse_results"`
	CircuitBreaker    bool          `toml:"circuit_breaker"`
	NotificationLimit int           `toml:"notification_limit"`
	ServeAddr         string        `toml:"serve_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RegistryURL:       npm.DefaultBaseURL,
		DownloadsURL:      downloads.DefaultBaseURL,
		BundleURL:         bundlephobia.DefaultBaseURL,
		HTTPTimeout:       integrations.DefaultTimeout,
		Concurrency:       panel.DefaultConcurrency,
		DownloadsStart:    downloads.DefaultStart,
		ReuseResults:      true,
		CircuitBreaker:    true,
		NotificationLimit: notify.DefaultLimit,
		ServeAddr:         DefaultServeAddr,
	}
}

// Dir returns the configuration directory using the XDG standard
// (~/.config/pkgcompare/).
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load resolves the configuration from path (empty for [DefaultPath]),
// a .env file in the working directory and the environment.
func Load(path string) (Config, error) {
	return LoadWithEnvFiles(path)
}

// LoadWithEnvFiles is like Load but reads the given .env files instead of
// the default one. Variables already set in the process win over the files.
func LoadWithEnvFiles(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "resolve config path")
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return cfg, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "load .env")
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		// The default .env is optional.
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		return godotenv.Load()
	}
	return godotenv.Load(files...)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(envPrefix + key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok && strings.TrimSpace(v) != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("REGISTRY_URL", &c.RegistryURL)
	str("DOWNLOADS_URL", &c.DownloadsURL)
	str("BUNDLE_URL", &c.BundleURL)
	str("DOWNLOADS_START", &c.DownloadsStart)
	str("SERVE_ADDR", &c.ServeAddr)
	num("CONCURRENCY", &c.Concurrency)
	num("NOTIFICATION_LIMIT", &c.NotificationLimit)
	flag("REUSE_RESULTS", &c.ReuseResults)
	flag("CIRCUIT_BREAKER", &c.CircuitBreaker)

	if v, ok := lookup(envPrefix + "HTTP_TIMEOUT"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sHTTP_TIMEOUT: %w", envPrefix, err))
		} else {
			c.HTTPTimeout = d
		}
	}

	if err := errors.Join(errs...); err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "invalid environment override")
	}
	return nil
}

// Validate checks every field.
func (c Config) Validate() error {
	for name, u := range map[string]string{
		"registry_url":  c.RegistryURL,
		"downloads_url": c.DownloadsURL,
		"bundle_url":    c.BundleURL,
	} {
		if err := pkgerrors.ValidateURL(u); err != nil {
			return pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "%s", name)
		}
	}
	if c.HTTPTimeout <= 0 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "http_timeout must be positive")
	}
	if c.Concurrency < 1 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "concurrency must be at least 1")
	}
	if c.NotificationLimit < 1 {
		return pkgerrors.New(pkgerrors.ErrCodeInvalidConfig, "notification_limit must be at least 1")
	}
	if err := downloads.ValidateStart(c.DownloadsStart); err != nil {
		return err
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

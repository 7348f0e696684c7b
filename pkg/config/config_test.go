package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, envPrefix) {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() is invalid: %v", err)
	}
	if cfg.RegistryURL != "https://registry.npmjs.org" {
		t.Errorf("RegistryURL = %q", cfg.RegistryURL)
	}
	if cfg.DownloadsStart != "2010-01-01" {
		t.Errorf("DownloadsStart = %q", cfg.DownloadsStart)
	}
	if !cfg.ReuseResults || !cfg.CircuitBreaker {
		t.Error("reuse and circuit breaker should default to on")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", `
registry_url = "http://localhost:4873"
http_timeout = "3s"
concurrency = 2
reuse_results = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.RegistryURL != "http://localhost:4873" {
		t.Errorf("RegistryURL = %q", cfg.RegistryURL)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.Concurrency != 2 || cfg.ReuseResults {
		t.Errorf("Concurrency=%d ReuseResults=%v", cfg.Concurrency, cfg.ReuseResults)
	}
	// Untouched keys keep their defaults.
	if cfg.BundleURL != Default().BundleURL {
		t.Errorf("BundleURL = %q", cfg.BundleURL)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", `concurrency = 2`+"\n"+`serve_addr = ":9000"`)
	t.Setenv("PKGCOMPARE_CONCURRENCY", "6")
	t.Setenv("PKGCOMPARE_HTTP_TIMEOUT", "750ms")
	t.Setenv("PKGCOMPARE_CIRCUIT_BREAKER", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Concurrency != 6 {
		t.Errorf("Concurrency = %d, want env value 6", cfg.Concurrency)
	}
	if cfg.HTTPTimeout != 750*time.Millisecond {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.CircuitBreaker {
		t.Error("CircuitBreaker should be disabled by env")
	}
	if cfg.ServeAddr != ":9000" {
		t.Errorf("ServeAddr = %q, want file value", cfg.ServeAddr)
	}
}

func TestEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "PKGCOMPARE_BUNDLE_URL=http://localhost:5000\nPKGCOMPARE_CONCURRENCY=3\n")
	t.Cleanup(func() {
		os.Unsetenv("PKGCOMPARE_BUNDLE_URL")
		os.Unsetenv("PKGCOMPARE_CONCURRENCY")
	})
	// Process environment wins over the file.
	t.Setenv("PKGCOMPARE_CONCURRENCY", "9")

	cfg, err := LoadWithEnvFiles(filepath.Join(dir, "none.toml"), envFile)
	if err != nil {
		t.Fatalf("LoadWithEnvFiles() error: %v", err)
	}
	if cfg.BundleURL != "http://localhost:5000" {
		t.Errorf("BundleURL = %q", cfg.BundleURL)
	}
	if cfg.Concurrency != 9 {
		t.Errorf("Concurrency = %d, want 9", cfg.Concurrency)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{"bad toml", `concurrency = = 1`, nil},
		{"bad url", `registry_url = "ftp://example.com"`, nil},
		{"zero concurrency", `concurrency = 0`, nil},
		{"bad start date", `downloads_start = "last year"`, nil},
		{"bad env number", ``, map[string]string{"PKGCOMPARE_CONCURRENCY": "many"}},
		{"bad env bool", ``, map[string]string{"PKGCOMPARE_REUSE_RESULTS": "sometimes"}},
		{"bad env duration", ``, map[string]string{"PKGCOMPARE_HTTP_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeFile(t, t.TempDir(), "config.toml", tt.file)
			_, err := Load(path)
			if !pkgerrors.Is(err, pkgerrors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestDefaultPathXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error: %v", err)
	}
	if want := filepath.Join(dir, "pkgcompare", "config.toml"); path != want {
		t.Errorf("DefaultPath() = %q, want %q", path, want)
	}
}

func TestDefaultPathHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".config", "pkgcompare", "config.toml"); path != want {
		t.Errorf("DefaultPath() = %q, want %q", path, want)
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Encode(&buf); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"registry_url", "bundle_url", "concurrency", "reuse_results"} {
		if !strings.Contains(out, want) {
			t.Errorf("Encode() output missing %q:\n%s", want, out)
		}
	}
}

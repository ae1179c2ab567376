package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Player != "mpv" {
		t.Errorf("default player = %q, want mpv", cfg.Player)
	}
	if cfg.Quality != 0 {
		t.Errorf("default quality = %d, want 0 (ask)", cfg.Quality)
	}
	if cfg.BatchSeriesCount != 20 {
		t.Errorf("default batch_series_count = %d, want 20", cfg.BatchSeriesCount)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", cfg.Timeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid player", func(c *Config) { c.Player = "notepad" }, true},
		{"invalid quality", func(c *Config) { c.Quality = 4 }, true},
		{"negative quality", func(c *Config) { c.Quality = -1 }, true},
		{"empty base", func(c *Config) { c.BaseURL = "" }, true},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }, true},
		{"zero workers", func(c *Config) { c.BatchSeriesCount = 0 }, true},
		{"zero cache ttl", func(c *Config) { c.SeriesCacheMinutes = 0 }, true},
		{"negative cache ttl", func(c *Config) { c.SeriesCacheMinutes = -5 }, true},
		{"proxy without list", func(c *Config) { c.UseProxy = true; c.ProxyListURL = "" }, true},
		{"valid vlc", func(c *Config) { c.Player = "vlc" }, false},
		{"valid 1080", func(c *Config) { c.Quality = 3 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "lostfilm")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	content := `
base_url = "https://example.com"
login = "user@example.com"
player = "vlc"
quality = 2
use_proxy = true
history = false
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BaseURL != "https://example.com" {
		t.Errorf("base_url = %q, want https://example.com", cfg.BaseURL)
	}
	if cfg.Login != "user@example.com" {
		t.Errorf("login = %q", cfg.Login)
	}
	if cfg.Player != "vlc" {
		t.Errorf("player = %q, want vlc", cfg.Player)
	}
	if cfg.Quality != 2 {
		t.Errorf("quality = %d, want 2", cfg.Quality)
	}
	if !cfg.UseProxy {
		t.Error("use_proxy should be true")
	}
	if cfg.History {
		t.Error("history should be false")
	}
	// Unset keys keep their defaults.
	if cfg.BatchSeriesCount != 20 {
		t.Errorf("batch_series_count = %d, want default 20", cfg.BatchSeriesCount)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.Player != "mpv" {
		t.Errorf("missing file should return defaults, got player = %q", cfg.Player)
	}
}

func TestDisableProxy(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.UseProxy = true
	cfg.Login = "someone"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if err := DisableProxy(); err != nil {
		t.Fatalf("DisableProxy() error: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.UseProxy {
		t.Error("use_proxy should be false after DisableProxy")
	}
	if got.Login != "someone" {
		t.Errorf("other settings must survive the write-back, login = %q", got.Login)
	}
}

func TestExpandDownloadDir(t *testing.T) {
	cfg := Default()
	cfg.DownloadDir = "/tmp/test-downloads"

	dir, err := cfg.ExpandDownloadDir()
	if err != nil {
		t.Fatalf("ExpandDownloadDir() error: %v", err)
	}
	if dir != "/tmp/test-downloads" {
		t.Errorf("got %q, want /tmp/test-downloads", dir)
	}
}

func TestDataPaths(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmpDir)

	jar, err := CookieJarPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(tmpDir, "lostfilm", "cookies"); jar != want {
		t.Errorf("CookieJarPath() = %q, want %q", jar, want)
	}

	db, err := DatabasePath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(tmpDir, "lostfilm", "lostfilm.db"); db != want {
		t.Errorf("DatabasePath() = %q, want %q", db, want)
	}

	tmp, err := TempDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(tmpDir, "lostfilm", "tmp"); tmp != want {
		t.Errorf("TempDir() = %q, want %q", tmp, want)
	}
}

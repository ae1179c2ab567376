// Package config handles TOML-based configuration loading, validation and the
// single write-back the scraper is allowed to perform (disabling proxy mode).
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	BaseURL            string `toml:"base_url"`
	Login              string `toml:"login"`
	Password           string `toml:"password"`
	Quality            int    `toml:"quality"` // 0 = always ask, 1..3 = SD, 720p, 1080p
	UseProxy           bool   `toml:"use_proxy"`
	ProxyListURL       string `toml:"proxy_list_url"`
	ProxyCheckURL      string `toml:"proxy_check_url"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	BatchSeriesCount   int    `toml:"batch_series_count"`
	BatchEpisodesCount int    `toml:"batch_episodes_count"`
	SeriesCacheMinutes int    `toml:"series_cache_minutes"`
	Player             string `toml:"player"`
	DownloadDir        string `toml:"download_dir"`
	ShowOriginalTitle  bool   `toml:"show_original_title"`
	History            bool   `toml:"history"`
	Debug              bool   `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:            "https://www.lostfilm.tv",
		Quality:            0,
		UseProxy:           false,
		ProxyListURL:       "https://api.proxyscrape.com/v2/?request=getproxies&protocol=http&anonymity=anonymous",
		ProxyCheckURL:      "https://www.lostfilm.tv/",
		TimeoutSeconds:     30,
		BatchSeriesCount:   20,
		BatchEpisodesCount: 5,
		SeriesCacheMinutes: 180,
		Player:             "mpv",
		DownloadDir:        "~/Videos/lostfilm",
		ShowOriginalTitle:  true,
		History:            true,
		Debug:              false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lostfilm"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "lostfilm"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to the config file, replacing it atomically.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(buf.Bytes()); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming config file: %w", err)
	}
	return nil
}

// DisableProxy turns proxy mode off in the persisted config. This is the only
// setting the scraper ever writes back.
func DisableProxy() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if !cfg.UseProxy {
		return nil
	}
	cfg.UseProxy = false
	return Save(cfg)
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if c.Quality < 0 || c.Quality > 3 {
		return fmt.Errorf("unsupported quality %d (valid: 0 = ask, 1 = SD, 2 = 720p, 3 = 1080p)", c.Quality)
	}

	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.TimeoutSeconds)
	}

	if c.BatchSeriesCount <= 0 {
		return fmt.Errorf("batch_series_count must be positive, got %d", c.BatchSeriesCount)
	}

	if c.BatchEpisodesCount <= 0 {
		return fmt.Errorf("batch_episodes_count must be positive, got %d", c.BatchEpisodesCount)
	}

	if c.SeriesCacheMinutes <= 0 {
		return fmt.Errorf("series_cache_minutes must be positive, got %d", c.SeriesCacheMinutes)
	}

	if c.UseProxy && c.ProxyListURL == "" {
		return fmt.Errorf("proxy_list_url is required when use_proxy is enabled")
	}

	return nil
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SeriesCacheTTL returns how long fetched series stay cached.
func (c *Config) SeriesCacheTTL() time.Duration {
	return time.Duration(c.SeriesCacheMinutes) * time.Minute
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// DataDir returns the XDG data directory holding cookies, torrents and the database.
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "lostfilm"), nil
}

// CookieJarPath returns the path of the persisted cookie jar.
func CookieJarPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cookies"), nil
}

// DatabasePath returns the path of the sqlite database.
func DatabasePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lostfilm.db"), nil
}

// TorrentsDir returns the directory downloaded .torrent files are kept in.
func TorrentsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "torrents"), nil
}

// TempDir returns the root of the per-stream temporary directories.
func TempDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tmp"), nil
}

// Package config provides types for handling configuration parameters.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config handles client-related constants and parameters.
type Config struct {
	APIBaseURL          string        `json:"api_base_url" env:"API_BASE_URL" env-default:"http://localhost:8000"`
	TokenStoragePath    string        `json:"token_storage_path" env:"TOKEN_STORAGE_PATH"`
	StorageKey          string        `json:"storage_key" env:"STORAGE_KEY"`
	AssetCacheDir       string        `json:"asset_cache_dir" env:"ASSET_CACHE_DIR"`
	DownloadDir         string        `json:"download_dir" env:"DOWNLOAD_DIR" env-default:"."`
	RequestTimeout      time.Duration `json:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"10s"`
	PreviewDebounce     time.Duration `json:"preview_debounce" env:"PREVIEW_DEBOUNCE" env-default:"350ms"`
	NoticeWindow        time.Duration `json:"unauthorized_notice_window" env:"UNAUTHORIZED_NOTICE_WINDOW" env-default:"3s"`
	LoginRedirectDelay  time.Duration `json:"login_redirect_delay" env:"LOGIN_REDIRECT_DELAY" env-default:"1200ms"`
	CompactHistoryLimit int           `json:"compact_history_limit" env:"COMPACT_HISTORY_LIMIT" env-default:"8"`
	ThumbnailFormat     string        `json:"thumbnail_format" env:"THUMBNAIL_FORMAT" env-default:"png"`
}

// ConfigPathEnv names the environment variable pointing to an optional JSON configuration file.
const ConfigPathEnv = "QRFORGE_CONFIG"

// NewDefaultConfiguration sets up a configuration from defaults and environment variables.
func NewDefaultConfiguration() (*Config, error) {
	cfg := Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.fillPaths()
	return &cfg, nil
}

// Load reads the JSON file at path (or the one named by QRFORGE_CONFIG when path is empty),
// then applies environment variables and defaults on top of it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path == "" {
		return NewDefaultConfiguration()
	}
	cfg := Config{}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	cfg.fillPaths()
	return &cfg, nil
}

// SetAPIBaseURL overrides the backend address, dropping any trailing slash.
func (c *Config) SetAPIBaseURL(addr string) {
	c.APIBaseURL = strings.TrimRight(addr, "/")
}

// fillPaths computes per-user locations that cannot be expressed as static defaults.
func (c *Config) fillPaths() {
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.TokenStoragePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.TokenStoragePath = filepath.Join(dir, "qrforge", "session.json")
	}
	if c.AssetCacheDir == "" {
		c.AssetCacheDir = filepath.Join(os.TempDir(), "qrforge-assets")
	}
}

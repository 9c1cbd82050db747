package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests

func TestNewDefaultConfiguration(t *testing.T) {
	os.Clearenv()
	_ = os.Setenv("API_BASE_URL", "https://qr.example.com/")
	_ = os.Setenv("TOKEN_STORAGE_PATH", "some_session.json")
	_ = os.Setenv("ASSET_CACHE_DIR", "some_cache")
	_ = os.Setenv("PREVIEW_DEBOUNCE", "500ms")
	_ = os.Setenv("COMPACT_HISTORY_LIMIT", "5")
	cfg, err := NewDefaultConfiguration()
	require.NoError(t, err)
	expCfg := Config{
		APIBaseURL:          "https://qr.example.com",
		TokenStoragePath:    "some_session.json",
		AssetCacheDir:       "some_cache",
		DownloadDir:         ".",
		RequestTimeout:      10 * time.Second,
		PreviewDebounce:     500 * time.Millisecond,
		NoticeWindow:        3 * time.Second,
		LoginRedirectDelay:  1200 * time.Millisecond,
		CompactHistoryLimit: 5,
		ThumbnailFormat:     "png",
	}
	assert.Equal(t, &expCfg, cfg)
}

func TestNewDefaultConfiguration_FillsPaths(t *testing.T) {
	os.Clearenv()
	cfg, err := NewDefaultConfiguration()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, "session.json", filepath.Base(cfg.TokenStoragePath))
	assert.Equal(t, "qrforge-assets", filepath.Base(cfg.AssetCacheDir))
}

func TestLoad_FileThenEnv(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "config_test.json")
	body := `{"api_base_url": "http://file-host:9000", "download_dir": "downloads", "thumbnail_format": "svg"}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	_ = os.Setenv("DOWNLOAD_DIR", "env_downloads")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://file-host:9000", cfg.APIBaseURL)
	assert.Equal(t, "env_downloads", cfg.DownloadDir)
	assert.Equal(t, "svg", cfg.ThumbnailFormat)
	assert.Equal(t, 8, cfg.CompactHistoryLimit)
}

func TestLoad_PathFromEnv(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "env_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"compact_history_limit": 3}`), 0600))
	_ = os.Setenv(ConfigPathEnv, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.CompactHistoryLimit)
}

func TestLoad_MissingFile(t *testing.T) {
	os.Clearenv()
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent_file.json"))
	assert.Error(t, err)
}

func TestConfig_SetAPIBaseURL(t *testing.T) {
	cfg := &Config{}
	cfg.SetAPIBaseURL("http://127.0.0.1:8000///")
	assert.Equal(t, "http://127.0.0.1:8000", cfg.APIBaseURL)
}

// Benchmarks

func BenchmarkNewDefaultConfiguration(b *testing.B) {
	os.Clearenv()
	_ = os.Setenv("API_BASE_URL", "https://qr.example.com")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = NewDefaultConfiguration()
	}
}

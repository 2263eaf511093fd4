package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MEDIA_ROOT", "MAX_CONCURRENT_DOWNLOADS", "EXTENSIONS", "PROBE_TIMEOUT", "STORE_CONFIG"} {
		t.Setenv(key, "")
	}

	cfg := Load(zap.NewNop())

	require.Equal(t, DefaultPort, cfg.Port)
	require.Equal(t, DefaultMediaRoot, cfg.MediaRoot)
	require.Equal(t, 5, cfg.MaxConcurrentDownloads)
	require.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	require.Equal(t, []string{"jpeg", "jpg", "mp4", "png", "gif", "webp"}, cfg.Extensions)
	require.Empty(t, cfg.StoreConfig)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MEDIA_ROOT", "/srv/media")
	t.Setenv("MAX_CONCURRENT_DOWNLOADS", "3")
	t.Setenv("EXTENSIONS", " .JPG, png ,,webm")
	t.Setenv("PAGE_TIMEOUT", "10s")
	t.Setenv("STORE_CONFIG", `{"db_type":"memory"}`)

	cfg := Load(zap.NewNop())

	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "/srv/media", cfg.MediaRoot)
	require.Equal(t, 3, cfg.MaxConcurrentDownloads)
	require.Equal(t, []string{"jpg", "png", "webm"}, cfg.Extensions)
	require.Equal(t, 10*time.Second, cfg.PageTimeout)
	require.Equal(t, `{"db_type":"memory"}`, cfg.StoreConfig)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_DOWNLOADS", "0")
	t.Setenv("RPS_BURST", "lots")
	t.Setenv("PROBE_TIMEOUT", "soon")

	cfg := Load(zap.NewNop())

	require.Equal(t, DefaultMaxConcurrentDownloads, cfg.MaxConcurrentDownloads)
	require.Equal(t, 100, cfg.RPSBurst)
	require.Equal(t, DefaultProbeTimeout, cfg.ProbeTimeout)
}

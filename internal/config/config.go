package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shaibs3/mediavault/internal/harvest"
	"go.uber.org/zap"
)

const (
	DefaultPort                   = "8080"
	DefaultMediaRoot              = "result"
	DefaultMaxConcurrentDownloads = harvest.DefaultMaxConcurrentDownloads
	DefaultPageTimeout            = 30 * time.Second
	DefaultProbeTimeout           = harvest.DefaultProbeTimeout
	DefaultUserAgent              = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
)

// DefaultExtensions is the media allow-list applied to extracted URLs
var DefaultExtensions = harvest.DefaultExtensions

// Config holds all runtime settings, sourced from the environment
type Config struct {
	Environment string
	LogLevel    string
	Port        string

	// StoreConfig is the JSON handed to the store provider factory
	StoreConfig string

	RPSLimit float64
	RPSBurst int

	MediaRoot              string
	MaxConcurrentDownloads int
	PageTimeout            time.Duration
	ProbeTimeout           time.Duration
	UserAgent              string
	Extensions             []string
}

// Load reads .env (if present) and the process environment
func Load(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", zap.Error(err))
	}

	l := loader{logger: logger}
	cfg := &Config{
		Environment:            l.str("ENVIRONMENT", "production"),
		LogLevel:               l.str("LOG_LEVEL", "info"),
		Port:                   l.str("PORT", DefaultPort),
		StoreConfig:            l.str("STORE_CONFIG", ""),
		RPSLimit:               l.float("RPS_LIMIT", 50),
		RPSBurst:               l.int("RPS_BURST", 100),
		MediaRoot:              l.str("MEDIA_ROOT", DefaultMediaRoot),
		MaxConcurrentDownloads: l.int("MAX_CONCURRENT_DOWNLOADS", DefaultMaxConcurrentDownloads),
		PageTimeout:            l.duration("PAGE_TIMEOUT", DefaultPageTimeout),
		ProbeTimeout:           l.duration("PROBE_TIMEOUT", DefaultProbeTimeout),
		UserAgent:              l.str("USER_AGENT", DefaultUserAgent),
		Extensions:             l.list("EXTENSIONS", DefaultExtensions),
	}

	if cfg.MaxConcurrentDownloads < 1 {
		logger.Warn("MAX_CONCURRENT_DOWNLOADS must be positive, using default",
			zap.Int("value", cfg.MaxConcurrentDownloads))
		cfg.MaxConcurrentDownloads = DefaultMaxConcurrentDownloads
	}

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("media_root", cfg.MediaRoot),
		zap.Int("max_concurrent_downloads", cfg.MaxConcurrentDownloads),
		zap.Strings("extensions", cfg.Extensions),
	)
	return cfg
}

type loader struct {
	logger *zap.Logger
}

func (l loader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (l loader) int(key string, def int) int {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		l.logger.Warn("invalid integer in environment, using default", zap.String("key", key), zap.String("value", raw))
		return def
	}
	return v
}

func (l loader) float(key string, def float64) float64 {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		l.logger.Warn("invalid number in environment, using default", zap.String("key", key), zap.String("value", raw))
		return def
	}
	return v
}

func (l loader) duration(key string, def time.Duration) time.Duration {
	raw := l.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		l.logger.Warn("invalid duration in environment, using default", zap.String("key", key), zap.String("value", raw))
		return def
	}
	return v
}

func (l loader) list(key string, def []string) []string {
	raw := l.str(key, "")
	if raw == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, strings.TrimPrefix(part, "."))
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

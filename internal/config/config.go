package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/mintaro/internal/editor"
)

type Config struct {
	Port string

	// Auth
	EditorAPIKey string

	// Remote document store; empty URL keeps saves in memory.
	PathstoreURL    string
	PathstoreAPIKey string
	SaveRetries     int

	// Sessions
	SessionTTL      time.Duration
	JanitorInterval time.Duration
	MaxSessions     int

	// Upload limits
	MaxUploadBytes int64
	MaxImportBytes int64

	// Editor defaults (YAML file)
	EditorConfig string

	// Logging
	LogLevel string
	LogFile  string

	// Save latency window
	StatsWindow time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		EditorAPIKey: os.Getenv("EDITOR_API_KEY"),

		PathstoreURL:    os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),
		SaveRetries:     envInt("SAVE_RETRIES", 3),

		SessionTTL:      envDuration("SESSION_TTL", 30*time.Minute),
		JanitorInterval: envDuration("JANITOR_INTERVAL", time.Minute),
		MaxSessions:     envInt("MAX_SESSIONS", 1000),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 5<<20),  // 5MB
		MaxImportBytes: envInt64("MAX_IMPORT_BYTES", 20<<20), // 20MB

		EditorConfig: os.Getenv("EDITOR_CONFIG"),

		LogLevel: envOr("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		StatsWindow: envDuration("STATS_WINDOW", time.Hour),
	}

	if cfg.SaveRetries <= 0 {
		cfg.SaveRetries = 3
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	if cfg.MaxImportBytes <= 0 {
		cfg.MaxImportBytes = 20 << 20
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.EditorAPIKey == "" {
		return fmt.Errorf("EDITOR_API_KEY is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps LOG_LEVEL onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return l, nil
}

// EditorDefaults reads the editor options file named by EDITOR_CONFIG. With
// no file configured the zero Options (all defaults) are returned. The
// image limit follows MAX_UPLOAD_BYTES unless the file sets one.
func (c Config) EditorDefaults() (editor.Options, error) {
	var opts editor.Options
	if c.EditorConfig != "" {
		data, err := os.ReadFile(c.EditorConfig)
		if err != nil {
			return editor.Options{}, fmt.Errorf("read editor config: %w", err)
		}
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return editor.Options{}, fmt.Errorf("parse editor config %s: %w", c.EditorConfig, err)
		}
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = c.MaxUploadBytes
	}
	return opts, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

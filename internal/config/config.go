// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/callmap/internal/geo"
)

// Config holds the application configuration.
type Config struct {
	ContractStart time.Time
	TermEnd       time.Time
	DatasetPath   string
	DatabasePath  string
	MapImagePath  string
	ExportDir     string
	LogPath       string
	LogLevel      string
	MapBounds     geo.Bounds
	PrepaidCredit float64
	WatchDataset  bool
	Notify        bool
}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatasetPath:   getEnvString("DATASET_PATH", defaultDatasetPath),
		DatabasePath:  getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		MapImagePath:  getEnvString("MAP_IMAGE_PATH", ""),
		ExportDir:     getEnvString("EXPORT_DIR", "."),
		LogPath:       getEnvString("LOG_PATH", ""),
		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		WatchDataset:  getEnvBool("WATCH_DATASET", true),
		Notify:        getEnvBool("NOTIFY", false),
		PrepaidCredit: getEnvFloat("PREPAID_CREDIT", defaultPrepaidCredit),
	}

	var err error
	if cfg.MapBounds, err = getEnvBounds("MAP_BOUNDS", geo.DefaultBounds); err != nil {
		return nil, err
	}
	if cfg.ContractStart, err = getEnvDate("CONTRACT_START", defaultContractStart); err != nil {
		return nil, err
	}
	if cfg.TermEnd, err = getEnvDate("TERM_END", defaultTermEnd); err != nil {
		return nil, err
	}
	if !cfg.TermEnd.After(cfg.ContractStart) {
		return nil, fmt.Errorf("TERM_END (%s) must be after CONTRACT_START (%s)",
			cfg.TermEnd.Format(dateLayout), cfg.ContractStart.Format(dateLayout))
	}
	if cfg.PrepaidCredit < 0 {
		return nil, fmt.Errorf("PREPAID_CREDIT must not be negative, got %v", cfg.PrepaidCredit)
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "callmap", ".env"),
			filepath.Join(home, ".callmap", ".env"),
		)
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "callmap.db"
	}
	return filepath.Join(home, ".config", "callmap", "callmap.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
// Accepts the values strconv.ParseBool does, plus "yes"/"no".
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDate retrieves a YYYY-MM-DD date environment variable.
func getEnvDate(key string, defaultValue time.Time) (time.Time, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", key, value)
	}
	return t, nil
}

// getEnvBounds retrieves a "lowerLong, lowerLat, upperLong, upperLat" variable.
func getEnvBounds(key string, defaultValue geo.Bounds) (geo.Bounds, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := geo.ParseBounds(value)
	if err != nil {
		return geo.Bounds{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	if !b.Valid() {
		return geo.Bounds{}, fmt.Errorf("invalid %s: bounds must have positive width and height", key)
	}
	return b, nil
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}

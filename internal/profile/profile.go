package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the runtime configuration.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory
	Data string
	// DSN points to the backing database
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version
	Version string

	// PageSize is the number of elements fetched per page
	PageSize int
	// PrefetchWindow is the initial prefetch window, in pages
	PrefetchWindow int
	// PrefetchWindowMax caps the prefetch window
	PrefetchWindowMax int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvOrDefault returns the environment variable parsed as int, or the
// default value if unset or malformed.
func getIntEnvOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring malformed integer environment variable", "key", key, "value", value)
		return defaultValue
	}
	return n
}

// FromEnv loads configuration from PAGECACHE_* environment variables.
// Values already set on the profile act as defaults.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("PAGECACHE_MODE", p.Mode)
	p.Data = getEnvOrDefault("PAGECACHE_DATA", p.Data)
	p.DSN = getEnvOrDefault("PAGECACHE_DSN", p.DSN)
	p.Driver = getEnvOrDefault("PAGECACHE_DRIVER", p.Driver)

	p.PageSize = getIntEnvOrDefault("PAGECACHE_PAGE_SIZE", p.PageSize)
	p.PrefetchWindow = getIntEnvOrDefault("PAGECACHE_PREFETCH_WINDOW", p.PrefetchWindow)
	p.PrefetchWindowMax = getIntEnvOrDefault("PAGECACHE_PREFETCH_WINDOW_MAX", p.PrefetchWindowMax)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Data == "" {
		p.Data = "."
	}

	if p.PageSize <= 0 {
		p.PageSize = 100
	}
	if p.PrefetchWindow <= 0 {
		p.PrefetchWindow = 1
	}
	if p.PrefetchWindowMax < p.PrefetchWindow {
		p.PrefetchWindowMax = max(10, p.PrefetchWindow)
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", "data", p.Data, "error", err)
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("pagecache_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	return nil
}

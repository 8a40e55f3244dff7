// Package fs resolves on-disk locations and provides a file-based cache for
// generated test plans.
package fs

import (
	"os"
	"path/filepath"
)

const appName = "testplan"

// DefaultCacheDir returns the default cache directory. Uses XDG_CACHE_HOME
// if set, otherwise ~/.cache/testplan, or the system temp directory if home
// is unavailable.
func DefaultCacheDir() string {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// DefaultDataDir returns the directory for stored plans, history and logs.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share/testplan.
func DefaultDataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// DefaultConfigDir returns the directory holding config.yaml. Uses
// XDG_CONFIG_HOME if set, otherwise ~/.config/testplan.
func DefaultConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

func xdgDir(env, homeRel string) string {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, homeRel, appName)
}

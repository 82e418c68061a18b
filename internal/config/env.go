// Package config provides environment and path helpers for naveye-assist commands.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DirName is the per-user state directory under $HOME.
const DirName = ".naveye"

// Env returns the value of key, or def when unset or blank.
func Env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// EnvInt returns key parsed as an int, or def when unset or invalid.
func EnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvBool returns key parsed as a bool, or def when unset or invalid.
// "1", "true", "yes" and "on" are true; "0", "false", "no" and "off" are false.
func EnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// Path returns a path inside the per-user state directory.
// Falls back to the OS temp dir when no home directory is available.
func Path(elem ...string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(append([]string{home, DirName}, elem...)...)
}

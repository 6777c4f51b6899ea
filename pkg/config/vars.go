package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "dwcheck"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/dwcheck by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/dwcheck by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/dwcheck/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName, "logs")
}

// ConfigFilePath returns the full path to the config.yaml file.
// Returns ~/.config/dwcheck/config.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "config.yaml")
}

// NameCachePath returns the full path to the persistent name cache.
// Returns ~/.cache/dwcheck/names.sqlite by default.
func NameCachePath(homeDir string) string {
	return filepath.Join(CacheDir(homeDir), "names.sqlite")
}

// Package config handles global configuration and data directory layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/refdeck/config.yml.
type GlobalConfig struct {
	DataDir        string `yaml:"data_dir,omitempty"`
	CrossrefMailto string `yaml:"crossref_mailto,omitempty"`
	S2APIKey       string `yaml:"s2_api_key,omitempty"`
}

const (
	// AppDir is the directory name under XDG_CONFIG_HOME and XDG_DATA_HOME.
	AppDir = "refdeck"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// IndexFile is the derived search index database name.
	IndexFile = "index.db"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/refdeck/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppDir, ConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.DataDir != "" {
		cfg.DataDir = ExpandPath(cfg.DataDir)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// DataDir returns the directory holding the workspace snapshot and the
// search index. Resolution order: data_dir from the global config, then
// XDG_DATA_HOME, then ~/.local/share.
func DataDir() string {
	cfg, _ := LoadGlobalConfig()
	if cfg.DataDir != "" {
		return cfg.DataDir
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return AppDir
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, AppDir)
}

// IndexPath returns the path of the search index database.
func IndexPath() string {
	return filepath.Join(DataDir(), IndexFile)
}

// GetCrossrefMailto returns the Crossref polite-pool contact address from
// global config.
func GetCrossrefMailto() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.CrossrefMailto
}

// GetS2APIKey returns the Semantic Scholar API key from global config.
func GetS2APIKey() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.S2APIKey
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

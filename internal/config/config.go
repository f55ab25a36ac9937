package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the global and repo directories.
const FileName = "config.yaml"

// Config holds application configuration.
type Config struct {
	// Env selects the logger flavour: prod (JSON) or local/dev (console)
	Env string `yaml:"env,omitempty"`

	// LogLevel overrides the env default: debug, info, warn, error
	LogLevel string `yaml:"log_level,omitempty"`

	HTTP HTTPConfig `yaml:"http,omitempty"`

	// DefaultPageSize is used when a list request has no page size
	DefaultPageSize int `yaml:"default_page_size,omitempty"`

	// MaxPageSize caps the page size of list requests
	MaxPageSize int `yaml:"max_page_size,omitempty"`

	// WriteRetries bounds how often a create is retried after a uniqueness
	// conflict on sequence id or slug before CONFLICT is returned.
	WriteRetries int `yaml:"write_retries,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `yaml:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `yaml:"disabled_tools,omitempty"`

	// DisabledTypes is a list of MCP type names ("post") to disable entirely.
	DisabledTypes []string `yaml:"disabled_types,omitempty"`

	// AllowedPaths lists extra absolute directories for export/import files,
	// in addition to the exports directory under the data directory.
	AllowedPaths []string `yaml:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the directory restriction on export/import paths.
	// Symlinks are still rejected.
	AllowUnsafePaths bool `yaml:"allow_unsafe_paths,omitempty"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Bind            string `yaml:"bind,omitempty"`
	Port            int    `yaml:"port,omitempty"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec,omitempty"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec,omitempty"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec,omitempty"`
}

// HomeEnv names the variable that relocates the data directory.
const HomeEnv = "EBLOG_HOME"

// BaseDir returns the data directory: $EBLOG_HOME or ~/.eblog.
func BaseDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(HomeEnv)); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".eblog"), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Env:      "local",
		LogLevel: "info",
		HTTP: HTTPConfig{
			Bind:            "127.0.0.1",
			Port:            4000,
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 15,
			ShutdownSec:     5,
		},
		DefaultPageSize: 10,
		MaxPageSize:     100,
		WriteRetries:    3,
	}
}

// Load loads configuration from baseDir/config.yaml.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.eblog.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, FileName))
	if err != nil {
		return nil, err
	}
	return ApplyEnv(Merge(DefaultConfig(), cfg)), nil
}

// LoadWithRepo loads configuration from both global (~/.eblog) and repo (.eblog) directories.
// Repo config is found by walking upward from startDir to find the nearest .eblog/config.yaml.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Environment variables are applied last.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, FileName))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return ApplyEnv(Merge(Merge(DefaultConfig(), global), repo)), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .eblog/config.yaml.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".eblog", FileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ApplyEnv overlays EBLOG_ENV, EBLOG_LOG_LEVEL and EBLOG_PORT when set.
func ApplyEnv(cfg *Config) *Config {
	if v := strings.TrimSpace(os.Getenv("EBLOG_ENV")); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("EBLOG_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("EBLOG_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.HTTP.Port = port
		}
	}
	return cfg
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the path is empty or the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		Env:             pickString(overlay.Env, base.Env),
		LogLevel:        pickString(overlay.LogLevel, base.LogLevel),
		DefaultPageSize: pickInt(overlay.DefaultPageSize, base.DefaultPageSize),
		MaxPageSize:     pickInt(overlay.MaxPageSize, base.MaxPageSize),
		WriteRetries:    pickInt(overlay.WriteRetries, base.WriteRetries),
		DBMaxOpenConns:  pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:  pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		HTTP: HTTPConfig{
			Bind:            pickString(overlay.HTTP.Bind, base.HTTP.Bind),
			Port:            pickInt(overlay.HTTP.Port, base.HTTP.Port),
			ReadTimeoutSec:  pickInt(overlay.HTTP.ReadTimeoutSec, base.HTTP.ReadTimeoutSec),
			WriteTimeoutSec: pickInt(overlay.HTTP.WriteTimeoutSec, base.HTTP.WriteTimeoutSec),
			ShutdownSec:     pickInt(overlay.HTTP.ShutdownSec, base.HTTP.ShutdownSec),
		},
		AllowUnsafePaths: base.AllowUnsafePaths || overlay.AllowUnsafePaths,
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)

	return result
}

// pickString returns overlay if non-empty, else base.
func pickString(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

// pickInt returns overlay if non-zero, else base.
func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

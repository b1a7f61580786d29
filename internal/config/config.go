// Package config loads notedex configuration. Settings are applied in
// order of increasing precedence: hardcoded defaults, the user config
// (~/.config/notedex/config.yaml), the vault config (.notedex.yaml in the
// vault root), and finally NOTEDEX_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete notedex configuration.
type Config struct {
	Version int         `yaml:"version" json:"version"`
	Vault   VaultConfig `yaml:"vault" json:"vault"`
	Index   IndexConfig `yaml:"index" json:"index"`
	Watch   WatchConfig `yaml:"watch" json:"watch"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Log     LogConfig   `yaml:"log" json:"log"`
}

// VaultConfig configures which notes are indexed.
type VaultConfig struct {
	// Root is the vault root directory. Empty means the current directory.
	Root string `yaml:"root" json:"root"`

	// Extensions lists the note file extensions, with leading dot.
	Extensions []string `yaml:"extensions" json:"extensions"`

	// Exclude specifies patterns excluded from scanning and watching, in
	// addition to the built-in exclusions (.git, .obsidian, .trash).
	Exclude []string `yaml:"exclude" json:"exclude"`

	// MaxFileSize is the maximum note size in bytes (0 = 2MB default).
	MaxFileSize int64 `yaml:"max_file_size" json:"max_file_size"`
}

// IndexConfig configures the tag index and its persistence.
type IndexConfig struct {
	// MaxAge is how old the persisted index may be before a command
	// triggers a rebuild instead of trusting it, as a duration string
	// (e.g. "24h", "90m"). Default: "24h".
	MaxAge string `yaml:"max_age" json:"max_age"`

	// Workers is the number of concurrent extraction workers (0 = NumCPU).
	Workers int `yaml:"workers" json:"workers"`

	// CacheSize bounds the per-file tag extraction cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// MaxAgeDuration parses MaxAge, falling back to 24h on empty or invalid input.
func (c IndexConfig) MaxAgeDuration() time.Duration {
	d, err := time.ParseDuration(c.MaxAge)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// WatchConfig configures the filesystem watcher.
type WatchConfig struct {
	// Debounce is the window for coalescing rapid file events, as a
	// duration string (e.g. "200ms"). Default: "200ms".
	Debounce string `yaml:"debounce" json:"debounce"`
}

// DebounceDuration parses Debounce, falling back to 200ms on empty or
// invalid input.
func (c WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil || d <= 0 {
		return 200 * time.Millisecond
	}
	return d
}

// SearchConfig configures fuzzy tag search.
type SearchConfig struct {
	// MaxResults caps the number of matches returned (0 = unlimited).
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
}

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Vault: VaultConfig{
			Root:        "",
			Extensions:  []string{".md", ".markdown"},
			Exclude:     nil,
			MaxFileSize: 2 * 1024 * 1024,
		},
		Index: IndexConfig{
			MaxAge:    "24h",
			Workers:   runtime.NumCPU(),
			CacheSize: 10000,
		},
		Watch: WatchConfig{
			Debounce: "200ms",
		},
		Search: SearchConfig{
			MaxResults: 50,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file,
// following the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/notedex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/notedex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "notedex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "notedex", "config.yaml")
	}
	return filepath.Join(home, ".config", "notedex", "config.yaml")
}

// loadUserConfig loads the user configuration file if it exists.
// Returns nil config and nil error when the file is absent.
func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load loads the configuration for the vault rooted at dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromVault(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromVault attempts to load .notedex.yaml or .notedex.yml from dir.
func (c *Config) loadFromVault(dir string) error {
	yamlPath := filepath.Join(dir, ".notedex.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".notedex.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}
	// No vault config is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Vault.Root != "" {
		c.Vault.Root = other.Vault.Root
	}
	if len(other.Vault.Extensions) > 0 {
		c.Vault.Extensions = other.Vault.Extensions
	}
	if len(other.Vault.Exclude) > 0 {
		// Merge with existing patterns rather than replace
		c.Vault.Exclude = append(c.Vault.Exclude, other.Vault.Exclude...)
	}
	if other.Vault.MaxFileSize != 0 {
		c.Vault.MaxFileSize = other.Vault.MaxFileSize
	}

	if other.Index.MaxAge != "" {
		c.Index.MaxAge = other.Index.MaxAge
	}
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.CacheSize != 0 {
		c.Index.CacheSize = other.Index.CacheSize
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}

	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

// applyEnvOverrides applies NOTEDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NOTEDEX_VAULT"); v != "" {
		c.Vault.Root = v
	}
	if v := os.Getenv("NOTEDEX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NOTEDEX_INDEX_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Index.MaxAge = v
		}
	}
	if v := os.Getenv("NOTEDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("NOTEDEX_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Watch.Debounce = v
		}
	}
	if v := os.Getenv("NOTEDEX_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Search.MaxResults = n
		}
	}
}

// FindVaultRoot finds the vault root by walking up from startDir, looking
// for a .notedex.yaml/.yml file or an .obsidian directory. Falls back to
// startDir when nothing is found.
func FindVaultRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if fileExists(filepath.Join(currentDir, ".notedex.yaml")) ||
			fileExists(filepath.Join(currentDir, ".notedex.yml")) {
			return currentDir, nil
		}
		if dirExists(filepath.Join(currentDir, ".obsidian")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// StatePath returns the path of the vault's durable index database.
func (c *Config) StatePath(vaultRoot string) string {
	return filepath.Join(vaultRoot, ".notedex", "index.db")
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	for _, ext := range c.Vault.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("vault.extensions entries must start with a dot, got %q", ext)
		}
	}

	if c.Vault.MaxFileSize < 0 {
		return fmt.Errorf("vault.max_file_size must be non-negative, got %d", c.Vault.MaxFileSize)
	}
	if c.Index.MaxAge != "" {
		if d, err := time.ParseDuration(c.Index.MaxAge); err != nil || d <= 0 {
			return fmt.Errorf("index.max_age must be a positive duration, got %q", c.Index.MaxAge)
		}
	}
	if c.Watch.Debounce != "" {
		if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d <= 0 {
			return fmt.Errorf("watch.debounce must be a positive duration, got %q", c.Watch.Debounce)
		}
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must be non-negative, got %d", c.Index.Workers)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

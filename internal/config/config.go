package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const configFileName = "config.yaml"

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	UI          UIConfig          `mapstructure:"ui"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Connections ConnectionsConfig `mapstructure:"connections"`
}

// ServerConfig holds the aura backend connection
type ServerConfig struct {
	URL      string `mapstructure:"url"`       // Backend base URL
	Token    string `mapstructure:"token"`     // Bearer token (optional)
	ClientID string `mapstructure:"client_id"` // Generated on first run
}

// CacheConfig controls the persistent section cache
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Dir      string        `mapstructure:"dir"`
	Duration time.Duration `mapstructure:"duration"` // Freshness window
}

// FetchConfig controls section ingestion
type FetchConfig struct {
	PageSize          int           `mapstructure:"page_size"`
	Concurrency       int           `mapstructure:"concurrency"` // 0 = one task per section
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// UIConfig holds catalog view preferences
type UIConfig struct {
	PageSize       int    `mapstructure:"page_size"`
	DefaultSort    string `mapstructure:"default_sort"`
	HideInDatabase bool   `mapstructure:"hide_in_database"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled:  true,
			Dir:      defaultCachePath(),
			Duration: 24 * time.Hour,
		},
		Fetch: FetchConfig{
			PageSize:    500,
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		UI: UIConfig{
			PageSize:    20,
			DefaultSort: "library",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
		Connections: ConnectionsConfig{
			Mediux: MediuxConfig{DownloadQuality: MediuxQualityOptimized},
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "aura", "aura.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "aura", "aura.log")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "aura")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "aura")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "aura", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "aura", "cache")
	}
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigPath(), ".")
}

// LoadConfigFrom loads configuration from config.yaml in the given directories.
// A .env file in the working directory is applied before AURA_* overrides.
func LoadConfigFrom(dirs ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	cfg := DefaultConfig()
	v := newViper(cfg)
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(configFileName, filepath.Ext(configFileName)))
	v.SetConfigType("yaml")

	// Environment variable overrides (AURA_SERVER_URL, AURA_FETCH_CONCURRENCY, ...)
	v.SetEnvPrefix("AURA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	for key, value := range flatten(defaults) {
		v.SetDefault(key, value)
	}
	return v
}

// flatten maps every config key to its value, in snake_case dotted form
func flatten(cfg *Config) map[string]any {
	return map[string]any{
		"server.url":                          cfg.Server.URL,
		"server.token":                        cfg.Server.Token,
		"server.client_id":                    cfg.Server.ClientID,
		"cache.enabled":                       cfg.Cache.Enabled,
		"cache.dir":                           cfg.Cache.Dir,
		"cache.duration":                      cfg.Cache.Duration.String(),
		"fetch.page_size":                     cfg.Fetch.PageSize,
		"fetch.concurrency":                   cfg.Fetch.Concurrency,
		"fetch.requests_per_second":           cfg.Fetch.RequestsPerSecond,
		"fetch.timeout":                       cfg.Fetch.Timeout.String(),
		"ui.page_size":                        cfg.UI.PageSize,
		"ui.default_sort":                     cfg.UI.DefaultSort,
		"ui.hide_in_database":                 cfg.UI.HideInDatabase,
		"logging.file":                        cfg.Logging.File,
		"logging.level":                       cfg.Logging.Level,
		"connections.media_server.type":       string(cfg.Connections.MediaServer.Type),
		"connections.media_server.url":        cfg.Connections.MediaServer.URL,
		"connections.media_server.token":      cfg.Connections.MediaServer.Token,
		"connections.media_server.user_id":    cfg.Connections.MediaServer.UserID,
		"connections.media_server.libraries":  cfg.Connections.MediaServer.Libraries,
		"connections.arr":                     cfg.Connections.Arr,
		"connections.mediux.token":            cfg.Connections.Mediux.Token,
		"connections.mediux.download_quality": string(cfg.Connections.Mediux.DownloadQuality),
	}
}

// SaveConfig saves the configuration to config.yaml in the default directory
func SaveConfig(cfg *Config) error {
	return SaveConfigTo(DefaultConfigPath(), cfg)
}

// SaveConfigTo saves the configuration to config.yaml in dir
func SaveConfigTo(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	v := viper.New()
	for key, value := range flatten(cfg) {
		v.Set(key, value)
	}
	arr := make([]map[string]any, len(cfg.Connections.Arr))
	for i, a := range cfg.Connections.Arr {
		arr[i] = map[string]any{
			"type":    string(a.Type),
			"url":     a.URL,
			"api_key": a.APIKey,
			"library": a.Library,
		}
	}
	v.Set("connections.arr", arr)

	return writeConfig(v, filepath.Join(dir, configFileName))
}

// PersistClientID writes id into config.yaml in dir and leaves every other
// key as it is on disk. Environment and .env values are never written.
func PersistClientID(dir, id string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(dir, configFileName)
	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	v.Set("server.client_id", id)

	return writeConfig(v, configFile)
}

// writeConfig writes v to path readable by the owner only; the file may hold tokens
func writeConfig(v *viper.Viper, path string) error {
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}
	return nil
}

// EnsureClientID assigns a client identifier if none is set.
// Returns true when a new one was generated and should be saved.
func (c *Config) EnsureClientID() bool {
	if c.Server.ClientID != "" {
		return false
	}
	c.Server.ClientID = uuid.NewString()
	return true
}

// IsConfigured returns true if the server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}

// CacheDir returns the cache directory, or "" when persistence is disabled
func (c *Config) CacheDir() string {
	if !c.Cache.Enabled {
		return ""
	}
	return c.Cache.Dir
}

// Validate checks every configuration section and reports all problems at once
func (c *Config) Validate() error {
	var errs []error

	if c.Server.URL != "" {
		if err := validateURL(c.Server.URL); err != nil {
			errs = append(errs, fmt.Errorf("server.url: %w", err))
		}
	}
	if c.Cache.Duration <= 0 {
		errs = append(errs, errors.New("cache.duration must be positive"))
	}
	if c.Fetch.PageSize <= 0 {
		errs = append(errs, errors.New("fetch.page_size must be positive"))
	}
	if c.Fetch.Concurrency < 0 {
		errs = append(errs, errors.New("fetch.concurrency must not be negative"))
	}
	if c.Fetch.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("fetch.requests_per_second must not be negative"))
	}
	if c.UI.PageSize <= 0 {
		errs = append(errs, errors.New("ui.page_size must be positive"))
	}
	switch c.UI.DefaultSort {
	case "library", "title", "year", "added", "relevance":
	default:
		errs = append(errs, fmt.Errorf("ui.default_sort: unknown sort %q", c.UI.DefaultSort))
	}
	if err := c.Connections.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

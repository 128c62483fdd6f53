package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig describes the REST backend the console talks to.
type ServerConfig struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds every HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotificationsConfig holds notification center settings.
type NotificationsConfig struct {
	// PollIntervalSec is how often (in seconds) the notification list is re-fetched.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// UIConfig holds rendering preferences.
type UIConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// MessageClearSec is how long success messages stay visible.
	MessageClearSec int `mapstructure:"message_clear_sec" yaml:"message_clear_sec"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// StoreConfig locates the local journal database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	UI            UIConfig            `mapstructure:"ui" yaml:"ui"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	Store         StoreConfig         `mapstructure:"store" yaml:"store"`
}

// envPrefix is prepended to upper-cased config keys for environment overrides,
// e.g. HOSPADMIN_SERVER_BASE_URL.
const envPrefix = "HOSPADMIN"

// configDir returns ~/.config/hospadmin, or the working directory when the
// home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "hospadmin")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:    "http://localhost:8000/api",
			TimeoutSec: 30,
		},
		Notifications: NotificationsConfig{PollIntervalSec: 30},
		UI: UIConfig{
			Theme:           "default",
			MessageClearSec: 3,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(configDir(), "logs", "hospadmin.log"),
		},
		Store: StoreConfig{
			Path: filepath.Join(configDir(), "journal.db"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	v.SetDefault("notifications.poll_interval_sec", d.Notifications.PollIntervalSec)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.message_clear_sec", d.UI.MessageClearSec)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("store.path", d.Store.Path)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with HOSPADMIN_ override file values.
// If the file does not exist, defaults (plus environment) are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// validateConfig rejects settings the console cannot run with.
func validateConfig(cfg *AppConfig) error {
	if strings.TrimSpace(cfg.Server.BaseURL) == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if cfg.Server.TimeoutSec <= 0 {
		return fmt.Errorf("server.timeout_sec must be positive")
	}
	if cfg.Notifications.PollIntervalSec <= 0 {
		return fmt.Errorf("notifications.poll_interval_sec must be positive")
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}

	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("notifications", cfg.Notifications)
	v.Set("ui", cfg.UI)
	v.Set("log", cfg.Log)
	v.Set("store", cfg.Store)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

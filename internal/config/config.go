// Package config loads arcshell settings from defaults, an optional TOML file
// and ARCSHELL_ environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"arcshell/internal/router"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	Sync      SyncConfig
	Modules   ModulesConfig
	Telemetry TelemetryConfig
	Auth      AuthConfig
	Log       LogConfig
	Start     StartConfig
	Menu      MenuConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// SyncConfig holds the synced key/value store settings.
type SyncConfig struct {
	Path string
}

// ModulesConfig says where screen modules are fetched from and cached.
type ModulesConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	CacheDir string `mapstructure:"cache_dir"`
}

// TelemetryConfig toggles anonymous usage analytics.
type TelemetryConfig struct {
	Enabled bool
}

// AuthConfig holds the access token used for authorized scopes.
type AuthConfig struct {
	Token string
}

// LogConfig holds logging settings.
type LogConfig struct {
	File  string
	Level string
}

// StartConfig holds the initial route, as a location fragment.
type StartConfig struct {
	Route string
}

// MenuConfig mirrors router.MenuConfig.
type MenuConfig struct {
	Disabled     bool
	HideHistory  bool `mapstructure:"hide_history"`
	HideSaved    bool `mapstructure:"hide_saved"`
	HideProjects bool `mapstructure:"hide_projects"`
	HideApis     bool `mapstructure:"hide_apis"`
}

// Router converts the menu switches for the router.
func (m MenuConfig) Router() *router.MenuConfig {
	return &router.MenuConfig{
		MenuDisabled: m.Disabled,
		HideHistory:  m.HideHistory,
		HideSaved:    m.HideSaved,
		HideProjects: m.HideProjects,
		HideApis:     m.HideApis,
	}
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "arcshell")
}

// Path returns the config file location.
func Path() string {
	if p := os.Getenv("ARCSHELL_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "arcshell", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix ARCSHELL_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("database.path", filepath.Join(dataDir(), "arcshell.db"))
	v.SetDefault("sync.path", filepath.Join(dataDir(), "sync.db"))
	v.SetDefault("modules.base_url", "")
	v.SetDefault("modules.cache_dir", "")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("auth.token", "")
	v.SetDefault("log.file", filepath.Join(dataDir(), "arcshell.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("start.route", "")
	v.SetDefault("menu.disabled", false)
	v.SetDefault("menu.hide_history", false)
	v.SetDefault("menu.hide_saved", false)
	v.SetDefault("menu.hide_projects", false)
	v.SetDefault("menu.hide_apis", false)

	path := Path()
	v.SetConfigType("toml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("ARCSHELL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// the file is optional, but a broken one is an error
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the non-secret settings of cfg to the config file.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("sync.path", cfg.Sync.Path)
	v.Set("modules.base_url", cfg.Modules.BaseURL)
	v.Set("modules.cache_dir", cfg.Modules.CacheDir)
	v.Set("telemetry.enabled", cfg.Telemetry.Enabled)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.level", cfg.Log.Level)
	v.Set("start.route", cfg.Start.Route)
	v.Set("menu.disabled", cfg.Menu.Disabled)
	v.Set("menu.hide_history", cfg.Menu.HideHistory)
	v.Set("menu.hide_saved", cfg.Menu.HideSaved)
	v.Set("menu.hide_projects", cfg.Menu.HideProjects)
	v.Set("menu.hide_apis", cfg.Menu.HideApis)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

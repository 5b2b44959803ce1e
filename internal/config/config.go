package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Theme names accepted by ui.theme.
const (
	ThemeModern  = "modern"
	ThemeClassic = "classic"
	ThemeMinimal = "minimal"
)

// DefaultQuickActions are the suggested questions shown on the welcome screen.
var DefaultQuickActions = []string{
	"Quels sont mes tickets ouverts ?",
	"Comment puis-je créer un nouveau ticket ?",
	"Rechercher dans la base de connaissances",
}

// Config holds the application configuration
type Config struct {
	Backend BackendConfig
	Log     LogConfig
	History HistoryConfig
	UI      UIConfig `mapstructure:"ui"`
}

// BackendConfig describes the assistant backend.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// HistoryConfig controls the transcript database. An empty DBPath keeps it in memory.
type HistoryConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// UIConfig holds the terminal UI configuration
type UIConfig struct {
	Theme        string   `mapstructure:"theme"`
	QuickActions []string `mapstructure:"quick_actions"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("history.db_path", "")
	v.SetDefault("ui.theme", ThemeModern)
	v.SetDefault("ui.quick_actions", DefaultQuickActions)
}

// Load reads config.yaml from the working directory, or the file named by CONFIG_PATH,
// then applies ASSISTANT_* environment overrides. A missing config file is not an error.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_PATH"))
}

// LoadFrom is Load with an explicit config file. An empty path looks for ./config.yaml,
// and a named file must exist.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	config.Backend.BaseURL = strings.TrimRight(config.Backend.BaseURL, "/")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %s", c.Backend.Timeout)
	}
	switch c.UI.Theme {
	case ThemeModern, ThemeClassic, ThemeMinimal:
	default:
		return fmt.Errorf("unknown ui.theme %q", c.UI.Theme)
	}
	return nil
}

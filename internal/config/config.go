package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/temoto-labs/taassist/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Known configuration keys.
const (
	KeyActionsPath    = "actions_path"
	KeyGraphsPath     = "graphs_path"
	KeyTemplatesDir   = "templates_dir"
	KeyParametersPath = "parameters_path"
	KeyScanInterval   = "scan_interval"
	KeyLogLevel       = "log_level"
	KeyTypeAliases    = "type_aliases"
)

// DefaultScanInterval is how often the action catalog rescans its roots.
const DefaultScanInterval = 4 * time.Second

// Settings is the typed view of the configuration.
type Settings struct {
	ActionsPath    string            `mapstructure:"actions_path"`
	GraphsPath     string            `mapstructure:"graphs_path"`
	TemplatesDir   string            `mapstructure:"templates_dir"`
	ParametersPath string            `mapstructure:"parameters_path"`
	ScanInterval   time.Duration     `mapstructure:"scan_interval"`
	LogLevel       string            `mapstructure:"log_level"`
	TypeAliases    map[string]string `mapstructure:"type_aliases"`
}

// Dir returns the path to the config directory (~/.taassist/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file. TAASSIST_CONFIG
// overrides the default ~/.taassist/config.yaml.
func FilePath() string {
	if v := os.Getenv(branding.EnvVar("CONFIG")); v != "" {
		return v
	}
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the directory holding the config file if it does not exist.
func EnsureDir() error {
	dir := filepath.Dir(FilePath())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyScanInterval, DefaultScanInterval.String())
	viper.SetDefault(KeyLogLevel, "info")

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Current decodes the loaded configuration into Settings.
func Current() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if s.ScanInterval <= 0 {
		s.ScanInterval = DefaultScanInterval
	}
	return s, nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Reset clears every loaded value. Used between CLI invocations in tests.
func Reset() {
	viper.Reset()
}

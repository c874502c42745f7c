package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ESCROWD_SERVER_PORT.
const EnvPrefix = "ESCROWD"

// ConfigPaths holds the paths read by LoadConfig
type ConfigPaths struct {
	// Main is the TOML config file. Empty runs on defaults and environment.
	Main string

	// Env is a dotenv file loaded into the environment before overrides are
	// read. A missing file is ignored.
	Env string
}

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (escrowd.toml)
// 3. Environment variables (ESCROWD_ prefix), including a .env file
func LoadConfig(paths ConfigPaths) (*Config, error) {
	v := viper.New()

	// 1. Set defaults first
	setDefaults(v)

	// 2. Load main configuration file
	if paths.Main != "" {
		if err := loadMainConfig(v, paths.Main); err != nil {
			return nil, fmt.Errorf("failed to load main config: %w", err)
		}
	}

	// 3. Set up environment variable support
	if err := loadEnvFile(paths.Env); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = paths.Main

	// 5. Validate the complete configuration
	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// loadMainConfig loads the main configuration file
func loadMainConfig(v *viper.Viper, configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}
	v.SetConfigFile(configPath)
	if strings.HasSuffix(configPath, ".conf") || strings.HasSuffix(configPath, ".cfg") {
		v.SetConfigType("toml")
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return nil
}

// loadEnvFile loads a dotenv file without overriding variables that are
// already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	cfg, err := LoadConfig(ConfigPaths{})
	if err != nil {
		panic("default configuration is invalid: " + err.Error())
	}
	return cfg
}

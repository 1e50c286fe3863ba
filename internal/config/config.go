// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type AssetConfig struct {
	ID       uint64 `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	UnitName string `mapstructure:"unit_name"`
	Decimals uint32 `mapstructure:"decimals"`
}

type Config struct {
	SnapshotFile    string        `mapstructure:"snapshot_file"`
	AppID           uint64        `mapstructure:"app_id"`
	DefaultSlippage float64       `mapstructure:"default_slippage"`
	RefreshRetries  int           `mapstructure:"refresh_retries"`
	RefreshDelayMs  int           `mapstructure:"refresh_delay_ms"`
	DebugLogging    bool          `mapstructure:"debug_logging"`
	LogFile         string        `mapstructure:"log_file"`
	Assets          []AssetConfig `mapstructure:"assets"`
}

const (
	DefaultSlippage       = 0.005
	DefaultRefreshRetries = 3
	DefaultRefreshDelayMs = 200
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"default_slippage": DefaultSlippage,
		"refresh_retries":  DefaultRefreshRetries,
		"refresh_delay_ms": DefaultRefreshDelayMs,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.SnapshotFile == "" {
		return errors.New("missing snapshot_file in configuration")
	}
	if cfg.DefaultSlippage < 0 || cfg.DefaultSlippage >= 1 {
		return errors.New("default_slippage must be in [0, 1)")
	}
	if cfg.RefreshRetries < 0 {
		return errors.New("invalid refresh_retries count")
	}
	if cfg.RefreshDelayMs <= 0 {
		return errors.New("invalid refresh_delay_ms")
	}
	if len(cfg.Assets) < 2 {
		return errors.New("at least two assets must be configured")
	}
	seen := make(map[uint64]bool, len(cfg.Assets))
	for _, a := range cfg.Assets {
		if a.Name == "" {
			return fmt.Errorf("asset %d has no name", a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate asset id %d", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("POOLENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envSnapshot := v.GetString("SNAPSHOT_FILE")
	if envSnapshot != "" {
		cfg.SnapshotFile = envSnapshot
	}

	envLogFile := v.GetString("LOG_FILE")
	if envLogFile != "" {
		cfg.LogFile = envLogFile
	}
	return nil
}

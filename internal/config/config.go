// Package config loads the maker's credentials and strategy profiles.
//
// Credentials live in a YAML file (default: ./credentials.yaml) with one
// block per environment key (demo, prod). Email and password can be
// overridden via MAKER_EMAIL / MAKER_PASSWORD so the file can be kept out
// of production images. Strategy profiles live in strategies.yaml, one
// named profile per top-level key.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"kalshi-mm/pkg/types"
)

// Logging controls slog output. When File is set, logs rotate through
// lumberjack instead of going to stdout.
type Logging struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// LoadCredentials reads the environment's credentials block from the YAML
// file at path. A missing file is reported as a ConfigError telling the
// operator to create one.
func LoadCredentials(path string, env types.Environment) (types.Credentials, error) {
	var creds types.Credentials

	if _, err := os.Stat(path); err != nil {
		return creds, fmt.Errorf("Please create an authentication file as specified in the README.")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return creds, fmt.Errorf("read credentials: %w", err)
	}

	section := v.Sub(string(env))
	if section == nil {
		return creds, fmt.Errorf("credentials file has no %q block", env)
	}
	if err := section.Unmarshal(&creds); err != nil {
		return creds, fmt.Errorf("unmarshal credentials: %w", err)
	}

	// Override sensitive fields from env
	if email := os.Getenv("MAKER_EMAIL"); email != "" {
		creds.Email = email
	}
	if password := os.Getenv("MAKER_PASSWORD"); password != "" {
		creds.Password = password
	}

	if creds.Email == "" || creds.Password == "" {
		return creds, fmt.Errorf("credentials for %q must set email and password", env)
	}
	return creds, nil
}

// LoadStrategies reads every named strategy profile from the YAML file at
// path and validates each one. clear_time accepts RFC 3339 timestamps.
func LoadStrategies(path string) (map[string]types.StrategyProfile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read strategies: %w", err)
	}

	strategies := make(map[string]types.StrategyProfile)
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
	))
	if err := v.Unmarshal(&strategies, hook); err != nil {
		return nil, fmt.Errorf("unmarshal strategies: %w", err)
	}

	for name, s := range strategies {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("strategy %q: %w", name, err)
		}
	}
	return strategies, nil
}

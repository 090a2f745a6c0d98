package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the dispatch server's configuration, loaded once at start
// and immutable thereafter (spec §3).
type Config struct {
	// Host is the gRPC listen address.
	Host string `mapstructure:"host"`

	// CgrpcToken is the optional admin token. When nil, admin-auth
	// permits everything.
	CgrpcToken *string `mapstructure:"cgrpc_token"`

	// CleanTasksMinutes is the reclaim period in minutes.
	CleanTasksMinutes uint32 `mapstructure:"clean_tasks"`

	// PaginationLimit is a server-side ceiling on page size. Nil means
	// unbounded: the client's requested size wins.
	PaginationLimit *uint32 `mapstructure:"pagination_limit"`

	// ReclaimThresholdSeconds is the age at which a Processing entry is
	// reclaimed.
	ReclaimThresholdSeconds uint32 `mapstructure:"reclaim_threshold_seconds"`

	// ModulesDir is the directory scanned for ".rustforge.tar" bundles.
	ModulesDir string `mapstructure:"modules_dir"`

	// DataDir holds the embedded KV store.
	DataDir string `mapstructure:"data_dir"`

	// LogLevel and LogJSON are read from the file but not applied:
	// cmd/dispatchd configures pkg/log from its --log-level and
	// --log-json flags only.
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Defaults returns the configuration used when no file is present,
// matching spec.md §3 and the original Rust Config::new().
func Defaults() *Config {
	return &Config{
		Host:                    "[::1]:50051",
		CgrpcToken:              nil,
		CleanTasksMinutes:       60,
		PaginationLimit:         nil,
		ReclaimThresholdSeconds: 3600,
		ModulesDir:              "./mods",
		DataDir:                 "./engine_db",
		LogLevel:                "info",
		LogJSON:                 false,
	}
}

// Load reads configPath (defaulting to "./config.toml") with viper,
// unmarshals it into a Config, and fills any field viper didn't see
// from Defaults. A missing file is not an error: it yields Defaults().
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "./config.toml"
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return Defaults(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", configPath, err)
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", configPath, err)
	}

	return cfg, nil
}

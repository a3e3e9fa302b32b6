// Package config loads replicatord's process-level settings (listen
// address, store path, auth token, log level) from a YAML file plus
// environment overrides. Grounded on steveyegge-beads's
// internal/labelmutex.ParseMutexGroups and cmd/bd/config.go: a fresh
// viper.New() per load (no shared global viper instance), explicit
// SetConfigFile/SetConfigType, ReadInConfig, then a typed struct
// populated via Unmarshal rather than scattered v.Get calls.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Daemon holds replicatord's startup configuration.
type Daemon struct {
	ListenAddr string `mapstructure:"listen_addr"`
	StorePath  string `mapstructure:"store_path"`
	AuthToken  string `mapstructure:"auth_token"`
	LogLevel   string `mapstructure:"log_level"`
	JSONLogs   bool   `mapstructure:"json_logs"`
}

func defaults() Daemon {
	return Daemon{
		ListenAddr: "127.0.0.1:8089",
		StorePath:  "replicator.db",
		LogLevel:   "info",
		JSONLogs:   true,
	}
}

// Load reads path (if it exists) over the defaults, then applies
// REPLICATOR_-prefixed environment overrides (REPLICATOR_LISTEN_ADDR,
// REPLICATOR_STORE_PATH, REPLICATOR_AUTH_TOKEN, REPLICATOR_LOG_LEVEL,
// REPLICATOR_JSON_LOGS). An empty or missing path is not an error —
// the daemon runs on defaults plus environment alone.
func Load(path string) (Daemon, error) {
	cfg := defaults()

	v := viper.New()
	v.SetEnvPrefix("replicator")
	v.AutomaticEnv()
	v.SetDefault("listen_addr", cfg.ListenAddr)
	v.SetDefault("store_path", cfg.StorePath)
	v.SetDefault("auth_token", cfg.AuthToken)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("json_logs", cfg.JSONLogs)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Daemon{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Daemon{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

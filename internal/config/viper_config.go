package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Defaults
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file details
	v.SetConfigName("tuttifrutti")
	v.SetConfigType("yaml")

	// Add config paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/tuttifrutti")
	}

	// Enable environment variable binding
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind specific environment variables so both TUTTIFRUTTI_BRIDGE_PORT
	// and PORT work
	v.BindEnv("bridge.port", "PORT")
	v.BindEnv("bridge.host", "HOST")
	v.BindEnv("bridge.debug", "DEBUG")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.path", "STORE_PATH")

	// Presence defaults
	v.SetDefault("peer.heartbeatinterval", "30s")
	v.SetDefault("peer.heartbeatretries", 3)
	v.SetDefault("peer.inactivitythreshold", "90s")
	v.SetDefault("peer.votinginactivitythreshold", "180s")
	v.SetDefault("peer.voteratelimit", 5.0)
	v.SetDefault("peer.voterateburst", 10)

	// Game defaults
	v.SetDefault("game.roomcodelength", 4)
	v.SetDefault("game.letters", DefaultConfig().Game.Letters)
	v.SetDefault("game.roundduration", "90s")
	v.SetDefault("game.votecountdown", "30s")
	v.SetDefault("game.voteextension", "10s")
	v.SetDefault("game.voteextensionwindow", "5s")
	v.SetDefault("game.settledelay", "1500ms")
	v.SetDefault("game.defaultlanguage", "en")

	// Store defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "tuttifrutti.db")
	v.SetDefault("store.pollinterval", "250ms")
	v.SetDefault("store.prefspath", "prefs.db")

	// Bridge defaults
	v.SetDefault("bridge.host", "127.0.0.1")
	v.SetDefault("bridge.port", "8080")
	v.SetDefault("bridge.readtimeout", "15s")
	v.SetDefault("bridge.writetimeout", "0s") // 0 for SSE support
	v.SetDefault("bridge.idletimeout", "0s")
	v.SetDefault("bridge.shutdowntimeout", "30s")
	v.SetDefault("bridge.maxrequestsize", 1<<20)
	v.SetDefault("bridge.ratelimit", 50.0)
	v.SetDefault("bridge.ratelimitburst", 100)
	v.SetDefault("bridge.debug", false)

	// Try to read config file (it's optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if strings.Contains(err.Error(), "no such file or directory") {
				// File doesn't exist, continue with defaults
			} else {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
		// Config file not found; continue with env vars and defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Load built-in category presets if the file did not define any
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

package config

import (
	"fmt"
	"log"
	"time"

	"gopkg.in/yaml.v3"

	"tuttifrutti/internal/game"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// Config is the full peer configuration.
type Config struct {
	Peer   PeerSettings        `yaml:"peer" mapstructure:"peer"`
	Game   GameSettings        `yaml:"game" mapstructure:"game"`
	Store  StoreSettings       `yaml:"store" mapstructure:"store"`
	Bridge BridgeSettings      `yaml:"bridge" mapstructure:"bridge"`
	Categories map[string][]string `yaml:"categories" mapstructure:"categories"`
}

// PeerSettings governs the presence subsystem.
type PeerSettings struct {
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval" mapstructure:"heartbeatinterval"`
	HeartbeatRetries  int           `yaml:"heartbeatRetries" mapstructure:"heartbeatretries"`

	// InactivityThreshold evicts silent players during lobby/play;
	// VotingInactivityThreshold applies during the slower voting phase.
	InactivityThreshold       time.Duration `yaml:"inactivityThreshold" mapstructure:"inactivitythreshold"`
	VotingInactivityThreshold time.Duration `yaml:"votingInactivityThreshold" mapstructure:"votinginactivitythreshold"`

	// Rate limiting for live vote-preview writes (golang.org/x/time/rate).
	VoteRateLimit float64 `yaml:"voteRateLimit" mapstructure:"voteratelimit"`
	VoteRateBurst int     `yaml:"voteRateBurst" mapstructure:"voterateburst"`
}

// GameSettings governs rounds and voting.
type GameSettings struct {
	RoomCodeLength  int           `yaml:"roomCodeLength" mapstructure:"roomcodelength"`
	Letters         string        `yaml:"letters" mapstructure:"letters"`
	RoundDuration   time.Duration `yaml:"roundDuration" mapstructure:"roundduration"`
	VoteCountdown   time.Duration `yaml:"voteCountdown" mapstructure:"votecountdown"`
	VoteExtension   time.Duration `yaml:"voteExtension" mapstructure:"voteextension"`
	VoteExtensionWindow time.Duration `yaml:"voteExtensionWindow" mapstructure:"voteextensionwindow"`
	SettleDelay     time.Duration `yaml:"settleDelay" mapstructure:"settledelay"`
	DefaultLanguage string        `yaml:"defaultLanguage" mapstructure:"defaultlanguage"`
}

// StoreSettings selects and configures the document store backend.
type StoreSettings struct {
	Driver       string        `yaml:"driver" mapstructure:"driver"` // "memory" or "sqlite"
	Path         string        `yaml:"path" mapstructure:"path"`
	PollInterval time.Duration `yaml:"pollInterval" mapstructure:"pollinterval"`
	PrefsPath    string        `yaml:"prefsPath" mapstructure:"prefspath"`
}

// BridgeSettings configures the local presentation bridge HTTP server.
type BridgeSettings struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            string        `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout" mapstructure:"readtimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" mapstructure:"writetimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" mapstructure:"idletimeout"` // 0 for SSE support
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" mapstructure:"shutdowntimeout"`

	MaxRequestSize int64   `yaml:"maxRequestSize" mapstructure:"maxrequestsize"`
	RateLimit      float64 `yaml:"rateLimit" mapstructure:"ratelimit"`
	RateLimitBurst int     `yaml:"rateLimitBurst" mapstructure:"ratelimitburst"`

	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// defaultCategoriesYAML ships the per-language category presets. A config
// file may override the whole map.
const defaultCategoriesYAML = `
en: [Name, City, Country, Animal, Plant, Food, Profession, Thing]
es: [Nombre, Ciudad, País, Animal, Planta, Comida, Profesión, Cosa]
de: [Name, Stadt, Land, Fluss, Tier, Beruf]
pt: [Nome, Cidade, País, Animal, Planta, Comida, Profissão, Objeto]
`

// DefaultCategories parses the built-in category presets.
func DefaultCategories() map[string][]string {
	out := make(map[string][]string)
	if err := yaml.Unmarshal([]byte(defaultCategoriesYAML), &out); err != nil {
		// The literal above is static; a parse failure is a programming
		// error, but a playable fallback beats a crash.
		log.Printf("config: parsing built-in categories failed: %v", err)
		return map[string][]string{"en": {"Name", "City", "Country", "Animal"}}
	}
	return out
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Peer: PeerSettings{
			HeartbeatInterval:         30 * time.Second,
			HeartbeatRetries:          3,
			InactivityThreshold:       90 * time.Second,
			VotingInactivityThreshold: 180 * time.Second,
			VoteRateLimit:             5,
			VoteRateBurst:             10,
		},
		Game: GameSettings{
			RoomCodeLength:      game.RoomCodeLength,
			Letters:             game.DefaultLetters,
			RoundDuration:       90 * time.Second,
			VoteCountdown:       30 * time.Second,
			VoteExtension:       10 * time.Second,
			VoteExtensionWindow: 5 * time.Second,
			SettleDelay:         1500 * time.Millisecond,
			DefaultLanguage:     "en",
		},
		Store: StoreSettings{
			Driver:       "memory",
			Path:         "tuttifrutti.db",
			PollInterval: 250 * time.Millisecond,
			PrefsPath:    "prefs.db",
		},
		Bridge: BridgeSettings{
			Host:            "127.0.0.1",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // 0 for SSE support
			IdleTimeout:     0,
			ShutdownTimeout: 30 * time.Second,
			MaxRequestSize:  1 << 20,
			RateLimit:       50,
			RateLimitBurst:  100,
		},
		Categories: DefaultCategories(),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Peer.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeatInterval must be positive")
	}
	if c.Peer.HeartbeatRetries < 0 {
		return fmt.Errorf("heartbeatRetries cannot be negative")
	}
	if c.Peer.InactivityThreshold <= c.Peer.HeartbeatInterval {
		return fmt.Errorf("inactivityThreshold must exceed heartbeatInterval")
	}
	if c.Peer.VotingInactivityThreshold < c.Peer.InactivityThreshold {
		return fmt.Errorf("votingInactivityThreshold must be at least inactivityThreshold")
	}
	if c.Game.RoomCodeLength < 3 {
		return fmt.Errorf("roomCodeLength must be at least 3")
	}
	if len(c.Game.Letters) == 0 {
		return fmt.Errorf("letters pool cannot be empty")
	}
	if c.Game.RoundDuration <= 0 {
		return fmt.Errorf("roundDuration must be positive")
	}
	if c.Game.VoteCountdown <= 0 {
		return fmt.Errorf("voteCountdown must be positive")
	}
	if c.Store.Driver != "memory" && c.Store.Driver != "sqlite" {
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		return fmt.Errorf("store path must be set for the sqlite driver")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category preset must be defined")
	}
	if _, ok := c.Categories[c.Game.DefaultLanguage]; !ok {
		return fmt.Errorf("no category preset for default language %q", c.Game.DefaultLanguage)
	}
	for lang, cats := range c.Categories {
		if len(cats) == 0 {
			return fmt.Errorf("category preset %q is empty", lang)
		}
	}
	return nil
}

// CategoriesFor returns the preset for a language, falling back to the
// default language.
func (c *Config) CategoriesFor(lang string) []string {
	if cats, ok := c.Categories[lang]; ok {
		return cats
	}
	return c.Categories[c.Game.DefaultLanguage]
}

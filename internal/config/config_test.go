package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.Peer.HeartbeatInterval)
	assert.Greater(t, cfg.Peer.InactivityThreshold, cfg.Peer.HeartbeatInterval)
	assert.GreaterOrEqual(t, cfg.Peer.VotingInactivityThreshold, cfg.Peer.InactivityThreshold)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero heartbeat", func(c *Config) { c.Peer.HeartbeatInterval = 0 }},
		{"threshold below heartbeat", func(c *Config) { c.Peer.InactivityThreshold = time.Second }},
		{"voting threshold below play threshold", func(c *Config) {
			c.Peer.VotingInactivityThreshold = c.Peer.InactivityThreshold - time.Second
		}},
		{"short room code", func(c *Config) { c.Game.RoomCodeLength = 2 }},
		{"empty letter pool", func(c *Config) { c.Game.Letters = "" }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Store.Driver = "sqlite"; c.Store.Path = "" }},
		{"no categories", func(c *Config) { c.Categories = nil }},
		{"missing default language", func(c *Config) { c.Game.DefaultLanguage = "fr" }},
		{"empty preset", func(c *Config) { c.Categories["en"] = nil }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	for _, lang := range []string{"en", "es", "de", "pt"} {
		assert.NotEmpty(t, cats[lang], "preset %s", lang)
	}
}

func TestCategoriesFor(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.Categories["es"], cfg.CategoriesFor("es"))
	// Unknown languages fall back to the default preset.
	assert.Equal(t, cfg.Categories["en"], cfg.CategoriesFor("xx"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Bridge.Port)
	assert.Equal(t, "127.0.0.1", cfg.Bridge.Host)
	assert.Equal(t, 90*time.Second, cfg.Game.RoundDuration)
	assert.NotEmpty(t, cfg.Categories["en"])
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuttifrutti.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
game:
  roundDuration: 45s
  defaultLanguage: es
bridge:
  port: "9090"
categories:
  es: [Nombre, Ciudad]
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Game.RoundDuration)
	assert.Equal(t, "9090", cfg.Bridge.Port)
	assert.Equal(t, []string{"Nombre", "Ciudad"}, cfg.Categories["es"])
}

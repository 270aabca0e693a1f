package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"harmonychain/config"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, "harmony_session", cfg.Session.CookieName)
	require.Equal(t, 24*time.Hour, cfg.Session.TTL)
	require.InDelta(t, 1000.0, cfg.Economy.StartingBalance, 1e-9)
	require.Equal(t, 10, cfg.Economy.MiningPower)
	require.InDelta(t, 5.0, cfg.Economy.StreamReward, 1e-9)
	require.Equal(t, 30, cfg.Market.Days)
	require.False(t, cfg.Market.RegenerateOnRender)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
economy:
  mining_power: 25
market:
  regenerate_on_render: true
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("HARMONY_SERVER_PORT", "7070")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, "7070", cfg.Server.Port)
	require.Equal(t, 25, cfg.Economy.MiningPower)
	require.True(t, cfg.Market.RegenerateOnRender)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "Defaults are valid", mutate: func(*config.Config) {}},
		{name: "Zero mining power", mutate: func(c *config.Config) { c.Economy.MiningPower = 0 }, wantErr: true},
		{name: "Negative balance", mutate: func(c *config.Config) { c.Economy.StartingBalance = -1 }, wantErr: true},
		{name: "Empty secret", mutate: func(c *config.Config) { c.Session.Secret = "" }, wantErr: true},
		{name: "Inverted price band", mutate: func(c *config.Config) { c.Market.MinPrice = 2 }, wantErr: true},
		{name: "Unknown log level", mutate: func(c *config.Config) { c.Logging.Level = "trace" }, wantErr: true},
		{name: "Unknown log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadConfig("")
			require.NoError(t, err)
			tt.mutate(&cfg)
			if tt.wantErr {
				require.Error(t, cfg.Validate())
			} else {
				require.NoError(t, cfg.Validate())
			}
		})
	}
}

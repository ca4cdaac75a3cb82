package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/betbot199/BetBot/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ODDS_API_KEY", "ODDS_REGIONS", "ODDS_MARKETS", "SPORTS_WHITELIST",
	"SCAN_TTL", "MAX_DIAS_EVENTO", "MIN_BOOKS", "EDGE_MIN", "KELLY_CAP",
	"MIN_STAKE_PCT", "MAX_STAKE_PCT", "STORAGE_DRIVER", "REDIS_ADDR",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv aísla el test del entorno del host.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.the-odds-api.com/v4", cfg.OddsAPI.BaseURL)
	assert.Equal(t, []string{"eu", "uk"}, cfg.OddsAPI.Regions)
	assert.Contains(t, cfg.OddsAPI.Markets, "alternate_totals")
	assert.Equal(t, 15*time.Minute, cfg.ScanTTL())
	assert.Equal(t, cfg.ScanTTL(), cfg.ScanInterval())
	assert.Equal(t, 7*24*time.Hour, cfg.Horizon())
	assert.Equal(t, 3, cfg.Scanner.MinBooks)
	assert.InDelta(t, 0.02, cfg.Scanner.MinEdge, 1e-12)
	assert.InDelta(t, 0.25, cfg.Staking.KellyCap, 1e-12)
	assert.InDelta(t, 0.002, cfg.Staking.MinStakeFraction, 1e-12)
	assert.InDelta(t, 0.02, cfg.Staking.MaxStakeFraction, 1e-12)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "betbot.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
odds_api:
  api_key: from-yaml
  regions: [us]
  markets: [h2h, totals]
  request_timeout_seconds: 5
scanner:
  scan_ttl_seconds: 60
  min_books: 2
  min_edge: 0.05
  interval_seconds: 30
storage:
  driver: redis
  redis_addr: localhost:6379
notify:
  redis_stream: betbot.scans
  table: true
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-yaml", cfg.OddsAPI.APIKey)
	assert.Equal(t, []string{"us"}, cfg.OddsAPI.Regions)
	assert.Equal(t, []string{"h2h", "totals"}, cfg.OddsAPI.Markets)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout())
	assert.Equal(t, time.Minute, cfg.ScanTTL())
	assert.Equal(t, 30*time.Second, cfg.ScanInterval())
	assert.Equal(t, 2, cfg.Scanner.MinBooks)
	assert.InDelta(t, 0.05, cfg.Scanner.MinEdge, 1e-12)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "betbot.scans", cfg.Notify.RedisStream)
	assert.True(t, cfg.Notify.Table)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
odds_api:
  api_key: from-yaml
  regions: [us]
scanner:
  min_books: 2
`)
	t.Setenv("ODDS_API_KEY", "from-env")
	t.Setenv("ODDS_REGIONS", " eu, uk ,,au ")
	t.Setenv("SPORTS_WHITELIST", "soccer_epl,basketball_nba")
	t.Setenv("SCAN_TTL", "120")
	t.Setenv("MAX_DIAS_EVENTO", "3")
	t.Setenv("MIN_BOOKS", "4")
	t.Setenv("EDGE_MIN", "0.03")
	t.Setenv("KELLY_CAP", "0.5")
	t.Setenv("MIN_STAKE_PCT", "0.001")
	t.Setenv("MAX_STAKE_PCT", "0.05")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OddsAPI.APIKey)
	assert.Equal(t, []string{"eu", "uk", "au"}, cfg.OddsAPI.Regions)
	assert.Equal(t, []string{"soccer_epl", "basketball_nba"}, cfg.OddsAPI.SportsWhitelist)
	assert.Equal(t, 2*time.Minute, cfg.ScanTTL())
	assert.Equal(t, 3*24*time.Hour, cfg.Horizon())
	assert.Equal(t, 4, cfg.Scanner.MinBooks)
	assert.InDelta(t, 0.03, cfg.Scanner.MinEdge, 1e-12)
	assert.InDelta(t, 0.5, cfg.Staking.KellyCap, 1e-12)
	assert.InDelta(t, 0.001, cfg.Staking.MinStakeFraction, 1e-12)
	assert.InDelta(t, 0.05, cfg.Staking.MaxStakeFraction, 1e-12)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_BadEnvNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("MIN_BOOKS", "three")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIN_BOOKS")
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, "odds_api: [unclosed")

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML")
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingAPIKey)

	cfg.OddsAPI.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg.Storage.Driver = "redis"
	cfg.Storage.RedisAddr = ""
	assert.Error(t, cfg.Validate())

	cfg.Storage.Driver = "sqlite"
	cfg.Staking.MinStakeFraction = 0.1
	assert.Error(t, cfg.Validate())
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey se devuelve cuando no hay ODDS_API_KEY ni odds_api.api_key.
var ErrMissingAPIKey = errors.New("odds api key is required (ODDS_API_KEY)")

// Config es la configuración completa de betbot.
type Config struct {
	OddsAPI OddsAPIConfig `yaml:"odds_api"`
	Scanner ScannerConfig `yaml:"scanner"`
	Staking StakingConfig `yaml:"staking"`
	Storage StorageConfig `yaml:"storage"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
}

// OddsAPIConfig controla el cliente de cuotas.
type OddsAPIConfig struct {
	BaseURL               string   `yaml:"base_url"`
	APIKey                string   `yaml:"api_key"`
	Regions               []string `yaml:"regions"`
	Markets               []string `yaml:"markets"`
	SportsWhitelist       []string `yaml:"sports_whitelist"` // vacío = todos
	RequestsPerSecond     float64  `yaml:"requests_per_second"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
	Workers               int      `yaml:"workers"` // fetches en paralelo
}

// ScannerConfig controla la agrupación y los candidatos.
type ScannerConfig struct {
	ScanTTLSeconds  int     `yaml:"scan_ttl_seconds"`
	HorizonDays     int     `yaml:"horizon_days"`
	MinBooks        int     `yaml:"min_books"`
	MinEdge         float64 `yaml:"min_edge"`
	MiddleMaxCost   float64 `yaml:"middle_max_cost"`
	IntervalSeconds int     `yaml:"interval_seconds"` // watch mode
}

// StakingConfig acota la recomendación de stake.
type StakingConfig struct {
	KellyCap         float64 `yaml:"kelly_cap"`
	MinStakeFraction float64 `yaml:"min_stake_fraction"`
	MaxStakeFraction float64 `yaml:"max_stake_fraction"`
	DefaultBankroll  float64 `yaml:"default_bankroll"` // 0 = sin default
}

// StorageConfig controla dónde se persisten cache, bank e histórico.
type StorageConfig struct {
	Driver        string `yaml:"driver"` // sqlite | redis
	DSN           string `yaml:"dsn"`    // ruta al archivo SQLite, o ":memory:"
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// NotifyConfig controla la salida de cada scan.
type NotifyConfig struct {
	RedisStream string `yaml:"redis_stream"` // vacío = sin publicar
	Table       bool   `yaml:"table"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un archivo YAML inexistente no es error: se usan defaults y entorno.
// Las variables de entorno sobreescriben al YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// Validate comprueba lo imprescindible para hacer fetch. Los comandos que
// solo leen el cache no la necesitan.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OddsAPI.APIKey) == "" {
		return ErrMissingAPIKey
	}
	switch c.Storage.Driver {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("config.Validate: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "redis" && c.Storage.RedisAddr == "" {
		return fmt.Errorf("config.Validate: storage.redis_addr is required for redis driver")
	}
	if c.Staking.MinStakeFraction > c.Staking.MaxStakeFraction {
		return fmt.Errorf("config.Validate: min_stake_fraction %.4f > max_stake_fraction %.4f",
			c.Staking.MinStakeFraction, c.Staking.MaxStakeFraction)
	}
	return nil
}

// ScanTTL devuelve el TTL del cache como time.Duration.
func (c *Config) ScanTTL() time.Duration {
	return time.Duration(c.Scanner.ScanTTLSeconds) * time.Second
}

// ScanInterval devuelve el intervalo del watch mode como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// Horizon devuelve el horizonte de eventos como time.Duration.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.Scanner.HorizonDays) * 24 * time.Hour
}

// RequestTimeout devuelve el timeout por request como time.Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.OddsAPI.RequestTimeoutSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ODDS_API_KEY"); v != "" {
		cfg.OddsAPI.APIKey = v
	}
	if v := os.Getenv("ODDS_REGIONS"); v != "" {
		cfg.OddsAPI.Regions = splitCSV(v)
	}
	if v := os.Getenv("ODDS_MARKETS"); v != "" {
		cfg.OddsAPI.Markets = splitCSV(v)
	}
	if v := os.Getenv("SPORTS_WHITELIST"); v != "" {
		cfg.OddsAPI.SportsWhitelist = splitCSV(v)
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"SCAN_TTL", &cfg.Scanner.ScanTTLSeconds},
		{"MAX_DIAS_EVENTO", &cfg.Scanner.HorizonDays},
		{"MIN_BOOKS", &cfg.Scanner.MinBooks},
	}
	for _, o := range ints {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env %s: %w", o.env, err)
		}
		*o.dst = n
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{"EDGE_MIN", &cfg.Scanner.MinEdge},
		{"KELLY_CAP", &cfg.Staking.KellyCap},
		{"MIN_STAKE_PCT", &cfg.Staking.MinStakeFraction},
		{"MAX_STAKE_PCT", &cfg.Staking.MaxStakeFraction},
	}
	for _, o := range floats {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("env %s: %w", o.env, err)
		}
		*o.dst = f
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.OddsAPI.BaseURL == "" {
		cfg.OddsAPI.BaseURL = "https://api.the-odds-api.com/v4"
	}
	if len(cfg.OddsAPI.Regions) == 0 {
		cfg.OddsAPI.Regions = []string{"eu", "uk"}
	}
	if len(cfg.OddsAPI.Markets) == 0 {
		cfg.OddsAPI.Markets = []string{
			"h2h", "spreads", "totals", "btts", "draw_no_bet",
			"alternate_spreads", "alternate_totals",
		}
	}
	if cfg.OddsAPI.RequestsPerSecond <= 0 {
		cfg.OddsAPI.RequestsPerSecond = 3
	}
	if cfg.OddsAPI.RequestTimeoutSeconds <= 0 {
		cfg.OddsAPI.RequestTimeoutSeconds = 20
	}
	if cfg.OddsAPI.Workers <= 0 {
		cfg.OddsAPI.Workers = 4
	}
	if cfg.Scanner.ScanTTLSeconds <= 0 {
		cfg.Scanner.ScanTTLSeconds = 900 // 15 min
	}
	if cfg.Scanner.HorizonDays <= 0 {
		cfg.Scanner.HorizonDays = 7
	}
	if cfg.Scanner.MinBooks <= 0 {
		cfg.Scanner.MinBooks = 3
	}
	if cfg.Scanner.MinEdge <= 0 {
		cfg.Scanner.MinEdge = 0.02
	}
	if cfg.Scanner.MiddleMaxCost <= 0 {
		cfg.Scanner.MiddleMaxCost = 0.05
	}
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = cfg.Scanner.ScanTTLSeconds
	}
	if cfg.Staking.KellyCap <= 0 {
		cfg.Staking.KellyCap = 0.25
	}
	if cfg.Staking.MinStakeFraction <= 0 {
		cfg.Staking.MinStakeFraction = 0.002 // 0.2%
	}
	if cfg.Staking.MaxStakeFraction <= 0 {
		cfg.Staking.MaxStakeFraction = 0.02 // 2%
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "betbot.db"
	}
	if cfg.Storage.RedisPrefix == "" {
		cfg.Storage.RedisPrefix = "betbot"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

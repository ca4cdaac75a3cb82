package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/betbot199/BetBot/config"
	"github.com/betbot199/BetBot/internal/adapters/notify"
	"github.com/betbot199/BetBot/internal/adapters/oddsapi"
	"github.com/betbot199/BetBot/internal/adapters/storage"
	"github.com/betbot199/BetBot/internal/application/scanner"
	"github.com/betbot199/BetBot/internal/domain"
	"github.com/betbot199/BetBot/internal/domain/strategy"
	"github.com/betbot199/BetBot/internal/ports"
	"github.com/redis/go-redis/v9"
)

// store es lo que necesita el CLI del backend: cache, bank e histórico.
type store interface {
	ports.Storage
	ports.ScanHistory
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	scan := flag.Bool("scan", false, "run one full scan and refresh the cache")
	watch := flag.Bool("watch", false, "scan every scanner.interval_seconds until interrupted")
	values := flag.Int("value", 0, "list the top N value bets from the cached scan")
	surebets := flag.Int("surebets", 0, "list the top N surebets from the cached scan")
	middles := flag.Int("middles", 0, "list the top N middles from the cached scan")
	bank := flag.String("bank", "", "show the bankroll (\"show\") or set it (<amount>)")
	split := flag.Float64("split", 0, "total stake to split across surebet legs (default: max stake of the bank)")
	history := flag.Int("history", 0, "show the last N scan cycles")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print the value table after each scan")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	noCommand := !*scan && !*watch && *values == 0 && *surebets == 0 &&
		*middles == 0 && *bank == "" && *history == 0
	if noCommand {
		// Sin comandos: scan + resumen, como el /scan del bot
		*scan = true
		*values, *surebets = 10, 10
	}

	if *scan || *watch {
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid config", "err", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, rdb, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "driver", cfg.Storage.Driver)
		os.Exit(1)
	}
	defer st.Close()

	console := notify.NewConsole(*table || cfg.Notify.Table)
	notifiers := notify.Multi{console}
	if cfg.Notify.RedisStream != "" {
		if rdb == nil && cfg.Storage.RedisAddr != "" {
			rdb = redis.NewClient(&redis.Options{
				Addr:     cfg.Storage.RedisAddr,
				Password: cfg.Storage.RedisPassword,
				DB:       cfg.Storage.RedisDB,
			})
			defer rdb.Close()
		}
		if rdb != nil {
			notifiers = append(notifiers, notify.NewRedisStream(rdb, cfg.Notify.RedisStream))
		} else {
			slog.Warn("notify.redis_stream set but no redis_addr, stream disabled")
		}
	}

	client := oddsapi.NewClient(oddsapi.Config{
		BaseURL:        cfg.OddsAPI.BaseURL,
		APIKey:         cfg.OddsAPI.APIKey,
		RatePerSec:     cfg.OddsAPI.RequestsPerSecond,
		RequestTimeout: cfg.RequestTimeout(),
	})

	strat := strategy.NewValueArb(strategy.Config{
		MinBooks:      cfg.Scanner.MinBooks,
		MinEdge:       cfg.Scanner.MinEdge,
		MiddleMaxCost: cfg.Scanner.MiddleMaxCost,
	})

	s := scanner.New(scanner.Config{
		Regions:         cfg.OddsAPI.Regions,
		Markets:         cfg.OddsAPI.Markets,
		SportsWhitelist: cfg.OddsAPI.SportsWhitelist,
		ScanTTL:         cfg.ScanTTL(),
		Horizon:         cfg.Horizon(),
		Interval:        cfg.ScanInterval(),
		Workers:         cfg.OddsAPI.Workers,
		RequestTimeout:  cfg.RequestTimeout(),
		Stake: domain.StakeLimits{
			KellyCap:         cfg.Staking.KellyCap,
			MinStakeFraction: cfg.Staking.MinStakeFraction,
			MaxStakeFraction: cfg.Staking.MaxStakeFraction,
		},
		DefaultBankroll: cfg.Staking.DefaultBankroll,
	}, client, st, st, notifiers, strat)

	slog.Debug("betbot starting",
		"config", *configPath,
		"storage", cfg.Storage.Driver,
		"regions", cfg.OddsAPI.Regions,
		"ttl", cfg.ScanTTL(),
	)

	cmd := commands{
		scanner: s,
		console: console,
		history: st,
	}
	if err := cmd.run(ctx, runOptions{
		bank:     *bank,
		scan:     *scan,
		watch:    *watch,
		values:   *values,
		surebets: *surebets,
		middles:  *middles,
		split:    *split,
		history:  *history,
	}); err != nil {
		if errors.Is(err, scanner.ErrNoData) {
			fmt.Fprintln(os.Stderr, "No data - run `betbot -scan` first")
			os.Exit(2)
		}
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// openStorage abre el backend configurado. Para redis devuelve también el
// cliente para reutilizarlo en el notifier de streams.
func openStorage(ctx context.Context, cfg config.StorageConfig) (store, *redis.Client, error) {
	switch cfg.Driver {
	case "redis":
		r, err := storage.NewRedisStorage(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix, 0)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Client(), nil
	case "sqlite", "":
		db, err := storage.NewSQLiteStorage(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return db, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Logs a stderr: stdout queda para las tablas
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

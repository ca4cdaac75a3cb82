package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/betbot199/BetBot/internal/adapters/notify"
	"github.com/betbot199/BetBot/internal/application/scanner"
	"github.com/betbot199/BetBot/internal/ports"
)

type runOptions struct {
	bank     string
	scan     bool
	watch    bool
	values   int
	surebets int
	middles  int
	split    float64
	history  int
}

type commands struct {
	scanner *scanner.Scanner
	console *notify.Console
	history ports.ScanHistory
}

// run ejecuta los comandos pedidos en orden fijo: bank, scan/watch, listados, histórico.
func (c commands) run(ctx context.Context, opt runOptions) error {
	if opt.bank != "" {
		if err := c.bankroll(ctx, opt.bank); err != nil {
			return err
		}
	}

	switch {
	case opt.watch:
		return c.scanner.Run(ctx)
	case opt.scan:
		if _, err := c.scanner.Scan(ctx); err != nil {
			return err
		}
	}

	if opt.values > 0 {
		values, err := c.scanner.ValueBets(ctx, opt.values)
		if err != nil {
			return err
		}
		bank, _, err := c.scanner.Bankroll(ctx)
		if err != nil {
			slog.Warn("bankroll unavailable, stakes omitted", "err", err)
		}
		c.console.PrintValues(values, bank, c.scanner.StakeLimits())
	}

	if opt.surebets > 0 {
		surebets, err := c.scanner.Surebets(ctx, opt.surebets)
		if err != nil {
			return err
		}
		total := opt.split
		if total <= 0 {
			if bank, ok, err := c.scanner.Bankroll(ctx); err == nil && ok {
				total = bank * c.scanner.StakeLimits().MaxStakeFraction
			}
		}
		c.console.PrintSurebets(surebets, total)
	}

	if opt.middles > 0 {
		middles, err := c.scanner.Middles(ctx, opt.middles)
		if err != nil {
			return err
		}
		c.console.PrintMiddles(middles)
	}

	if opt.history > 0 {
		cycles, err := c.history.RecentCycles(ctx, opt.history)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		c.console.PrintCycles(cycles)
	}
	return nil
}

// bankroll muestra el bank ("show") o lo fija (importe numérico; acepta coma decimal).
func (c commands) bankroll(ctx context.Context, arg string) error {
	if strings.EqualFold(arg, "show") {
		amount, ok, err := c.scanner.Bankroll(ctx)
		if err != nil {
			return err
		}
		c.console.PrintBankroll(amount, ok)
		return nil
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(arg), ",", "."), 64)
	if err != nil {
		return fmt.Errorf("bank: invalid amount %q", arg)
	}
	if err := c.scanner.SetBankroll(ctx, amount); err != nil {
		return err
	}
	c.console.PrintBankroll(amount, true)
	return nil
}

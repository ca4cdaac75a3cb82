package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/betbot199/BetBot/internal/domain"
	"github.com/betbot199/BetBot/internal/domain/strategy"
	"github.com/betbot199/BetBot/internal/grouping"
	"github.com/betbot199/BetBot/internal/ports"
	"github.com/google/uuid"
)

// ErrNoData indica que no hay un scan vigente: hay que ejecutar Scan primero.
var ErrNoData = errors.New("no data - run scan first")

// cacheKey es la clave del último snapshot en el CacheStore.
const cacheKey = "scan:latest"

// Config contiene la configuración del scanner.
type Config struct {
	Regions         []string
	Markets         []string
	SportsWhitelist []string // vacío = todos los deportes elegibles
	ScanTTL         time.Duration
	Horizon         time.Duration
	Interval        time.Duration // watch mode
	Workers         int           // fetches en paralelo (0 = 4)
	RequestTimeout  time.Duration // por (deporte, región); 0 = sin límite propio
	Stake           domain.StakeLimits
	DefaultBankroll float64 // si nunca se fijó el bank
}

// StrategyBuilder construye los candidatos a partir de los grupos.
type StrategyBuilder interface {
	Build(groups []domain.OutcomeGroup) strategy.Result
}

// Summary son los contadores que devuelve Scan.
type Summary struct {
	ID             string
	ScannedAt      time.Time
	Duration       time.Duration
	Sports         int
	Requests       int
	FailedRequests int
	Events         int
	Groups         int
	Values         int
	Surebets       int
	Middles        int
}

// Scanner orquesta fetch → agrupación → candidatos y sirve las consultas
// sobre el último snapshot. Seguro para uso concurrente: Scan se serializa
// y los lectores siempre ven un snapshot completo.
type Scanner struct {
	cfg      Config
	odds     ports.OddsProvider
	cache    ports.CacheStore
	bank     ports.BankrollStore
	notifier ports.Notifier
	strategy StrategyBuilder

	snap   atomic.Pointer[domain.Snapshot]
	scanMu sync.Mutex
	now    func() time.Time
}

// New crea un Scanner con todas las dependencias inyectadas.
// cache, bank y notifier pueden ser nil.
func New(
	cfg Config,
	odds ports.OddsProvider,
	cache ports.CacheStore,
	bank ports.BankrollStore,
	notifier ports.Notifier,
	strat StrategyBuilder,
) *Scanner {
	if cfg.ScanTTL <= 0 {
		cfg.ScanTTL = 10 * time.Minute
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = grouping.DefaultHorizon
	}
	if cfg.Interval <= 0 {
		cfg.Interval = cfg.ScanTTL
	}
	if cfg.Stake == (domain.StakeLimits{}) {
		cfg.Stake = domain.DefaultStakeLimits()
	}
	return &Scanner{
		cfg:      cfg,
		odds:     odds,
		cache:    cache,
		bank:     bank,
		notifier: notifier,
		strategy: strat,
		now:      time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (s *Scanner) SetClock(now func() time.Time) {
	s.now = now
}

// Run ejecuta un scan inmediato y después uno cada cfg.Interval hasta que el
// contexto se cancele. Los scans fallidos se registran y no cortan el loop.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"interval", s.cfg.Interval,
		"regions", s.cfg.Regions,
		"markets", s.cfg.Markets,
		"workers", s.cfg.Workers,
	)

	if _, err := s.Scan(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Scan(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// Scan ejecuta siempre un ciclo completo, instala el snapshot nuevo y lo
// persiste. Solo falla si no se puede obtener el catálogo de deportes; los
// fallos por (deporte, región) se saltan.
func (s *Scanner) Scan(ctx context.Context) (Summary, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	start := s.now()

	sports, err := s.odds.FetchSports(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("scanner.Scan: fetch sports: %w", err)
	}
	selected := selectSports(sports, s.cfg.SportsWhitelist)

	tasks := make([]fetchTask, 0, len(selected)*len(s.cfg.Regions))
	for _, sp := range selected {
		for _, region := range s.cfg.Regions {
			tasks = append(tasks, fetchTask{sport: sp, region: region})
		}
	}
	results := fetchAll(ctx, s.odds, tasks, s.cfg.Markets, s.cfg.Workers, s.cfg.RequestTimeout)

	g := grouping.New(grouping.Config{
		Markets: s.cfg.Markets,
		Horizon: s.cfg.Horizon,
		Now:     s.now,
	})
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			continue
		}
		g.Add(r.task.sport, r.events)
	}

	groups := g.Groups()
	res := s.strategy.Build(groups)
	gs := g.Stats()

	snap := &domain.Snapshot{
		ID:        uuid.NewString(),
		ScannedAt: start.UTC(),
		Duration:  s.now().Sub(start),
		Stats: domain.ScanStats{
			Sports:         len(selected),
			Requests:       len(tasks),
			FailedRequests: failed,
			Events:         gs.Events,
			SkippedEvents:  gs.SkippedEvents,
			Quotes:         gs.Quotes,
			DroppedQuotes:  gs.DroppedQuotes,
			Groups:         len(groups),
		},
		Groups:   groups,
		Values:   res.Values,
		Surebets: res.Surebets,
		Middles:  res.Middles,
	}
	s.snap.Store(snap)
	s.persist(ctx, snap)

	if s.notifier != nil {
		if err := s.notifier.NotifyScan(ctx, snap); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("scan cycle complete",
		"id", snap.ID,
		"sports", len(selected),
		"failed_requests", failed,
		"events", gs.Events,
		"groups", len(groups),
		"values", len(res.Values),
		"surebets", len(res.Surebets),
		"middles", len(res.Middles),
		"duration", snap.Duration.Round(time.Millisecond),
	)
	return summaryOf(snap), nil
}

// persist guarda el snapshot en el cache y el ciclo en el histórico.
// Los errores se registran: el snapshot en memoria ya está instalado.
func (s *Scanner) persist(ctx context.Context, snap *domain.Snapshot) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		slog.Warn("snapshot encode failed", "err", err)
		return
	}
	if err := s.cache.SavePayload(ctx, cacheKey, payload); err != nil {
		slog.Warn("cache save failed", "err", err)
	}
	if h, ok := s.cache.(ports.ScanHistory); ok {
		if err := h.SaveCycle(ctx, snap.Summary()); err != nil {
			slog.Warn("history save failed", "err", err)
		}
	}
}

// Snapshot devuelve el snapshot vigente: el de memoria si está fresco, si no
// el del cache store (que queda instalado). ErrNoData si ninguno está vigente.
func (s *Scanner) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	now := s.now()
	if snap := s.snap.Load(); snap.FreshAt(now, s.cfg.ScanTTL) {
		return snap, nil
	}
	if s.cache == nil {
		return nil, ErrNoData
	}

	payload, savedAt, ok, err := s.cache.LoadPayload(ctx, cacheKey)
	if err != nil {
		slog.Warn("cache load failed, treating as miss", "err", err)
		return nil, ErrNoData
	}
	if !ok || now.Sub(savedAt) > s.cfg.ScanTTL {
		return nil, ErrNoData
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		slog.Warn("cached snapshot corrupt, treating as miss", "err", err)
		return nil, ErrNoData
	}
	if !snap.FreshAt(now, s.cfg.ScanTTL) {
		return nil, ErrNoData
	}
	if cur := s.snap.Load(); cur == nil || snap.ScannedAt.After(cur.ScannedAt) {
		s.snap.CompareAndSwap(cur, &snap)
	}
	return &snap, nil
}

// ValueBets devuelve las n primeras value bets (n <= 0 = todas). Nunca hace fetch.
func (s *Scanner) ValueBets(ctx context.Context, n int) ([]domain.ValueCandidate, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return head(snap.Values, n), nil
}

// Surebets devuelve los n primeros surebets (n <= 0 = todos). Nunca hace fetch.
func (s *Scanner) Surebets(ctx context.Context, n int) ([]domain.SurebetCandidate, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return head(snap.Surebets, n), nil
}

// Middles devuelve los n primeros middles (n <= 0 = todos). Nunca hace fetch.
func (s *Scanner) Middles(ctx context.Context, n int) ([]domain.MiddleCandidate, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return head(snap.Middles, n), nil
}

// Bankroll devuelve el bank guardado o cfg.DefaultBankroll si nunca se fijó.
// ok=false si no hay bank ni default.
func (s *Scanner) Bankroll(ctx context.Context) (float64, bool, error) {
	if s.bank != nil {
		amount, ok, err := s.bank.Bankroll(ctx)
		if err != nil {
			return 0, false, fmt.Errorf("scanner.Bankroll: %w", err)
		}
		if ok {
			return amount, true, nil
		}
	}
	if s.cfg.DefaultBankroll > 0 {
		return s.cfg.DefaultBankroll, true, nil
	}
	return 0, false, nil
}

// SetBankroll fija el bank. Solo por acción explícita del operador.
func (s *Scanner) SetBankroll(ctx context.Context, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("scanner.SetBankroll: amount must be positive, got %.2f", amount)
	}
	if s.bank == nil {
		return fmt.Errorf("scanner.SetBankroll: no bankroll store configured")
	}
	if err := s.bank.SetBankroll(ctx, amount); err != nil {
		return fmt.Errorf("scanner.SetBankroll: %w", err)
	}
	slog.Info("bankroll updated", "amount", amount)
	return nil
}

// Stake recomienda el stake para una value bet con el bank actual.
func (s *Scanner) Stake(ctx context.Context, c domain.ValueCandidate) (domain.StakeAdvice, error) {
	bank, ok, err := s.Bankroll(ctx)
	if err != nil {
		return domain.StakeAdvice{}, err
	}
	if !ok {
		return domain.StakeAdvice{}, fmt.Errorf("scanner.Stake: bankroll not set")
	}
	return domain.RecommendStake(bank, c, s.cfg.Stake), nil
}

// StakeLimits devuelve los límites de stake configurados.
func (s *Scanner) StakeLimits() domain.StakeLimits {
	return s.cfg.Stake
}

// selectSports filtra deportes elegibles (activos, sin futuros) y, si hay
// whitelist, solo las claves listadas.
func selectSports(sports []domain.Sport, whitelist []string) []domain.Sport {
	allowed := make(map[string]bool, len(whitelist))
	for _, k := range whitelist {
		if k = strings.TrimSpace(k); k != "" {
			allowed[k] = true
		}
	}
	out := make([]domain.Sport, 0, len(sports))
	for _, sp := range sports {
		if !grouping.Eligible(sp) {
			continue
		}
		if len(allowed) > 0 && !allowed[sp.Key] {
			continue
		}
		out = append(out, sp)
	}
	return out
}

func summaryOf(snap *domain.Snapshot) Summary {
	return Summary{
		ID:             snap.ID,
		ScannedAt:      snap.ScannedAt,
		Duration:       snap.Duration,
		Sports:         snap.Stats.Sports,
		Requests:       snap.Stats.Requests,
		FailedRequests: snap.Stats.FailedRequests,
		Events:         snap.Stats.Events,
		Groups:         len(snap.Groups),
		Values:         len(snap.Values),
		Surebets:       len(snap.Surebets),
		Middles:        len(snap.Middles),
	}
}

func head[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

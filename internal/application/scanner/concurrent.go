package scanner

// concurrent.go: fetch paralelo por (deporte, región).
//
// El coste dominante de un scan es la latencia de red: cada par es
// independiente, así que se lanzan en un pool acotado. El rate limiter
// compartido del cliente sigue marcando el ritmo contra el upstream.

import (
	"context"
	"log/slog"
	"time"

	"github.com/betbot199/BetBot/internal/domain"
	"github.com/betbot199/BetBot/internal/ports"
	"golang.org/x/sync/errgroup"
)

const defaultFetchWorkers = 4

type fetchTask struct {
	sport  domain.Sport
	region string
}

type fetchResult struct {
	task   fetchTask
	events []domain.Event
	err    error
}

// fetchAll ejecuta todas las tareas con como mucho workers en vuelo. Los
// resultados mantienen el orden de tasks para que la agrupación sea
// determinista. Un fallo o timeout solo marca su resultado; nunca cancela al resto.
func fetchAll(
	ctx context.Context,
	odds ports.OddsProvider,
	tasks []fetchTask,
	markets []string,
	workers int,
	timeout time.Duration,
) []fetchResult {
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	results := make([]fetchResult, len(tasks))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, t := range tasks {
		g.Go(func() error {
			reqCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				reqCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			events, err := odds.FetchOdds(reqCtx, t.sport.Key, t.region, markets)
			if err != nil {
				slog.Warn("odds fetch failed, skipping",
					"sport", t.sport.Key,
					"region", t.region,
					"err", err,
				)
			}
			results[i] = fetchResult{task: t, events: events, err: err}
			return nil
		})
	}
	// Las goroutines registran su fallo en results y siempre devuelven nil.
	_ = g.Wait()

	slog.Debug("concurrent fetch complete",
		"tasks", len(tasks),
		"workers", workers,
	)
	return results
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/betbot199/BetBot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// streamMaxLen acota el stream aproximadamente (XADD MAXLEN ~).
const streamMaxLen = 1000

// scanMessage es lo que se publica por ciclo: el resumen y los candidatos,
// sin los grupos completos.
type scanMessage struct {
	Summary  domain.CycleSummary       `json:"summary"`
	Stats    domain.ScanStats          `json:"stats"`
	Values   []domain.ValueCandidate   `json:"values"`
	Surebets []domain.SurebetCandidate `json:"surebets"`
	Middles  []domain.MiddleCandidate  `json:"middles"`
}

// RedisStream publica cada snapshot en un Redis Stream para consumidores externos.
type RedisStream struct {
	client *redis.Client
	stream string
}

// NewRedisStream crea el publisher sobre un cliente ya conectado.
func NewRedisStream(client *redis.Client, stream string) *RedisStream {
	if stream == "" {
		stream = "betbot.scans"
	}
	return &RedisStream{client: client, stream: stream}
}

// NotifyScan implementa ports.Notifier.
func (p *RedisStream) NotifyScan(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return nil
	}
	data, err := json.Marshal(scanMessage{
		Summary:  snap.Summary(),
		Stats:    snap.Stats,
		Values:   snap.Values,
		Surebets: snap.Surebets,
		Middles:  snap.Middles,
	})
	if err != nil {
		return fmt.Errorf("notify.RedisStream: marshal %s: %w", snap.ID, err)
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":   snap.ID,
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("notify.RedisStream: publish to %s: %w", p.stream, err)
	}
	return nil
}

// Notifier es el contrato mínimo que reparte Multi (igual a ports.Notifier).
type Notifier interface {
	NotifyScan(ctx context.Context, snap *domain.Snapshot) error
}

// Multi reparte cada snapshot a varios notificadores. Un fallo no corta al resto;
// los errores se devuelven unidos.
type Multi []Notifier

// NotifyScan implementa ports.Notifier.
func (m Multi) NotifyScan(ctx context.Context, snap *domain.Snapshot) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyScan(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

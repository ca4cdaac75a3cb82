package storage

// redis.go: backend alternativo para desplegar varios procesos contra el
// mismo cache de scans. Guarda un sobre JSON {saved_at, payload} por clave;
// el TTL de Redis solo limpia basura, la frescura la sigue decidiendo el scanner.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/betbot199/BetBot/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "betbot"
	defaultRedisTTL    = 24 * time.Hour
	maxRedisCycles     = 500
)

type redisEnvelope struct {
	SavedAt time.Time       `json:"saved_at"`
	Payload json.RawMessage `json:"payload"`
}

// RedisStorage implementa ports.Storage y ports.ScanHistory sobre Redis.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStorage crea el cliente y comprueba la conexión con PING.
func NewRedisStorage(ctx context.Context, addr, password string, db int, prefix string, ttl time.Duration) (*RedisStorage, error) {
	if addr == "" {
		return nil, fmt.Errorf("storage.NewRedisStorage: redis addr is required")
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("storage.NewRedisStorage: ping %s: %w", addr, err)
	}
	return &RedisStorage{client: client, prefix: prefix, ttl: ttl, now: time.Now}, nil
}

func (r *RedisStorage) key(parts ...string) string {
	k := r.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// LoadPayload implementa ports.CacheStore. Un sobre ilegible cuenta como error;
// el scanner lo trata como cache miss.
func (r *RedisStorage) LoadPayload(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	raw, err := r.client.Get(ctx, r.key("cache", key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("storage.LoadPayload: get %s: %w", key, err)
	}
	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("storage.LoadPayload: decode %s: %w", key, err)
	}
	return []byte(env.Payload), env.SavedAt.UTC(), true, nil
}

// SavePayload implementa ports.CacheStore. payload debe ser JSON válido.
func (r *RedisStorage) SavePayload(ctx context.Context, key string, payload []byte) error {
	raw, err := json.Marshal(redisEnvelope{SavedAt: r.now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("storage.SavePayload: encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key("cache", key), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("storage.SavePayload: set %s: %w", key, err)
	}
	return nil
}

// Bankroll implementa ports.BankrollStore. El bank no expira.
func (r *RedisStorage) Bankroll(ctx context.Context) (float64, bool, error) {
	amount, err := r.client.Get(ctx, r.key("bankroll")).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("storage.Bankroll: %w", err)
	}
	return amount, true, nil
}

// SetBankroll implementa ports.BankrollStore.
func (r *RedisStorage) SetBankroll(ctx context.Context, amount float64) error {
	if err := r.client.Set(ctx, r.key("bankroll"), amount, 0).Err(); err != nil {
		return fmt.Errorf("storage.SetBankroll: %w", err)
	}
	return nil
}

// SaveCycle implementa ports.ScanHistory con una lista acotada (LPUSH + LTRIM).
func (r *RedisStorage) SaveCycle(ctx context.Context, c domain.CycleSummary) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: encode %s: %w", c.ID, err)
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key("cycles"), raw)
	pipe.LTrim(ctx, r.key("cycles"), 0, maxRedisCycles-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storage.SaveCycle: push %s: %w", c.ID, err)
	}
	return nil
}

// RecentCycles implementa ports.ScanHistory.
func (r *RedisStorage) RecentCycles(ctx context.Context, n int) ([]domain.CycleSummary, error) {
	if n <= 0 {
		n = 10
	}
	items, err := r.client.LRange(ctx, r.key("cycles"), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("storage.RecentCycles: %w", err)
	}
	out := make([]domain.CycleSummary, 0, len(items))
	for _, item := range items {
		var c domain.CycleSummary
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Client expone el cliente para reutilizar la conexión (p.ej. el notifier de streams).
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Close cierra el cliente.
func (r *RedisStorage) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

package ports

import (
	"context"
	"time"

	"github.com/betbot199/BetBot/internal/domain"
)

// CacheStore guarda payloads opacos con la hora en que se guardaron.
// La frescura la decide quien lee (now − savedAt <= TTL).
type CacheStore interface {
	// LoadPayload devuelve el payload y su hora de guardado. ok=false si no existe.
	LoadPayload(ctx context.Context, key string) (payload []byte, savedAt time.Time, ok bool, err error)

	// SavePayload reemplaza el payload de key.
	SavePayload(ctx context.Context, key string, payload []byte) error
}

// BankrollStore persiste el bank como un único escalar.
type BankrollStore interface {
	// Bankroll devuelve el bank guardado. ok=false si nunca se fijó.
	Bankroll(ctx context.Context) (amount float64, ok bool, err error)

	// SetBankroll fija el bank. Solo se llama por acción explícita del operador.
	SetBankroll(ctx context.Context, amount float64) error
}

// ScanHistory registra un resumen ligero de cada ciclo de scan.
type ScanHistory interface {
	SaveCycle(ctx context.Context, c domain.CycleSummary) error

	// RecentCycles devuelve los últimos n ciclos, el más reciente primero.
	RecentCycles(ctx context.Context, n int) ([]domain.CycleSummary, error)
}

// Storage es el almacenamiento completo: cache de scans, bank e histórico.
type Storage interface {
	CacheStore
	BankrollStore

	// Close cierra la conexión limpiamente.
	Close() error
}

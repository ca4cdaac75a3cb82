package ports

import (
	"context"

	"github.com/betbot199/BetBot/internal/domain"
)

// Notifier recibe el snapshot de cada scan completado.
type Notifier interface {
	// NotifyScan publica o muestra el resultado del scan.
	// En la implementación de consola, imprime un resumen de una línea.
	NotifyScan(ctx context.Context, snap *domain.Snapshot) error
}

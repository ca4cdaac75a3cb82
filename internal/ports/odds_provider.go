package ports

import (
	"context"

	"github.com/betbot199/BetBot/internal/domain"
)

// SportsCatalog lista los deportes disponibles en el proveedor de cuotas.
type SportsCatalog interface {
	// FetchSports devuelve todos los deportes, activos o no.
	FetchSports(ctx context.Context) ([]domain.Sport, error)
}

// OddsProvider obtiene los eventos con cuotas de un deporte.
type OddsProvider interface {
	SportsCatalog

	// FetchOdds devuelve los eventos de sportKey para una región y los markets
	// dados. Un error significa "sin datos para este deporte/región"; el
	// scanner lo registra y sigue con el resto.
	FetchOdds(ctx context.Context, sportKey, region string, markets []string) ([]domain.Event, error)
}

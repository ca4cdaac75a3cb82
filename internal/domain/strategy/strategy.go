package strategy

import (
	"github.com/betbot199/BetBot/internal/domain"
)

// Strategy define el contrato para convertir grupos de cuotas en candidatos.
// Cada estrategia encapsula una forma distinta de buscar ineficiencias.
type Strategy interface {
	// Build evalúa todos los grupos de un scan y devuelve los candidatos
	// ordenados. Los grupos con datos insuficientes se ignoran sin error.
	Build(groups []domain.OutcomeGroup) Result
}

// Result agrupa los candidatos de una pasada.
type Result struct {
	Values   []domain.ValueCandidate
	Surebets []domain.SurebetCandidate
	Middles  []domain.MiddleCandidate
}

// Config son los umbrales del constructor de candidatos.
type Config struct {
	MinBooks      int     // casas distintas mínimas en CADA slot para value bets
	MinEdge       float64 // edge mínimo para emitir un value bet (0.02 = 2%)
	MiddleMaxCost float64 // coste máximo aceptado para un middle (0.05 = 5%)
}

// DefaultConfig devuelve min_books=3, edge_min=2%, middle hasta 5% de coste.
func DefaultConfig() Config {
	return Config{MinBooks: 3, MinEdge: 0.02, MiddleMaxCost: 0.05}
}

// ValueArb es la estrategia por defecto: value bets contra el consenso del
// mercado, surebets entre casas y middles entre líneas.
type ValueArb struct {
	cfg Config
}

// NewValueArb crea la estrategia con los umbrales dados.
func NewValueArb(cfg Config) *ValueArb {
	if cfg.MinBooks <= 0 {
		cfg.MinBooks = DefaultConfig().MinBooks
	}
	return &ValueArb{cfg: cfg}
}

// Build implementa Strategy.
func (v *ValueArb) Build(groups []domain.OutcomeGroup) Result {
	return Result{
		Values:   ValueBets(groups, v.cfg),
		Surebets: Surebets(groups),
		Middles:  Middles(groups, v.cfg),
	}
}

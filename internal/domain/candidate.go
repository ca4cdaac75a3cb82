package domain

import "math"

// ValueCandidate es una apuesta de valor: la mejor cuota de un resultado
// supera la probabilidad justa del mercado en al menos el edge mínimo.
type ValueCandidate struct {
	Meta            EventMeta `json:"meta"`
	Outcome         string    `json:"outcome"`
	BestPrice       float64   `json:"best_price"`
	BestBookmaker   string    `json:"best_bookmaker"`
	FairProbability float64   `json:"fair_probability"`
	Edge            float64   `json:"edge"`
}

// Leg es una pata de una surebet o de un middle.
type Leg struct {
	Outcome   string   `json:"outcome"`
	Price     float64  `json:"price"`
	Bookmaker string   `json:"bookmaker"`
	Line      *float64 `json:"line,omitempty"`
}

// SurebetCandidate es un arbitraje: la suma de 1/mejor cuota de todos los
// resultados es < 1. Margin = 1 − suma.
type SurebetCandidate struct {
	Meta   EventMeta `json:"meta"`
	Legs   []Leg     `json:"legs"`
	Margin float64   `json:"margin"`
}

// Prices devuelve el mapa resultado → mejor cuota.
func (s SurebetCandidate) Prices() map[string]float64 {
	out := make(map[string]float64, len(s.Legs))
	for _, l := range s.Legs {
		out[l.Outcome] = l.Price
	}
	return out
}

// LegStake es el importe a apostar en una pata.
type LegStake struct {
	Leg    Leg     `json:"leg"`
	Stake  float64 `json:"stake"`
	Payout float64 `json:"payout"`
}

// StakeSplit reparte total entre las patas de forma proporcional a 1/cuota,
// de modo que el pago es el mismo gane quien gane.
func (s SurebetCandidate) StakeSplit(total float64) []LegStake {
	inv := 0.0
	for _, l := range s.Legs {
		inv += ImpliedProbability(l.Price)
	}
	if inv <= 0 || total <= 0 {
		return nil
	}
	out := make([]LegStake, len(s.Legs))
	for i, l := range s.Legs {
		stake := total * ImpliedProbability(l.Price) / inv
		out[i] = LegStake{
			Leg:    l,
			Stake:  math.Round(stake*100) / 100,
			Payout: stake * l.Price,
		}
	}
	return out
}

// MiddleCandidate combina dos líneas distintas del mismo evento dejando una
// ventana en la que ganan ambas patas. Cost es lo que se pierde si el
// resultado cae fuera de la ventana (suma de 1/cuota − 1).
type MiddleCandidate struct {
	Meta   EventMeta `json:"meta"`
	Low    Leg       `json:"low"`
	High   Leg       `json:"high"`
	Window float64   `json:"window"`
	Cost   float64   `json:"cost"`
}

package strategy

// value_arb.go: value bets y surebets sobre grupos de 2 o 3 vías.
//
// Ambos builders comparten el mismo recorrido por slots: la aridad solo cambia
// cuántos slots se leen del grupo.

import (
	"sort"

	"github.com/betbot199/BetBot/internal/domain"
)

// side es la vista de un slot completo: nombre, cuotas y mejor cuota.
type side struct {
	name   string
	prices []float64
	best   domain.Quote
}

// sides devuelve los slots del grupo en orden. ok=false si algún slot no tiene cuotas.
func sides(g *domain.OutcomeGroup) ([]side, bool) {
	slots := g.Slots()
	out := make([]side, 0, len(slots))
	for _, s := range slots {
		best, ok := g.Best(s)
		if !ok {
			return nil, false
		}
		out = append(out, side{name: g.Names[s], prices: g.Prices(s), best: best})
	}
	return out, true
}

// ValueBets emite un candidato por cada slot cuya mejor cuota supera la
// probabilidad justa en al menos cfg.MinEdge. Grupos con menos de cfg.MinBooks
// casas en algún slot se ignoran. Orden: edge desc, probabilidad justa desc.
func ValueBets(groups []domain.OutcomeGroup, cfg Config) []domain.ValueCandidate {
	var out []domain.ValueCandidate
	for i := range groups {
		g := &groups[i]
		if g.MinBooks() < cfg.MinBooks {
			continue
		}
		ss, ok := sides(g)
		if !ok {
			continue
		}
		priceSets := make([][]float64, len(ss))
		for j, s := range ss {
			priceSets[j] = s.prices
		}
		fair, ok := domain.FairProbabilities(priceSets...)
		if !ok {
			continue
		}
		for j, s := range ss {
			edge := domain.ValueEdge(s.best.Price, fair[j])
			if edge < cfg.MinEdge {
				continue
			}
			out = append(out, domain.ValueCandidate{
				Meta:            g.Meta,
				Outcome:         s.name,
				BestPrice:       s.best.Price,
				BestBookmaker:   s.best.Bookmaker,
				FairProbability: fair[j],
				Edge:            edge,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Edge != out[j].Edge {
			return out[i].Edge > out[j].Edge
		}
		return out[i].FairProbability > out[j].FairProbability
	})
	return out
}

// Surebets detecta arbitrajes: Σ 1/mejor cuota < 1 sobre todos los slots.
// No exige mínimo de casas; una sola casa puede formar una pata.
func Surebets(groups []domain.OutcomeGroup) []domain.SurebetCandidate {
	var out []domain.SurebetCandidate
	for i := range groups {
		g := &groups[i]
		ss, ok := sides(g)
		if !ok {
			continue
		}
		legs := make([]domain.Leg, len(ss))
		best := make([]float64, len(ss))
		for j, s := range ss {
			legs[j] = domain.Leg{Outcome: s.name, Price: s.best.Price, Bookmaker: s.best.Bookmaker}
			best[j] = s.best.Price
		}
		sum := domain.InverseSum(best...)
		if sum >= 1 {
			continue
		}
		out = append(out, domain.SurebetCandidate{
			Meta:   g.Meta,
			Legs:   legs,
			Margin: 1 - sum,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Margin > out[j].Margin
	})
	return out
}

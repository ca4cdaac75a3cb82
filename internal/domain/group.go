package domain

import "sort"

// Slot es la posición canónica de un resultado dentro de un grupo.
type Slot int

const (
	SlotA Slot = iota
	SlotB
	SlotC
)

func (s Slot) String() string {
	switch s {
	case SlotA:
		return "A"
	case SlotB:
		return "B"
	case SlotC:
		return "C"
	default:
		return "?"
	}
}

// GroupKey identifica un grupo de resultados. Es comparable, se usa como clave de map.
// Los grupos 1X2 usan MarketKey "h2h" sin línea.
type GroupKey struct {
	EventID   string  `json:"event_id"`
	MarketKey string  `json:"market_key"`
	Line      float64 `json:"line"`
	HasLine   bool    `json:"has_line"`
}

// Less define el orden determinista de salida de los grupos.
func (k GroupKey) Less(o GroupKey) bool {
	if k.EventID != o.EventID {
		return k.EventID < o.EventID
	}
	if k.MarketKey != o.MarketKey {
		return k.MarketKey < o.MarketKey
	}
	if k.HasLine != o.HasLine {
		return !k.HasLine
	}
	return k.Line < o.Line
}

// OutcomeGroup reúne todas las cuotas de una proposición, repartidas en 2 o 3 slots.
// El nombre de cada slot se fija con la primera escritura y no cambia después.
type OutcomeGroup struct {
	Key    GroupKey   `json:"key"`
	Meta   EventMeta  `json:"meta"`
	Arity  int        `json:"arity"`
	Names  [3]string  `json:"names"`
	Quotes [3][]Quote `json:"quotes"`
}

// NewOutcomeGroup crea un grupo vacío de la aridad dada (2 o 3).
func NewOutcomeGroup(key GroupKey, meta EventMeta, arity int) *OutcomeGroup {
	if arity != 3 {
		arity = 2
	}
	return &OutcomeGroup{Key: key, Meta: meta, Arity: arity}
}

// Slots devuelve los slots válidos del grupo en orden.
func (g *OutcomeGroup) Slots() []Slot {
	if g.Arity == 3 {
		return []Slot{SlotA, SlotB, SlotC}
	}
	return []Slot{SlotA, SlotB}
}

// Bind fija el nombre del slot si todavía no tiene uno. Devuelve el nombre vigente.
func (g *OutcomeGroup) Bind(s Slot, name string) string {
	if g.Names[s] == "" {
		g.Names[s] = name
	}
	return g.Names[s]
}

// Append añade una cuota al slot. Una casa aporta como máximo una cuota por slot;
// los duplicados (regiones solapadas) se ignoran.
func (g *OutcomeGroup) Append(s Slot, q Quote) bool {
	for _, existing := range g.Quotes[s] {
		if existing.Bookmaker == q.Bookmaker {
			return false
		}
	}
	g.Quotes[s] = append(g.Quotes[s], q)
	return true
}

// Complete indica si todos los slots tienen al menos una cuota.
func (g *OutcomeGroup) Complete() bool {
	for _, s := range g.Slots() {
		if len(g.Quotes[s]) == 0 {
			return false
		}
	}
	return true
}

// BookCount cuenta las casas distintas que cotizan el slot.
func (g *OutcomeGroup) BookCount(s Slot) int {
	seen := make(map[string]struct{}, len(g.Quotes[s]))
	for _, q := range g.Quotes[s] {
		seen[q.Bookmaker] = struct{}{}
	}
	return len(seen)
}

// MinBooks devuelve el mínimo de casas distintas entre todos los slots.
func (g *OutcomeGroup) MinBooks() int {
	lowest := -1
	for _, s := range g.Slots() {
		if n := g.BookCount(s); lowest < 0 || n < lowest {
			lowest = n
		}
	}
	if lowest < 0 {
		return 0
	}
	return lowest
}

// Prices devuelve las cuotas del slot, en el orden en que llegaron.
func (g *OutcomeGroup) Prices(s Slot) []float64 {
	out := make([]float64, len(g.Quotes[s]))
	for i, q := range g.Quotes[s] {
		out[i] = q.Price
	}
	return out
}

// Best devuelve la mejor cuota del slot. A igualdad de precio gana la primera casa.
func (g *OutcomeGroup) Best(s Slot) (Quote, bool) {
	var best Quote
	found := false
	for _, q := range g.Quotes[s] {
		if !found || q.Price > best.Price {
			best = q
			found = true
		}
	}
	return best, found
}

// SortGroups ordena los grupos por clave para que la salida sea determinista.
func SortGroups(groups []OutcomeGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key.Less(groups[j].Key)
	})
}

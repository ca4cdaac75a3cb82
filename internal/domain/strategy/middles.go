package strategy

// middles.go: middles entre líneas distintas del mismo evento.
//
// totals: Over a la línea baja + Under a la línea alta. Si el total cae entre
// ambas líneas ganan las dos patas.
// spreads: las líneas están expresadas como hándicap del local. Local con
// hándicap h1 + visitante del grupo con hándicap h2 < h1: si el margen del
// local cae en (−h1, −h2) ganan las dos patas.

import (
	"sort"

	"github.com/betbot199/BetBot/internal/domain"
)

// lineQuotes guarda la mejor cuota de cada lado para una línea.
type lineQuotes struct {
	line float64
	meta domain.EventMeta
	low  *domain.Leg // Over en totals, local en spreads
	high *domain.Leg // Under en totals, visitante en spreads
}

type familyKey struct {
	eventID string
	family  string
}

// Middles empareja líneas de la misma familia de mercado y evento. Emite los
// pares con ventana > 0 y coste <= cfg.MiddleMaxCost. Orden: ventana desc,
// coste asc.
func Middles(groups []domain.OutcomeGroup, cfg Config) []domain.MiddleCandidate {
	byFamily := make(map[familyKey]map[float64]*lineQuotes)
	var order []familyKey

	for i := range groups {
		g := &groups[i]
		family := marketFamily(g.Key.MarketKey)
		if family == "" || !g.Key.HasLine {
			continue
		}
		lowSlot, highSlot, ok := middleSlots(g, family)
		if !ok {
			continue
		}

		fk := familyKey{eventID: g.Key.EventID, family: family}
		lines, seen := byFamily[fk]
		if !seen {
			lines = make(map[float64]*lineQuotes)
			byFamily[fk] = lines
			order = append(order, fk)
		}
		lq, seen := lines[g.Key.Line]
		if !seen {
			meta := g.Meta
			meta.MarketKey = family
			meta.Line = nil
			lq = &lineQuotes{line: g.Key.Line, meta: meta}
			lines[g.Key.Line] = lq
		}

		lq.low = betterLeg(lq.low, g, lowSlot, g.Key.Line)
		highLine := g.Key.Line
		if family == "spreads" {
			highLine = -g.Key.Line
		}
		lq.high = betterLeg(lq.high, g, highSlot, highLine)
	}

	var out []domain.MiddleCandidate
	for _, fk := range order {
		lines := sortedLines(byFamily[fk])
		for _, a := range lines {
			for _, b := range lines {
				if a.line == b.line {
					continue
				}
				if mc, ok := pairMiddle(fk.family, a, b, cfg); ok {
					out = append(out, mc)
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Window != out[j].Window {
			return out[i].Window > out[j].Window
		}
		return out[i].Cost < out[j].Cost
	})
	return out
}

// pairMiddle combina la pata "low" de a con la pata "high" de b.
func pairMiddle(family string, a, b *lineQuotes, cfg Config) (domain.MiddleCandidate, bool) {
	if a.low == nil || b.high == nil {
		return domain.MiddleCandidate{}, false
	}
	var window float64
	switch family {
	case "totals":
		// Over a.line + Under b.line
		window = b.line - a.line
	case "spreads":
		// local con hándicap a.line + visitante del grupo b.line
		window = a.line - b.line
	}
	if window <= 0 {
		return domain.MiddleCandidate{}, false
	}
	cost := domain.InverseSum(a.low.Price, b.high.Price) - 1
	if cost > cfg.MiddleMaxCost {
		return domain.MiddleCandidate{}, false
	}
	return domain.MiddleCandidate{
		Meta:   a.meta,
		Low:    *a.low,
		High:   *b.high,
		Window: window,
		Cost:   cost,
	}, true
}

func marketFamily(marketKey string) string {
	switch marketKey {
	case "totals", "alternate_totals":
		return "totals"
	case "spreads", "alternate_spreads":
		return "spreads"
	}
	return ""
}

// middleSlots devuelve qué slot actúa como pata baja y cuál como alta. En
// spreads hace falta saber qué slot es el local.
func middleSlots(g *domain.OutcomeGroup, family string) (low, high domain.Slot, ok bool) {
	if family == "totals" {
		return domain.SlotA, domain.SlotB, true
	}
	home, away := g.Meta.HomeTeam, g.Meta.AwayTeam
	switch {
	case home == "":
		return 0, 0, false
	case g.Names[domain.SlotA] == home:
		return domain.SlotA, domain.SlotB, true
	case g.Names[domain.SlotB] == home:
		return domain.SlotB, domain.SlotA, true
	case away != "" && g.Names[domain.SlotA] == away:
		return domain.SlotB, domain.SlotA, true
	case away != "" && g.Names[domain.SlotB] == away:
		return domain.SlotA, domain.SlotB, true
	}
	return 0, 0, false
}

func betterLeg(cur *domain.Leg, g *domain.OutcomeGroup, s domain.Slot, line float64) *domain.Leg {
	best, ok := g.Best(s)
	if !ok {
		return cur
	}
	if cur != nil && cur.Price >= best.Price {
		return cur
	}
	l := line
	return &domain.Leg{Outcome: g.Names[s], Price: best.Price, Bookmaker: best.Bookmaker, Line: &l}
}

func sortedLines(m map[float64]*lineQuotes) []*lineQuotes {
	out := make([]*lineQuotes, 0, len(m))
	for _, lq := range m {
		out = append(out, lq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].line < out[j].line })
	return out
}

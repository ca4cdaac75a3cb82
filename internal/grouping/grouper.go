package grouping

// grouper.go: agrupa las cuotas de todas las casas por (evento, mercado, línea).
//
// Una pasada de scan crea un Grouper, le añade los eventos de cada
// (deporte, región) en orden y al final llama a Groups(). El resultado no
// depende del orden de entrada de los nombres: los slots asignados por orden
// alfabético se canonicalizan al cerrar la pasada.

import (
	"log/slog"
	"strings"
	"time"

	"github.com/betbot199/BetBot/internal/domain"
)

// DefaultHorizon es el horizonte por defecto: eventos a más de 7 días se ignoran.
const DefaultHorizon = 7 * 24 * time.Hour

// Config controla qué se agrupa.
type Config struct {
	Markets []string      // market keys permitidos; vacío = todos los que tienen regla
	Horizon time.Duration // 0 = DefaultHorizon
	Now     func() time.Time
}

// Stats cuenta lo descartado durante la pasada.
type Stats struct {
	Events        int
	SkippedEvents int
	Quotes        int
	DroppedQuotes int
}

type groupState struct {
	group *domain.OutcomeGroup
	// alpha indica que algún slot A/B se asignó por orden alfabético.
	alpha bool
}

// threeWayPrefixes son los deportes cuyo h2h siempre tiene empate.
var threeWayPrefixes = []string{"soccer_"}

// Grouper acumula grupos durante una pasada de scan. No es seguro para uso concurrente.
type Grouper struct {
	cfg     Config
	allowed map[string]bool
	groups  map[domain.GroupKey]*groupState

	// drawSeen marca los h2h con algún nombre de empate, aunque su cuota se descartara.
	drawSeen map[domain.GroupKey]bool
	stats    Stats
}

// New crea un Grouper vacío.
func New(cfg Config) *Grouper {
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultHorizon
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	allowed := make(map[string]bool)
	for _, m := range cfg.Markets {
		m = strings.TrimSpace(m)
		if _, ok := rules[m]; ok {
			allowed[m] = true
		}
	}
	if len(cfg.Markets) == 0 {
		for m := range rules {
			allowed[m] = true
		}
	}
	return &Grouper{
		cfg:      cfg,
		allowed:  allowed,
		groups:   make(map[domain.GroupKey]*groupState),
		drawSeen: make(map[domain.GroupKey]bool),
	}
}

// Eligible indica si un deporte debe escanearse: activo y sin mercados de futuros.
func Eligible(s domain.Sport) bool {
	return s.Active && !s.HasOutrights
}

// Add incorpora los eventos de un deporte.
func (g *Grouper) Add(sport domain.Sport, events []domain.Event) {
	if !sport.Active {
		g.stats.SkippedEvents += len(events)
		return
	}
	now := g.cfg.Now().UTC()

	for _, ev := range events {
		g.stats.Events++
		if ev.CommenceTime.IsZero() {
			g.stats.SkippedEvents++
			continue
		}
		if ev.CommenceTime.Sub(now) > g.cfg.Horizon {
			g.stats.SkippedEvents++
			continue
		}
		g.addEvent(sport, ev)
	}
}

func (g *Grouper) addEvent(sport domain.Sport, ev domain.Event) {
	base := domain.EventMeta{
		Sport:     firstNonEmpty(sport.Title, ev.SportTitle, sport.Key),
		SportKey:  firstNonEmpty(sport.Key, ev.SportKey),
		EventName: ev.Name(),
		EventID:   ev.StableID(),
		HomeTeam:  ev.HomeTeam,
		AwayTeam:  ev.AwayTeam,
		StartTime: ev.CommenceTime.UTC(),
	}

	for _, bm := range ev.Bookmakers {
		book := firstNonEmpty(bm.Title, bm.Key)
		for _, m := range bm.Markets {
			if !g.allowed[m.Key] {
				continue
			}
			rule := rules[m.Key]
			for _, oc := range m.Outcomes {
				g.addOutcome(base, rule, m.Key, book, oc)
			}
		}
	}
}

func (g *Grouper) addOutcome(base domain.EventMeta, rule Rule, marketKey, book string, oc domain.OutcomeOdds) {
	name := strings.TrimSpace(oc.Name)
	if rule.Arity == 3 && drawNames[strings.ToLower(name)] {
		g.drawSeen[domain.GroupKey{EventID: base.EventID, MarketKey: marketKey}] = true
	}
	if name == "" || oc.Price <= domain.MinQuotePrice {
		g.stats.DroppedQuotes++
		return
	}

	key := domain.GroupKey{EventID: base.EventID, MarketKey: marketKey}
	if rule.Lined {
		if oc.Point == nil {
			g.stats.DroppedQuotes++
			return
		}
		key.Line = lineKey(*oc.Point, name, base, rule)
		key.HasLine = true
	}

	st, ok := g.groups[key]
	if !ok {
		meta := base
		meta.MarketKey = marketKey
		if key.HasLine {
			line := key.Line
			meta.Line = &line
		}
		st = &groupState{group: domain.NewOutcomeGroup(key, meta, rule.Arity)}
		g.groups[key] = st
	}

	a, ok := rule.Assign(name, st.group.Meta, st.group.Names)
	if !ok {
		slog.Debug("outcome dropped: group already has two names",
			"event", base.EventName,
			"market", marketKey,
			"name", name,
		)
		g.stats.DroppedQuotes++
		return
	}
	if a.Alphabetic {
		st.alpha = true
	}

	st.group.Bind(a.Slot, a.Display)
	if st.group.Append(a.Slot, domain.Quote{Price: oc.Price, Bookmaker: book}) {
		g.stats.Quotes++
	}
}

// Groups cierra la pasada y devuelve los grupos ordenados por clave.
//
// Los grupos con slots alfabéticos quedan con el nombre menor en A. Los h2h
// sin ninguna cuota de empate se emiten como grupos de dos vías solo si el
// empate nunca apareció y el deporte no es de tres resultados; si no, quedan
// incompletos y ninguna estrategia los usa.
func (g *Grouper) Groups() []domain.OutcomeGroup {
	out := make([]domain.OutcomeGroup, 0, len(g.groups))
	for _, st := range g.groups {
		grp := *st.group
		if st.alpha && grp.Names[domain.SlotB] != "" && grp.Names[domain.SlotB] < grp.Names[domain.SlotA] {
			grp.Names[domain.SlotA], grp.Names[domain.SlotB] = grp.Names[domain.SlotB], grp.Names[domain.SlotA]
			grp.Quotes[domain.SlotA], grp.Quotes[domain.SlotB] = grp.Quotes[domain.SlotB], grp.Quotes[domain.SlotA]
		}
		if grp.Arity == 3 && len(grp.Quotes[domain.SlotC]) == 0 &&
			!g.drawSeen[grp.Key] && !threeWaySport(grp.Meta.SportKey) {
			grp.Arity = 2
		}
		out = append(out, grp)
	}
	domain.SortGroups(out)
	return out
}

// Stats devuelve los contadores de la pasada.
func (g *Grouper) Stats() Stats {
	return g.stats
}

// lineKey devuelve la línea usada en la clave. En spreads se expresa como el
// hándicap del local, así "Local -3.5" y "Visitante +3.5" caen en el mismo grupo.
func lineKey(point float64, name string, meta domain.EventMeta, rule Rule) float64 {
	if !rule.HomeLine || meta.HomeTeam == "" {
		return point
	}
	switch name {
	case meta.HomeTeam:
		return point
	case meta.AwayTeam:
		return -point
	default:
		return point
	}
}

func threeWaySport(sportKey string) bool {
	for _, p := range threeWayPrefixes {
		if strings.HasPrefix(sportKey, p) {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

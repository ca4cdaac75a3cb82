package grouping

import (
	"strings"

	"github.com/betbot199/BetBot/internal/domain"
)

// Assignment es el slot resuelto para un resultado. Display es el nombre con el
// que se fija el slot; Alphabetic marca las asignaciones por orden de llegada,
// que el Grouper canonicaliza al cerrar la pasada.
type Assignment struct {
	Slot       domain.Slot
	Display    string
	Alphabetic bool
}

// AssignFunc decide el slot de un resultado a partir de su nombre, el evento y
// los nombres ya fijados en el grupo. ok=false descarta la cuota.
type AssignFunc func(name string, meta domain.EventMeta, bound [3]string) (Assignment, bool)

// Rule describe cómo se agrupa un tipo de mercado.
type Rule struct {
	Arity int
	// Lined indica si la línea (point) forma parte de la clave del grupo.
	Lined bool
	// HomeLine convierte la línea al hándicap del local (spreads).
	HomeLine bool
	Assign   AssignFunc
}

var (
	drawNames = set("draw", "empate", "tie", "x")
	overNames = set("over", "o", "más", "mas", "more")
	yesNames  = set("yes", "sí", "si")
)

// rules es la tabla de despacho por market key. Mercados ausentes (outrights,
// player props...) no se agrupan.
var rules = map[string]Rule{
	"h2h":               {Arity: 3, Assign: assignHeadToHead},
	"totals":            {Arity: 2, Lined: true, Assign: assignTotals},
	"alternate_totals":  {Arity: 2, Lined: true, Assign: assignTotals},
	"btts":              {Arity: 2, Assign: assignYesNo},
	"draw_no_bet":       {Arity: 2, Assign: assignYesNo},
	"spreads":           {Arity: 2, Lined: true, HomeLine: true, Assign: assignAlphabetic},
	"alternate_spreads": {Arity: 2, Lined: true, HomeLine: true, Assign: assignAlphabetic},
}

// RuleFor devuelve la regla del mercado, si existe.
func RuleFor(marketKey string) (Rule, bool) {
	r, ok := rules[marketKey]
	return r, ok
}

// SupportedMarkets lista los market keys con regla de agrupación.
func SupportedMarkets() []string {
	out := make([]string, 0, len(rules))
	for k := range rules {
		out = append(out, k)
	}
	return out
}

// assignHeadToHead: empate → C; coincidencia exacta con el local → A; resto → B.
// Sin local conocido se usa el orden alfabético entre A y B.
//
// La coincidencia exacta es frágil ante variantes de nombre entre casas
// (abreviaturas, acentos): un local escrito distinto acaba en B.
func assignHeadToHead(name string, meta domain.EventMeta, bound [3]string) (Assignment, bool) {
	if drawNames[strings.ToLower(name)] {
		return Assignment{Slot: domain.SlotC, Display: name}, true
	}
	if meta.HomeTeam == "" {
		return assignAlphabetic(name, meta, bound)
	}
	if name == meta.HomeTeam {
		return Assignment{Slot: domain.SlotA, Display: name}, true
	}
	return Assignment{Slot: domain.SlotB, Display: name}, true
}

// assignTotals: familia Over → A; cualquier otro nombre → B.
func assignTotals(name string, _ domain.EventMeta, _ [3]string) (Assignment, bool) {
	if overNames[strings.ToLower(name)] {
		return Assignment{Slot: domain.SlotA, Display: "Over"}, true
	}
	return Assignment{Slot: domain.SlotB, Display: "Under"}, true
}

// assignYesNo: Yes/No directos; nombres de equipo (draw no bet) por orden alfabético.
func assignYesNo(name string, meta domain.EventMeta, bound [3]string) (Assignment, bool) {
	lower := strings.ToLower(name)
	if yesNames[lower] {
		return Assignment{Slot: domain.SlotA, Display: "Yes"}, true
	}
	if lower == "no" {
		return Assignment{Slot: domain.SlotB, Display: "No"}, true
	}
	return assignAlphabetic(name, meta, bound)
}

// assignAlphabetic mantiene el slot de un nombre ya visto y asigna el primer
// slot libre a uno nuevo. Un tercer nombre distinto se descarta. El orden final
// (menor nombre en A) lo fija el Grouper al cerrar la pasada.
func assignAlphabetic(name string, _ domain.EventMeta, bound [3]string) (Assignment, bool) {
	a := Assignment{Display: name, Alphabetic: true}
	switch {
	case name == bound[domain.SlotA] || bound[domain.SlotA] == "":
		a.Slot = domain.SlotA
	case name == bound[domain.SlotB] || bound[domain.SlotB] == "":
		a.Slot = domain.SlotB
	default:
		return Assignment{}, false
	}
	return a, true
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

package domain

import (
	"fmt"
	"time"
)

// MinQuotePrice es la cuota mínima aceptada. Cuotas <= 1.01 son artefactos de
// redondeo o mercados suspendidos y nunca llegan al modelo de probabilidad.
const MinQuotePrice = 1.01

// Sport es una entrada del catálogo de deportes del proveedor de cuotas.
type Sport struct {
	Key          string
	Group        string
	Title        string
	Active       bool
	HasOutrights bool
}

// Event es un partido con las cuotas de cada casa de apuestas.
type Event struct {
	ID           string
	SportKey     string
	SportTitle   string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Bookmakers   []BookmakerOdds
}

// BookmakerOdds agrupa los mercados que ofrece una casa para un evento.
type BookmakerOdds struct {
	Key     string
	Title   string
	Markets []MarketOdds
}

// MarketOdds es un mercado (h2h, totals, spreads...) de una casa.
type MarketOdds struct {
	Key      string
	Outcomes []OutcomeOdds
}

// OutcomeOdds es una cuota individual. Point solo existe en mercados con línea.
type OutcomeOdds struct {
	Name  string
	Price float64
	Point *float64
}

// Name devuelve "Home vs Away", o el equipo local si falta el visitante.
func (e Event) Name() string {
	switch {
	case e.HomeTeam != "" && e.AwayTeam != "":
		return e.HomeTeam + " vs " + e.AwayTeam
	case e.HomeTeam != "":
		return e.HomeTeam
	default:
		return "Partido"
	}
}

// StableID devuelve el id del evento o, si el feed no lo trae, uno sintético
// a partir del equipo local y la hora de inicio.
func (e Event) StableID() string {
	if e.ID != "" {
		return e.ID
	}
	return fmt.Sprintf("%s-%s", e.HomeTeam, e.CommenceTime.UTC().Format(time.RFC3339))
}

// Quote es una cuota decimal ofrecida por una casa concreta.
type Quote struct {
	Price     float64 `json:"price"`
	Bookmaker string  `json:"bookmaker"`
}

// EventMeta identifica una proposición apostable (evento + mercado + línea).
type EventMeta struct {
	Sport     string    `json:"sport"`
	SportKey  string    `json:"sport_key"`
	EventName string    `json:"event_name"`
	EventID   string    `json:"event_id"`
	HomeTeam  string    `json:"home_team,omitempty"`
	AwayTeam  string    `json:"away_team,omitempty"`
	StartTime time.Time `json:"start_time"`
	MarketKey string    `json:"market_key"`
	Line      *float64  `json:"line,omitempty"`
}

// LineLabel formatea la línea para mostrarla ("" si el mercado no tiene línea).
func (m EventMeta) LineLabel() string {
	if m.Line == nil {
		return ""
	}
	return fmt.Sprintf("%+g", *m.Line)
}

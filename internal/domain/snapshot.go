package domain

import "time"

// ScanStats cuenta lo que se procesó en un ciclo de scan.
type ScanStats struct {
	Sports         int `json:"sports"`
	Requests       int `json:"requests"`
	FailedRequests int `json:"failed_requests"`
	Events         int `json:"events"`
	SkippedEvents  int `json:"skipped_events"`
	Quotes         int `json:"quotes"`
	DroppedQuotes  int `json:"dropped_quotes"`
	Groups         int `json:"groups"`
}

// Snapshot es el resultado inmutable de un scan. Una vez publicado no se modifica;
// los lectores reciben siempre un snapshot completo.
type Snapshot struct {
	ID        string             `json:"id"`
	ScannedAt time.Time          `json:"scanned_at"`
	Duration  time.Duration      `json:"duration"`
	Stats     ScanStats          `json:"stats"`
	Groups    []OutcomeGroup     `json:"groups"`
	Values    []ValueCandidate   `json:"values"`
	Surebets  []SurebetCandidate `json:"surebets"`
	Middles   []MiddleCandidate  `json:"middles"`
}

// FreshAt indica si el snapshot sigue vigente en now para el TTL dado.
func (s *Snapshot) FreshAt(now time.Time, ttl time.Duration) bool {
	if s == nil || s.ScannedAt.IsZero() {
		return false
	}
	return now.Sub(s.ScannedAt) <= ttl
}

// Summary resume el snapshot para el histórico de ciclos.
func (s *Snapshot) Summary() CycleSummary {
	c := CycleSummary{
		ID:        s.ID,
		ScannedAt: s.ScannedAt,
		Duration:  s.Duration,
		Events:    s.Stats.Events,
		Groups:    len(s.Groups),
		Values:    len(s.Values),
		Surebets:  len(s.Surebets),
		Middles:   len(s.Middles),
	}
	if len(s.Values) > 0 {
		c.BestEdge = s.Values[0].Edge
	}
	if len(s.Surebets) > 0 {
		c.BestMargin = s.Surebets[0].Margin
	}
	return c
}

// CycleSummary es la fila ligera que se guarda por cada ciclo de scan.
type CycleSummary struct {
	ID         string        `json:"id"`
	ScannedAt  time.Time     `json:"scanned_at"`
	Duration   time.Duration `json:"duration"`
	Events     int           `json:"events"`
	Groups     int           `json:"groups"`
	Values     int           `json:"values"`
	Surebets   int           `json:"surebets"`
	Middles    int           `json:"middles"`
	BestEdge   float64       `json:"best_edge"`
	BestMargin float64       `json:"best_margin"`
}

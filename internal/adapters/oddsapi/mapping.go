package oddsapi

import (
	"log/slog"
	"time"

	"github.com/betbot199/BetBot/internal/domain"
)

// mapSports convierte los DTOs de /sports a domain.Sport.
func mapSports(raw []sportDTO) []domain.Sport {
	sports := make([]domain.Sport, 0, len(raw))
	for _, r := range raw {
		sports = append(sports, domain.Sport{
			Key:          r.Key,
			Group:        r.Group,
			Title:        r.Title,
			Active:       r.Active,
			HasOutrights: r.HasOutrights,
		})
	}
	return sports
}

// mapEvents convierte los DTOs de /odds. Eventos con commence_time ilegible se
// descartan; outcomes sin precio llegan con Price 0 y los filtra el grouper.
func mapEvents(raw []eventDTO) []domain.Event {
	events := make([]domain.Event, 0, len(raw))
	for _, r := range raw {
		start, err := parseCommenceTime(r.CommenceTime)
		if err != nil {
			slog.Debug("event skipped: bad commence_time",
				"event_id", r.ID,
				"commence_time", r.CommenceTime,
				"err", err,
			)
			continue
		}
		events = append(events, mapEvent(r, start))
	}
	return events
}

func mapEvent(r eventDTO, start time.Time) domain.Event {
	ev := domain.Event{
		ID:           r.ID,
		SportKey:     r.SportKey,
		SportTitle:   r.SportTitle,
		HomeTeam:     r.HomeTeam,
		AwayTeam:     r.AwayTeam,
		CommenceTime: start,
		Bookmakers:   make([]domain.BookmakerOdds, 0, len(r.Bookmakers)),
	}
	for _, b := range r.Bookmakers {
		bm := domain.BookmakerOdds{
			Key:     b.Key,
			Title:   b.Title,
			Markets: make([]domain.MarketOdds, 0, len(b.Markets)),
		}
		for _, m := range b.Markets {
			mk := domain.MarketOdds{Key: m.Key, Outcomes: make([]domain.OutcomeOdds, 0, len(m.Outcomes))}
			for _, o := range m.Outcomes {
				oc := domain.OutcomeOdds{Name: o.Name, Point: o.Point}
				if o.Price != nil {
					oc.Price = *o.Price
				}
				mk.Outcomes = append(mk.Outcomes, oc)
			}
			bm.Markets = append(bm.Markets, mk)
		}
		ev.Bookmakers = append(ev.Bookmakers, bm)
	}
	return ev
}

// parseCommenceTime acepta ISO-8601 con sufijo 'Z' o con offset.
func parseCommenceTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

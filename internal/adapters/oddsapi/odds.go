package oddsapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/betbot199/BetBot/internal/domain"
)

const sportsPath = "/sports"

// featuredMarkets son los únicos mercados que sirve /sports/{sport}/odds.
// El resto (btts, draw_no_bet, alternate_*) solo se obtiene por evento en
// /events/{id}/odds; pedirlos en /odds hace fallar la request entera con 422.
var featuredMarkets = map[string]bool{
	"h2h":     true,
	"spreads": true,
	"totals":  true,
}

// FetchSports implementa ports.SportsCatalog.
func (c *Client) FetchSports(ctx context.Context) ([]domain.Sport, error) {
	var raw []sportDTO
	if err := c.get(ctx, sportsPath+"/", nil, &raw); err != nil {
		return nil, fmt.Errorf("oddsapi.FetchSports: %w", err)
	}
	return mapSports(raw), nil
}

// FetchOdds implementa ports.OddsProvider. Siempre pide cuotas decimales.
//
// Los mercados destacados van en una sola request a /odds; los adicionales se
// piden evento a evento y se fusionan por casa. Si un mercado adicional no
// existe para el deporte (4xx), se conservan los destacados y se deja de pedir
// adicionales para el resto de eventos del slice.
func (c *Client) FetchOdds(ctx context.Context, sportKey, region string, markets []string) ([]domain.Event, error) {
	featured, extra := splitMarkets(markets)

	var raw []eventDTO
	if len(featured) > 0 {
		params := oddsParams(region, featured)
		path := fmt.Sprintf("%s/%s/odds/", sportsPath, url.PathEscape(sportKey))
		if err := c.get(ctx, path, params, &raw); err != nil {
			return nil, fmt.Errorf("oddsapi.FetchOdds %s/%s: %w", sportKey, region, err)
		}
	} else {
		params := url.Values{}
		params.Set("dateFormat", "iso")
		path := fmt.Sprintf("%s/%s/events/", sportsPath, url.PathEscape(sportKey))
		if err := c.get(ctx, path, params, &raw); err != nil {
			return nil, fmt.Errorf("oddsapi.FetchOdds %s/%s: list events: %w", sportKey, region, err)
		}
	}

	if len(extra) > 0 {
		c.attachEventMarkets(ctx, sportKey, region, extra, raw)
	}
	return mapEvents(raw), nil
}

// attachEventMarkets completa raw con los mercados adicionales de cada evento.
func (c *Client) attachEventMarkets(ctx context.Context, sportKey, region string, extra []string, raw []eventDTO) {
	params := oddsParams(region, extra)
	for i := range raw {
		if ctx.Err() != nil {
			return
		}
		path := fmt.Sprintf("%s/%s/events/%s/odds/",
			sportsPath, url.PathEscape(sportKey), url.PathEscape(raw[i].ID))

		var ev eventDTO
		if err := c.get(ctx, path, params, &ev); err != nil {
			var se *StatusError
			if errors.As(err, &se) {
				slog.Warn("extra markets unavailable for sport, skipping",
					"sport", sportKey,
					"markets", strings.Join(extra, ","),
					"status", se.Code,
				)
				return
			}
			slog.Warn("event markets fetch failed",
				"sport", sportKey,
				"event_id", raw[i].ID,
				"err", err,
			)
			continue
		}
		mergeBookmakers(&raw[i], ev.Bookmakers)
	}
}

// mergeBookmakers añade los mercados de extra a las casas ya presentes en ev,
// o la casa entera si no estaba.
func mergeBookmakers(ev *eventDTO, extra []bookmakerDTO) {
	idx := make(map[string]int, len(ev.Bookmakers))
	for i, b := range ev.Bookmakers {
		idx[b.Key] = i
	}
	for _, b := range extra {
		if i, ok := idx[b.Key]; ok {
			ev.Bookmakers[i].Markets = append(ev.Bookmakers[i].Markets, b.Markets...)
			continue
		}
		idx[b.Key] = len(ev.Bookmakers)
		ev.Bookmakers = append(ev.Bookmakers, b)
	}
}

func splitMarkets(markets []string) (featured, extra []string) {
	for _, m := range markets {
		if featuredMarkets[m] {
			featured = append(featured, m)
		} else {
			extra = append(extra, m)
		}
	}
	return featured, extra
}

func oddsParams(region string, markets []string) url.Values {
	params := url.Values{}
	params.Set("regions", region)
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", "decimal")
	params.Set("dateFormat", "iso")
	return params
}

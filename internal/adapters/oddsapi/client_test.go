package oddsapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/betbot199/BetBot/internal/adapters/oddsapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *oddsapi.Client {
	return oddsapi.NewClient(oddsapi.Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		RatePerSec: 1000,
	})
}

func serveFixture(t *testing.T, path string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("x-requests-remaining", "480")
		w.Write(data)
	}))
}

func TestFetchSports_Success(t *testing.T) {
	srv := serveFixture(t, "../../../testdata/fixtures/oddsapi_sports.json", func(r *http.Request) {
		assert.Equal(t, "/sports/", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
	})
	defer srv.Close()

	sports, err := newTestClient(srv).FetchSports(context.Background())
	require.NoError(t, err)
	require.Len(t, sports, 4)

	assert.Equal(t, "soccer_spain_la_liga", sports[0].Key)
	assert.Equal(t, "La Liga - Spain", sports[0].Title)
	assert.True(t, sports[0].Active)
	assert.True(t, sports[2].HasOutrights)
	assert.False(t, sports[3].Active)
}

func TestFetchOdds_Success(t *testing.T) {
	srv := serveFixture(t, "../../../testdata/fixtures/oddsapi_odds_la_liga.json", func(r *http.Request) {
		assert.Equal(t, "/sports/soccer_spain_la_liga/odds/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "eu", q.Get("regions"))
		assert.Equal(t, "h2h,totals", q.Get("markets"))
		assert.Equal(t, "decimal", q.Get("oddsFormat"))
	})
	defer srv.Close()

	events, err := newTestClient(srv).FetchOdds(context.Background(), "soccer_spain_la_liga", "eu", []string{"h2h", "totals"})
	require.NoError(t, err)

	// El evento con commence_time inválido se descarta
	require.Len(t, events, 2)

	ev := events[0]
	assert.Equal(t, "e912304de2b2ce35b473ce2ecd3d1502", ev.ID)
	assert.Equal(t, "Real Madrid", ev.HomeTeam)
	assert.Equal(t, "Barcelona", ev.AwayTeam)
	assert.Equal(t, time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC), ev.CommenceTime)
	require.Len(t, ev.Bookmakers, 3)
	assert.Equal(t, "Pinnacle", ev.Bookmakers[0].Title)
	require.Len(t, ev.Bookmakers[0].Markets, 2)

	totals := ev.Bookmakers[0].Markets[1]
	assert.Equal(t, "totals", totals.Key)
	require.NotNil(t, totals.Outcomes[0].Point)
	assert.InDelta(t, 2.5, *totals.Outcomes[0].Point, 1e-9)

	// Offset convertido a UTC
	assert.Equal(t, time.Date(2026, 3, 3, 18, 30, 0, 0, time.UTC), events[1].CommenceTime)

	// Outcome sin precio llega con Price 0
	btts := events[1].Bookmakers[0].Markets[0]
	assert.Equal(t, 0.0, btts.Outcomes[1].Price)
}

func TestFetchOdds_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"API key is not valid"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchOdds(context.Background(), "basketball_nba", "us", []string{"h2h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchSports_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"key":"basketball_nba","title":"NBA","active":true}]`))
	}))
	defer srv.Close()

	sports, err := newTestClient(srv).FetchSports(context.Background())
	require.NoError(t, err)
	require.Len(t, sports, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchOdds_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"unexpected object"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchOdds(context.Background(), "basketball_nba", "us", []string{"h2h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestFetchOdds_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv).FetchOdds(ctx, "basketball_nba", "us", []string{"h2h"})
	require.Error(t, err)
}

func TestFetchOdds_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := oddsapi.NewClient(oddsapi.Config{
		BaseURL:        srv.URL,
		APIKey:         "SUPER-SECRET-KEY",
		RatePerSec:     1000,
		RequestTimeout: 20 * time.Millisecond,
	})

	_, err := client.FetchOdds(context.Background(), "soccer_epl", "eu", []string{"h2h"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SUPER-SECRET-KEY")
	assert.NotContains(t, err.Error(), "apiKey")
	assert.Contains(t, err.Error(), "/sports/soccer_epl/odds/")
}

// extraMarketsServer rechaza con 422 cualquier mercado no destacado en /odds,
// como hace la API real, y sirve btts por evento salvo para los ids de reject.
func extraMarketsServer(t *testing.T, reject map[string]bool, eventCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		markets := r.URL.Query().Get("markets")
		switch {
		case r.URL.Path == "/sports/soccer_epl/odds/":
			for _, m := range strings.Split(markets, ",") {
				if m != "h2h" && m != "spreads" && m != "totals" {
					w.WriteHeader(http.StatusUnprocessableEntity)
					w.Write([]byte(`{"message":"Invalid markets","error_code":"INVALID_MARKET"}`))
					return
				}
			}
			w.Write([]byte(`[
			  {"id":"ev1","sport_key":"soccer_epl","commence_time":"2026-03-02T20:00:00Z","home_team":"Arsenal","away_team":"Chelsea",
			   "bookmakers":[{"key":"pinnacle","title":"Pinnacle","markets":[{"key":"h2h","outcomes":[
			     {"name":"Arsenal","price":2.1},{"name":"Chelsea","price":3.5},{"name":"Draw","price":3.4}]}]}]},
			  {"id":"ev2","sport_key":"soccer_epl","commence_time":"2026-03-03T20:00:00Z","home_team":"Leeds","away_team":"Everton",
			   "bookmakers":[{"key":"pinnacle","title":"Pinnacle","markets":[{"key":"h2h","outcomes":[
			     {"name":"Leeds","price":2.5},{"name":"Everton","price":2.9},{"name":"Draw","price":3.2}]}]}]},
			  {"id":"ev3","sport_key":"soccer_epl","commence_time":"2026-03-04T20:00:00Z","home_team":"Fulham","away_team":"Wolves",
			   "bookmakers":[]}
			]`))
		case r.URL.Path == "/sports/soccer_epl/events/":
			w.Write([]byte(`[{"id":"ev1","sport_key":"soccer_epl","commence_time":"2026-03-02T20:00:00Z","home_team":"Arsenal","away_team":"Chelsea"}]`))
		case strings.HasPrefix(r.URL.Path, "/sports/soccer_epl/events/"):
			eventCalls.Add(1)
			id := strings.Split(strings.TrimPrefix(r.URL.Path, "/sports/soccer_epl/events/"), "/")[0]
			assert.Equal(t, "btts", markets)
			if reject[id] {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"message":"Invalid markets","error_code":"INVALID_MARKET"}`))
				return
			}
			w.Write([]byte(`{"id":"` + id + `","bookmakers":[
			  {"key":"pinnacle","title":"Pinnacle","markets":[{"key":"btts","outcomes":[{"name":"Yes","price":1.8},{"name":"No","price":2.0}]}]},
			  {"key":"bet365","title":"Bet365","markets":[{"key":"btts","outcomes":[{"name":"Yes","price":1.85},{"name":"No","price":1.95}]}]}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestFetchOdds_ExtraMarketsFetchedPerEvent(t *testing.T) {
	var eventCalls atomic.Int32
	srv := extraMarketsServer(t, nil, &eventCalls)
	defer srv.Close()

	events, err := newTestClient(srv).FetchOdds(context.Background(), "soccer_epl", "eu", []string{"h2h", "btts"})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int32(3), eventCalls.Load())

	ev := events[0]
	require.Len(t, ev.Bookmakers, 2)
	assert.Equal(t, "pinnacle", ev.Bookmakers[0].Key)
	require.Len(t, ev.Bookmakers[0].Markets, 2)
	assert.Equal(t, "h2h", ev.Bookmakers[0].Markets[0].Key)
	assert.Equal(t, "btts", ev.Bookmakers[0].Markets[1].Key)
	assert.Equal(t, "bet365", ev.Bookmakers[1].Key)
}

func TestFetchOdds_UnsupportedExtraMarketKeepsFeatured(t *testing.T) {
	var eventCalls atomic.Int32
	srv := extraMarketsServer(t, map[string]bool{"ev2": true}, &eventCalls)
	defer srv.Close()

	events, err := newTestClient(srv).FetchOdds(context.Background(), "soccer_epl", "eu", []string{"h2h", "btts"})
	require.NoError(t, err)
	require.Len(t, events, 3)

	// ev1 completo; ev2 solo h2h; ev3 ya no se pide tras el 422
	assert.Len(t, events[0].Bookmakers, 2)
	require.Len(t, events[1].Bookmakers, 1)
	require.Len(t, events[1].Bookmakers[0].Markets, 1)
	assert.Equal(t, "h2h", events[1].Bookmakers[0].Markets[0].Key)
	assert.Empty(t, events[2].Bookmakers)
	assert.Equal(t, int32(2), eventCalls.Load())
}

func TestFetchOdds_OnlyExtraMarketsListsEvents(t *testing.T) {
	var eventCalls atomic.Int32
	srv := extraMarketsServer(t, nil, &eventCalls)
	defer srv.Close()

	events, err := newTestClient(srv).FetchOdds(context.Background(), "soccer_epl", "eu", []string{"btts"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Arsenal", events[0].HomeTeam)
	require.Len(t, events[0].Bookmakers, 2)
	assert.Equal(t, "btts", events[0].Bookmakers[0].Markets[0].Key)
	assert.Equal(t, int32(1), eventCalls.Load())
}

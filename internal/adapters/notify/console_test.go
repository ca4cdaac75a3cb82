package notify_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/betbot199/BetBot/internal/adapters/notify"
	"github.com/betbot199/BetBot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeValue(event, outcome string, price, fair, edge float64) domain.ValueCandidate {
	return domain.ValueCandidate{
		Meta: domain.EventMeta{
			Sport:     "La Liga - Spain",
			SportKey:  "soccer_spain_la_liga",
			EventName: event,
			EventID:   event,
			MarketKey: "h2h",
		},
		Outcome:         outcome,
		BestPrice:       price,
		BestBookmaker:   "Pinnacle",
		FairProbability: fair,
		Edge:            edge,
	}
}

func makeSnapshot() *domain.Snapshot {
	line := 2.5
	return &domain.Snapshot{
		ID:        "0f8c2b7e-1111-2222-3333-444455556666",
		ScannedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  1200 * time.Millisecond,
		Stats:     domain.ScanStats{Events: 12, Requests: 3, FailedRequests: 1},
		Values: []domain.ValueCandidate{
			makeValue("Real Madrid vs Barcelona", "Real Madrid", 2.30, 0.48, 0.104),
		},
		Surebets: []domain.SurebetCandidate{{
			Meta: domain.EventMeta{EventName: "Lakers vs Celtics", MarketKey: "totals", Line: &line},
			Legs: []domain.Leg{
				{Outcome: "Over", Price: 2.10, Bookmaker: "Betfair"},
				{Outcome: "Under", Price: 2.10, Bookmaker: "Pinnacle"},
			},
			Margin: 1 - 2/2.10,
		}},
	}
}

func TestConsole_NotifyScan_Summary(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, n.NotifyScan(context.Background(), makeSnapshot()))

	out := buf.String()
	assert.Contains(t, out, "scan 0f8c2b7e")
	assert.Contains(t, out, "12 events")
	assert.Contains(t, out, "values:1 surebets:1 middles:0")
	assert.Contains(t, out, "1/3 requests failed")
	assert.NotContains(t, out, "Real Madrid vs Barcelona", "sin tabla en modo compacto")
}

func TestConsole_NotifyScan_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	require.NoError(t, n.NotifyScan(context.Background(), makeSnapshot()))
	assert.Contains(t, buf.String(), "Real Madrid vs Barcelona")
	assert.Contains(t, buf.String(), "10.4%")
}

func TestConsole_NotifyScan_Nil(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, notify.NewConsoleWriter(&buf, true).NotifyScan(context.Background(), nil))
	assert.Empty(t, buf.String())
}

func TestConsole_PrintValues_WithStake(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	n.PrintValues([]domain.ValueCandidate{
		makeValue("Real Madrid vs Barcelona", "Real Madrid", 2.30, 0.48, 0.104),
	}, 1000, domain.DefaultStakeLimits())

	out := buf.String()
	assert.Contains(t, out, "Real Madrid vs Barcelona")
	assert.Contains(t, out, "2.30")
	assert.Contains(t, out, "Pinnacle")
	// Kelly 25% de 0.48·2.30 recortado al 2% de 1000
	assert.Contains(t, out, "20.00*")
	assert.Contains(t, out, "Bank: 1000.00")
}

func TestConsole_PrintValues_TruncatesAccentedNames(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	long := strings.Repeat("é", 40)
	n.PrintValues([]domain.ValueCandidate{
		makeValue(long, "Atlético Madrid", 2.30, 0.48, 0.104),
	}, 0, domain.DefaultStakeLimits())

	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("é", 31)+"...")
	assert.NotContains(t, out, long)
}

func TestConsole_PrintEmptyLists(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	n.PrintValues(nil, 1000, domain.DefaultStakeLimits())
	n.PrintSurebets(nil, 100)
	n.PrintMiddles(nil)
	n.PrintCycles(nil)

	out := buf.String()
	assert.Contains(t, out, "No value bets found")
	assert.Contains(t, out, "No surebets found")
	assert.Contains(t, out, "No middles found")
	assert.Contains(t, out, "No scan history")
}

func TestConsole_PrintSurebets_Split(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	n.PrintSurebets(makeSnapshot().Surebets, 100)

	out := buf.String()
	assert.Contains(t, out, "Lakers vs Celtics")
	assert.Contains(t, out, "totals +2.5")
	assert.Contains(t, out, "4.76%")
	assert.Contains(t, out, "50.00 @2.10")
}

func TestConsole_PrintMiddles(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	lo, hi := 2.5, 3.5
	n.PrintMiddles([]domain.MiddleCandidate{{
		Meta:   domain.EventMeta{EventName: "Lakers vs Celtics", MarketKey: "totals"},
		Low:    domain.Leg{Outcome: "Over", Price: 2.05, Bookmaker: "Betfair", Line: &lo},
		High:   domain.Leg{Outcome: "Under", Price: 2.00, Bookmaker: "Pinnacle", Line: &hi},
		Window: 1,
		Cost:   0.0122,
	}})

	out := buf.String()
	assert.Contains(t, out, "Over +2.5 @2.05 (Betfair)")
	assert.Contains(t, out, "Under +3.5 @2.00 (Pinnacle)")
	assert.Contains(t, out, "1.22%")
}

func TestConsole_PrintBankroll(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	n.PrintBankroll(0, false)
	n.PrintBankroll(1250.5, true)

	assert.Contains(t, buf.String(), "not set")
	assert.Contains(t, buf.String(), "Bank: 1250.50")
}

func TestConsole_PrintCycles(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	n.PrintCycles([]domain.CycleSummary{makeSnapshot().Summary()})
	assert.Contains(t, buf.String(), "0f8c2b7e")
	assert.Contains(t, buf.String(), "4.76%")
}

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) NotifyScan(context.Context, *domain.Snapshot) error {
	f.calls++
	return f.err
}

func TestMulti_NotifiesAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &fakeNotifier{err: boom}
	b := &fakeNotifier{}

	err := notify.Multi{a, nil, b}.NotifyScan(context.Background(), makeSnapshot())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls, "un fallo no corta al resto")

	assert.NoError(t, notify.Multi{b}.NotifyScan(context.Background(), makeSnapshot()))
}

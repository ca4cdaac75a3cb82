package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/betbot199/BetBot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// topInSummary es cuántas value bets se muestran tras cada scan en modo tabla.
const topInSummary = 10

// Console implementa ports.Notifier y sirve de salida para los comandos del CLI.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyScan imprime una línea de resumen por scan y, en modo tabla, el top de value bets.
func (c *Console) NotifyScan(_ context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return nil
	}
	fmt.Fprintf(c.out, "[%s] scan %s: %d events, %d groups → values:%d surebets:%d middles:%d (%s)\n",
		snap.ScannedAt.Local().Format("15:04:05"), shortID(snap.ID),
		snap.Stats.Events, len(snap.Groups),
		len(snap.Values), len(snap.Surebets), len(snap.Middles),
		snap.Duration.Round(1e6))

	if snap.Stats.FailedRequests > 0 {
		fmt.Fprintf(c.out, "  ⚠ %d/%d requests failed\n", snap.Stats.FailedRequests, snap.Stats.Requests)
	}
	if c.table && len(snap.Values) > 0 {
		top := snap.Values
		if len(top) > topInSummary {
			top = top[:topInSummary]
		}
		c.printValueTable(top, nil)
	}
	return nil
}

// PrintValues imprime las value bets con el stake recomendado para el bank dado.
// bankroll <= 0 omite la columna de stake.
func (c *Console) PrintValues(values []domain.ValueCandidate, bankroll float64, lim domain.StakeLimits) {
	if len(values) == 0 {
		fmt.Fprintln(c.out, "No value bets found")
		return
	}
	var advice []domain.StakeAdvice
	if bankroll > 0 {
		advice = make([]domain.StakeAdvice, len(values))
		for i, v := range values {
			advice[i] = domain.RecommendStake(bankroll, v, lim)
		}
	}
	c.printValueTable(values, advice)
	if bankroll > 0 {
		fmt.Fprintf(c.out, "  Bank: %.2f | Kelly cap %.0f%% | stake %.1f%%–%.1f%% del bank\n",
			bankroll, lim.KellyCap*100, lim.MinStakeFraction*100, lim.MaxStakeFraction*100)
	}
}

func (c *Console) printValueTable(values []domain.ValueCandidate, advice []domain.StakeAdvice) {
	table := tablewriter.NewWriter(c.out)
	if advice != nil {
		table.Header("#", "Sport", "Event", "Market", "Pick", "Odds", "Book", "Fair p", "Edge", "Kelly", "Stake")
	} else {
		table.Header("#", "Sport", "Event", "Market", "Pick", "Odds", "Book", "Fair p", "Edge")
	}

	for i, v := range values {
		row := []any{
			fmt.Sprintf("%d", i+1),
			truncate(v.Meta.Sport, 18),
			truncate(v.Meta.EventName, 34),
			marketLabel(v.Meta),
			v.Outcome,
			fmt.Sprintf("%.2f", v.BestPrice),
			v.BestBookmaker,
			fmt.Sprintf("%.1f%%", v.FairProbability*100),
			fmt.Sprintf("%.1f%%", v.Edge*100),
		}
		if advice != nil {
			a := advice[i]
			stake := fmt.Sprintf("%.2f", a.Stake)
			if a.Clamped {
				stake += "*"
			}
			row = append(row, fmt.Sprintf("%.1f%%", a.KellyFraction*100), stake)
		}
		table.Append(row...)
	}
	table.Render()
}

// PrintSurebets imprime los surebets y, si total > 0, el reparto del stake entre patas.
func (c *Console) PrintSurebets(surebets []domain.SurebetCandidate, total float64) {
	if len(surebets) == 0 {
		fmt.Fprintln(c.out, "No surebets found")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Sport", "Event", "Market", "Legs", "Margin")
	for i, s := range surebets {
		legs := make([]string, len(s.Legs))
		for j, l := range s.Legs {
			legs[j] = fmt.Sprintf("%s @%.2f (%s)", l.Outcome, l.Price, l.Bookmaker)
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(s.Meta.Sport, 18),
			truncate(s.Meta.EventName, 34),
			marketLabel(s.Meta),
			strings.Join(legs, " | "),
			fmt.Sprintf("%.2f%%", s.Margin*100),
		)
	}
	table.Render()

	if total <= 0 {
		return
	}
	for i, s := range surebets {
		fmt.Fprintf(c.out, "  #%d %s: stake total %.2f\n", i+1, s.Meta.EventName, total)
		for _, ls := range s.StakeSplit(total) {
			fmt.Fprintf(c.out, "     %-20s %8.2f @%.2f → %.2f\n", ls.Leg.Outcome, ls.Stake, ls.Leg.Price, ls.Payout)
		}
	}
}

// PrintMiddles imprime los middles encontrados.
func (c *Console) PrintMiddles(middles []domain.MiddleCandidate) {
	if len(middles) == 0 {
		fmt.Fprintln(c.out, "No middles found")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Sport", "Event", "Market", "Low leg", "High leg", "Window", "Cost")
	for i, m := range middles {
		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(m.Meta.Sport, 18),
			truncate(m.Meta.EventName, 34),
			m.Meta.MarketKey,
			legLabel(m.Low),
			legLabel(m.High),
			fmt.Sprintf("%g", m.Window),
			fmt.Sprintf("%.2f%%", m.Cost*100),
		)
	}
	table.Render()
}

// PrintBankroll imprime el bank guardado.
func (c *Console) PrintBankroll(amount float64, ok bool) {
	if !ok {
		fmt.Fprintln(c.out, "Bank: not set (use -bank <amount>)")
		return
	}
	fmt.Fprintf(c.out, "Bank: %.2f\n", amount)
}

// PrintCycles imprime el histórico de ciclos, el más reciente primero.
func (c *Console) PrintCycles(cycles []domain.CycleSummary) {
	if len(cycles) == 0 {
		fmt.Fprintln(c.out, "No scan history")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("Scanned", "ID", "Took", "Events", "Groups", "Values", "Surebets", "Middles", "Best edge", "Best margin")
	for _, cy := range cycles {
		table.Append(
			cy.ScannedAt.Local().Format("2006-01-02 15:04"),
			shortID(cy.ID),
			cy.Duration.Round(1e6).String(),
			fmt.Sprintf("%d", cy.Events),
			fmt.Sprintf("%d", cy.Groups),
			fmt.Sprintf("%d", cy.Values),
			fmt.Sprintf("%d", cy.Surebets),
			fmt.Sprintf("%d", cy.Middles),
			fmt.Sprintf("%.1f%%", cy.BestEdge*100),
			fmt.Sprintf("%.2f%%", cy.BestMargin*100),
		)
	}
	table.Render()
}

// --- helpers ---

func marketLabel(m domain.EventMeta) string {
	if l := m.LineLabel(); l != "" {
		return m.MarketKey + " " + l
	}
	return m.MarketKey
}

func legLabel(l domain.Leg) string {
	line := ""
	if l.Line != nil {
		line = fmt.Sprintf(" %+g", *l.Line)
	}
	return fmt.Sprintf("%s%s @%.2f (%s)", l.Outcome, line, l.Price, l.Bookmaker)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate corta por runas para no partir nombres con acentos.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

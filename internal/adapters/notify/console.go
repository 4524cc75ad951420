package notify

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/btcbot/internal/domain"
	"github.com/alejandrodnm/btcbot/internal/monitor"
	"github.com/alejandrodnm/btcbot/internal/paper"
	"github.com/olekukonko/tablewriter"
)

// verdictSample es el mínimo de trades resueltos para emitir veredicto.
const verdictSample = 10

const rule = "──────────────────────────────────────────"

// Console imprime los resultados de monitor y tracker en texto plano.
type Console struct {
	out io.Writer
	now func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout, now: time.Now}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, now: time.Now}
}

// PrintOutcome imprime el resumen de un ciclo de monitorización.
func (c *Console) PrintOutcome(out monitor.Outcome) {
	fmt.Fprintf(c.out, "\n%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(c.out, "BTC Monitor - %s\n", c.now().Format("2006-01-02 15:04:05 MST"))
	if out.DryRun {
		fmt.Fprintln(c.out, "  *** DRY RUN MODE — no real orders will be placed ***")
	}
	fmt.Fprintln(c.out, strings.Repeat("=", 50))

	fmt.Fprintf(c.out, "\nBalance: %s\n", domain.FormatUSD(domain.CentsToUSD(int(out.BalanceCents)), 2))

	if s := out.Snapshot; s != nil {
		fmt.Fprintf(c.out, "BTC:  %s  |  1h: %+.2f%%  |  24h: %+.2f%%\n", domain.FormatUSD(s.Price, 2), s.Change1h, s.Change24h)
		fmt.Fprintf(c.out, "      Range: %s – %s  |  Vol: $%.1fB\n", domain.FormatUSD(s.Low24h, 0), domain.FormatUSD(s.High24h, 0), s.Volume24h/1e9)
		if s.FromCache {
			fmt.Fprintf(c.out, "      Data quality: cached (%s old)\n", s.CacheAge.Round(time.Second))
		}
	}

	if len(out.Score.Signals) > 0 {
		bias := "BEARISH"
		if out.Bullish {
			bias = "BULLISH"
		}
		fmt.Fprintf(c.out, "\nSignal Score: %s — %s bias\n", out.Score, bias)
		c.printSignals(out.Score)
	}

	if rec := out.Recommendation; rec != nil {
		fmt.Fprintf(c.out, "\nBest opportunity (%d markets scanned):\n", out.MarketsSeen)
		c.printRecommendation(*rec)
	}

	switch out.Decision {
	case monitor.DecisionPaper:
		id := ""
		if out.Trade != nil {
			id = out.Trade.ID
		}
		fmt.Fprintf(c.out, "\n[DRY RUN] Paper trade logged — ID: %s\n", id)
		if rec := out.Recommendation; rec != nil {
			fmt.Fprintf(c.out, "   Would place: %dx %s %s @ %d¢ ($%.2f)\n",
				out.Contracts, strings.ToUpper(string(rec.Side())), rec.Ticker, rec.CostCents, out.TotalCostUSD)
		}
	case monitor.DecisionExecuted:
		fmt.Fprintf(c.out, "\nOrder placed: %d contracts @ %d¢\n", out.Contracts, out.Recommendation.CostCents)
		if out.Order != nil {
			fmt.Fprintf(c.out, "   Order ID: %s (%s)\n", out.Order.OrderID, out.Order.Status)
		}
	case monitor.DecisionFailed:
		fmt.Fprintf(c.out, "\nTrade execution failed: %s\n", out.Reason)
	case monitor.DecisionSkipped:
		fmt.Fprintf(c.out, "\nAlready have exposure on %s — skipping\n", out.Recommendation.Ticker)
	default:
		fmt.Fprintf(c.out, "\nNo trade: %s\n", out.Reason)
	}
}

func (c *Console) printSignals(score domain.SignalScore) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Signal", "Detail")
	for _, s := range score.Signals {
		table.Append(signalLabel(s.Name), s.Detail)
	}
	table.Render()
}

func (c *Console) printRecommendation(rec domain.Recommendation) {
	settlement := "unknown"
	if rec.SettlementTime != nil {
		settlement = rec.SettlementTime.UTC().Format("2006-01-02 15:04 MST")
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Field", "Value")
	table.Append("action", string(rec.Action))
	table.Append("ticker", rec.Ticker)
	table.Append("strike", domain.FormatUSD(rec.Strike, 2))
	table.Append("current_price", domain.FormatUSD(rec.CurrentPrice, 2))
	table.Append("distance", fmt.Sprintf("%.2f%%", rec.DistancePct))
	table.Append("cost", fmt.Sprintf("%d¢", rec.CostCents))
	table.Append("potential_profit", fmt.Sprintf("%d¢", rec.PotentialProfitCents))
	table.Append("settlement", settlement)
	table.Render()

	if rec.Thesis != "" {
		fmt.Fprintf(c.out, "   %s\n", rec.Thesis)
	}
}

// PrintResolutions imprime una línea por trade resuelto en el barrido.
func (c *Console) PrintResolutions(resolutions []paper.Resolution) {
	for _, r := range resolutions {
		t := r.Trade
		outcome := fmt.Sprintf("WIN  +$%.2f", t.PnL())
		mark := "✅"
		if t.Status == domain.TradeLoss {
			outcome = fmt.Sprintf("LOSS -$%.2f", -t.PnL())
			mark = "❌"
		}
		fmt.Fprintf(c.out, "  %s [%s] %s → %s\n", mark, t.ID, t.Ticker, outcome)
	}
}

// PrintStats imprime las stats acumuladas del paper trading.
func (c *Console) PrintStats(stats domain.StatsSnapshot) {
	if stats.TotalResolved == 0 {
		fmt.Fprintln(c.out, "No resolved paper trades yet.")
		return
	}

	fmt.Fprintf(c.out, "\n%s\n", rule)
	fmt.Fprintf(c.out, "Paper Trading  (%d resolved, %d open)\n", stats.TotalResolved, stats.OpenTrades)
	fmt.Fprintln(c.out, rule)

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("Win Rate", fmt.Sprintf("%.0f%%  (%dW / %dL)", stats.WinRate*100, stats.Wins, stats.Losses))
	table.Append("Total P&L", signedUSD(stats.TotalPnL))
	table.Append("Avg Win", fmt.Sprintf("+$%.2f", stats.AvgWin))
	table.Append("Avg Loss", fmt.Sprintf("-$%.2f", stats.AvgLoss))
	table.Append("Expectancy", signedUSD(stats.Expectancy)+" / trade")
	table.Append("Max Drawdown", fmt.Sprintf("$%.2f", stats.MaxDrawdown))
	table.Append("7-day P&L", signedUSD(stats.Last7dPnL))
	table.Append("30-day P&L", signedUSD(stats.Last30dPnL))
	table.Render()

	switch stats.Verdict(verdictSample) {
	case domain.VerdictPositive:
		fmt.Fprintln(c.out, "  → ✅ Positive expectancy — monitor for go-live")
	case domain.VerdictNegative:
		fmt.Fprintln(c.out, "  → ❌ Negative expectancy — needs tuning")
	case domain.VerdictMarginal:
		fmt.Fprintln(c.out, "  → ⏳ Marginal — collect more data")
	}
	fmt.Fprintln(c.out, rule)
}

// PrintMilestone imprime el aviso de milestone. El cron reenvía stdout tal cual.
func (c *Console) PrintMilestone(stats domain.StatsSnapshot) {
	fmt.Fprintf(c.out, "\n%s\n", MilestoneMessage(stats))
}

// MilestoneMessage devuelve el resumen a enviar al cruzar el milestone.
func MilestoneMessage(stats domain.StatsSnapshot) string {
	lines := []string{
		fmt.Sprintf("🎯 **Kalshi Paper Trading — %d-Trade Milestone**", stats.TotalResolved),
		"",
		fmt.Sprintf("Win Rate:    %.0f%%  (%dW / %dL)", stats.WinRate*100, stats.Wins, stats.Losses),
		fmt.Sprintf("Total P&L:   %s", signedUSD(stats.TotalPnL)),
		fmt.Sprintf("Expectancy:  %s / trade", signedUSD(stats.Expectancy)),
		fmt.Sprintf("Max Drawdown: $%.2f", stats.MaxDrawdown),
		fmt.Sprintf("7-day P&L:   %s", signedUSD(stats.Last7dPnL)),
		"",
	}
	switch stats.Verdict(0) {
	case domain.VerdictPositive:
		lines = append(lines, "✅ Positive expectancy — ready for go-live review")
	case domain.VerdictNegative:
		lines = append(lines, "❌ Negative expectancy — tune strategy before going live")
	default:
		lines = append(lines, "⏳ Marginal results — collect more data")
	}
	return strings.Join(lines, "\n")
}

// signedUSD formatea con signo delante del dólar: +$7.00, -$3.00.
func signedUSD(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("+$%.2f", v)
}

// signalLabel convierte "3_range_position" en "range position".
func signalLabel(name string) string {
	if _, rest, ok := strings.Cut(name, "_"); ok {
		name = rest
	}
	return strings.ReplaceAll(name, "_", " ")
}

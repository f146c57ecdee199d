package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"ForexSignal/internal/model"
	"ForexSignal/internal/recorder"
	"ForexSignal/internal/strategy"
)

func signalIcon(s model.Signal) string {
	switch s {
	case model.SignalBuy:
		return "🟢"
	case model.SignalSell:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatSignal formats one pipeline result into a Telegram message.
func FormatSignal(res *model.Result) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n\n", signalIcon(res.Signal), html.EscapeString(res.Symbol),
		strings.ToUpper(string(res.Signal))))
	b.WriteString(fmt.Sprintf("Predicted: %.5f\n", res.PredictedPrice))
	margin := strategy.Margin(res.PredictedPrice, res.Threshold)
	if math.IsNaN(margin) {
		b.WriteString(fmt.Sprintf("Threshold: %.5f\n", res.Threshold))
	} else {
		b.WriteString(fmt.Sprintf("Threshold: %.5f (%+.2f%%)\n", res.Threshold, margin))
	}
	b.WriteString(fmt.Sprintf("Data as of: %s | %d rows, window %d\n",
		res.AsOf.Format(model.DateLayout), res.Rows, res.WindowSize))
	return b.String()
}

// FormatFailure formats a failed run.
func FormatFailure(symbol string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s</b> failed [%s]\n%s",
		html.EscapeString(symbol), model.KindOf(err), html.EscapeString(err.Error()))
}

// FormatHistory lists recorded signals, newest first.
func FormatHistory(records []recorder.SignalRecord) string {
	if len(records) == 0 {
		return "No signals recorded yet."
	}
	var b strings.Builder
	b.WriteString("📜 <b>Recent signals</b>\n\n")
	for _, r := range records {
		b.WriteString(fmt.Sprintf("%s %s %s %.5f vs %.5f (%s)\n",
			r.Timestamp.Format("01-02 15:04"), signalIcon(r.Signal), html.EscapeString(r.Symbol),
			r.PredictedPrice, r.Threshold, r.Source))
	}
	return b.String()
}

// FormatBacktest summarizes a backtest report.
func FormatBacktest(rep *model.BacktestReport) string {
	var buys, sells, holds int
	for _, p := range rep.Points {
		switch p.Signal {
		case model.SignalBuy:
			buys++
		case model.SignalSell:
			sells++
		default:
			holds++
		}
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧪 <b>%s backtest</b>\n\n", html.EscapeString(rep.Symbol)))
	b.WriteString(fmt.Sprintf("Windows: %d\n", len(rep.Points)))
	b.WriteString(fmt.Sprintf("Signals: %d buy / %d sell / %d hold\n", buys, sells, holds))
	b.WriteString(fmt.Sprintf("Directional hit rate: %.1f%%\n", rep.HitRate*100))
	return b.String()
}

package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"MarketScanner/internal/model"
)

// FormatAlert formats a fired trend. span is the time the window covers.
func FormatAlert(symbol string, r model.TrendResult, span time.Duration) string {
	mins := int(span.Round(time.Minute) / time.Minute)
	switch r.Kind {
	case model.TrendRising:
		return fmt.Sprintf("🚀 <b>%s</b> surged %.2f%% in %d mins!\nCurrent: $%.2f", symbol, r.Percent, mins, r.Last)
	case model.TrendFalling:
		return fmt.Sprintf("⚠️ <b>%s</b> dropped %.2f%% in %d mins!\nCurrent: $%.2f", symbol, r.Percent, mins, r.Last)
	}
	return ""
}

// FormatStatus formats the scanner state for the /status command.
func FormatStatus(last *model.CycleReport, tracked int, interval time.Duration) string {
	var b strings.Builder
	b.WriteString("📡 <b>Scanner status</b>\n\n")
	b.WriteString(fmt.Sprintf("Tracked symbols: %d\n", tracked))
	b.WriteString(fmt.Sprintf("Scan interval: %s\n", interval))
	if last == nil {
		b.WriteString("No cycle completed yet\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("\nLast cycle: %s (%s)\n", last.FinishedAt.Format("2006-01-02 15:04:05"), last.Duration().Round(time.Millisecond)))
	if last.FetchErr != nil {
		b.WriteString(fmt.Sprintf("  ❌ universe fetch failed: %s\n", html.EscapeString(last.FetchErr.Error())))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  Universe: %d | Quoted: %d | Gaps: %d\n", last.Universe, last.Quoted, last.DataGaps))
	b.WriteString(fmt.Sprintf("  Eligible: %d | Alerts: %d\n", last.Eligible, len(last.Alerts)))
	return b.String()
}

// FormatTracked lists every tracked window for the /tracked command.
func FormatTracked(windows []model.WindowSnapshot, size int) string {
	if len(windows) == 0 {
		return "👀 No symbols tracked"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👀 <b>Tracked symbols</b> (%d)\n\n", len(windows)))
	for _, w := range windows {
		b.WriteString(fmt.Sprintf("%s [%d/%d] $%.2f since %s\n", w.Symbol, w.Len(), size, w.Latest(), w.FirstSeen.Format("15:04")))
	}
	return b.String()
}

// FormatDailySummary formats the stats accumulated since s.Since.
func FormatDailySummary(s *model.DailyStats, tracked int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Daily summary</b> | since %s\n\n", s.Since.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Cycles: %d (failed %d)\n", s.Cycles, s.FailedCycles))
	b.WriteString(fmt.Sprintf("🚀 Surges: %d\n", s.Rising))
	b.WriteString(fmt.Sprintf("⚠️ Drops: %d\n", s.Falling))
	if s.FailedDelivery > 0 {
		b.WriteString(fmt.Sprintf("Undelivered alerts: %d\n", s.FailedDelivery))
	}
	if s.Pruned > 0 {
		b.WriteString(fmt.Sprintf("Stale windows pruned: %d\n", s.Pruned))
	}
	b.WriteString(fmt.Sprintf("Still tracking: %d\n", tracked))
	return b.String()
}

// FormatRecentAlerts lists recorded alerts for the /alerts command.
func FormatRecentAlerts(alerts []model.Alert) string {
	if len(alerts) == 0 {
		return "🔕 No alerts recorded"
	}
	var b strings.Builder
	b.WriteString("🔔 <b>Recent alerts</b>\n\n")
	for _, a := range alerts {
		icon := "🚀"
		if a.Trend.Kind == model.TrendFalling {
			icon = "⚠️"
		}
		b.WriteString(fmt.Sprintf("%s %s %s %.2f%% @ $%.2f", a.FiredAt.Format("01-02 15:04"), icon, a.Symbol, a.Trend.Percent, a.Trend.Last))
		if !a.Delivered() {
			b.WriteString(" (undelivered)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

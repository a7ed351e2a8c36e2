package telegram

import (
	"fmt"
	"strings"
	"time"
)

// FormatAnalysisMessage renders a watch-run analysis result for Telegram.
func FormatAnalysisMessage(now time.Time, symbol, timeframe, trend string, priceChangePct, rsi float64, insight string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("*%s* (%s) — %s\n", symbol, timeframe, now.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Change: %.2f%% | RSI: %.1f | Trend: %s\n\n", priceChangePct, rsi, trend))

	// Telegram messages cap at 4096 chars, leave room for the header.
	const maxInsight = 3500
	if len(insight) > maxInsight {
		insight = insight[:maxInsight] + "…"
	}
	b.WriteString(insight)
	return b.String()
}

// FormatErrorAlertMessage renders a failure alert for Telegram.
func FormatErrorAlertMessage(now time.Time, message string) string {
	return fmt.Sprintf("⚠️ *stockgpt error* — %s\n%s", now.Format("2006-01-02 15:04"), message)
}

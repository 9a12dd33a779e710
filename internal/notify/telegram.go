// Package notify delivers run summaries over the Telegram Bot API.
// The notifier is an edge collaborator: it only consumes the final
// result object and is skipped entirely when unconfigured.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/marketscan/internal/domain"
)

// Telegram caps messages at 4096 characters.
const maxMessageLen = 4096

// topCount is how many leaders and laggards the summary lists.
const topCount = 5

// Notifier posts messages to one Telegram chat.
type Notifier struct {
	apiBase string
	token   string
	chatID  string
	client  *http.Client
	log     zerolog.Logger
}

// New creates a notifier. An empty token or chat ID yields a disabled
// notifier; sends become no-ops instead of errors.
func New(token, chatID string, log zerolog.Logger) *Notifier {
	return &Notifier{
		apiBase: "https://api.telegram.org",
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("component", "notify").Logger(),
	}
}

// Enabled reports whether both secrets are present.
func (n *Notifier) Enabled() bool {
	return n.token != "" && n.chatID != ""
}

// SendSummary posts the run summary. Disabled notifiers return nil.
func (n *Notifier) SendSummary(ctx context.Context, result *domain.AnalysisResult) error {
	if !n.Enabled() {
		n.log.Debug().Msg("Notifier disabled, skipping summary")
		return nil
	}
	return n.send(ctx, Summary(result))
}

// SendError posts a failed-run alert. Disabled notifiers return nil.
func (n *Notifier) SendError(ctx context.Context, runErr error) error {
	if !n.Enabled() {
		return nil
	}
	msg := fmt.Sprintf("❌ Daily market analysis FAILED\n\n%v", runErr)
	return n.send(ctx, msg)
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen-1] + "…"
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	reqURL := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	n.log.Info().Int("chars", len(text)).Msg("Notification sent")
	return nil
}

// Summary renders the run into a plain-text digest: regime block,
// counts, composite leaders and laggards, and the busiest signal
// tickers.
func Summary(result *domain.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 Daily Market Analysis — %s\n\n", result.Metadata.AnalysisDate)

	r := result.MarketRegime
	fmt.Fprintf(&b, "Market: %s | Risk: %s\n", r.MarketCondition, r.RiskAppetite)
	fmt.Fprintf(&b, "VIX %.1f (%s), SPY %s\n\n", float64(r.VIXLevel), r.VIXRegime, r.SpyTrend)

	fmt.Fprintf(&b, "Instruments analyzed: %d", result.Metadata.InstrumentsAnalyzed)
	if n := len(result.FailedSymbols); n > 0 {
		fmt.Fprintf(&b, " (%d failed)", n)
	}
	b.WriteString("\n\n")

	ranked := result.Rankings.ByCompositeScore
	if len(ranked) > 0 {
		b.WriteString("🏆 Top composite:\n")
		for i, e := range ranked {
			if i >= topCount {
				break
			}
			fmt.Fprintf(&b, "  %d. %s  %.1f\n", i+1, e.Ticker, e.Composite)
		}

		b.WriteString("\n📉 Bottom composite:\n")
		lo := len(ranked) - topCount
		if lo < 0 {
			lo = 0
		}
		for i := len(ranked) - 1; i >= lo; i-- {
			fmt.Fprintf(&b, "  %d. %s  %.1f\n", len(ranked)-i, ranked[i].Ticker, ranked[i].Composite)
		}
	}

	busiest := busiestSignals(result)
	if len(busiest) > 0 {
		b.WriteString("\n🔔 Active signals:\n")
		for _, line := range busiest {
			b.WriteString("  " + line + "\n")
		}
	}

	return b.String()
}

// busiestSignals lists the tickers with the most signals, in ranking
// order, capped at topCount lines.
func busiestSignals(result *domain.AnalysisResult) []string {
	var out []string
	for _, e := range result.Rankings.ByCompositeScore {
		inst, ok := result.Instruments[e.Ticker]
		if !ok || len(inst.Signals) == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", e.Ticker, strings.Join(inst.Signals, "; ")))
		if len(out) >= topCount {
			break
		}
	}
	return out
}

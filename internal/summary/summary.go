// Package summary turns a rendered dashboard page into plain-text lines and
// an optional LLM-written market brief.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/web3-frozen/liquidity-dashboard/internal/dashboard"
)

const systemPrompt = "You are a markets analyst writing for a liquidity dashboard. " +
	"Given the latest macro and crypto liquidity readings, write at most four short sentences " +
	"on what changed and whether conditions are loosening or tightening. No advice, no hedging boilerplate."

// Completer produces a chat completion.
type Completer interface {
	Enabled() bool
	Summarize(ctx context.Context, system, user string) (string, error)
}

// Brief is the summary panel.
type Brief struct {
	Status      dashboard.Status `json:"status"`
	Warning     string           `json:"warning,omitempty"`
	Text        string           `json:"text"`
	Lines       []string         `json:"lines"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Summarizer writes briefs. A nil Completer or one without credentials
// yields an unavailable brief that still carries the plain-text lines.
type Summarizer struct {
	llm    Completer
	logger *slog.Logger
}

func New(llm Completer, logger *slog.Logger) *Summarizer {
	return &Summarizer{llm: llm, logger: logger}
}

// Brief summarizes page.
func (s *Summarizer) Brief(ctx context.Context, page *dashboard.Page) Brief {
	lines := Lines(page)
	b := Brief{Lines: lines, GeneratedAt: page.GeneratedAt}

	if s.llm == nil || !s.llm.Enabled() {
		b.Status = dashboard.StatusUnavailable
		b.Warning = "Market brief: no language model configured"
		return b
	}
	if len(lines) == 0 {
		b.Status = dashboard.StatusEmpty
		b.Warning = "Market brief: no data to summarize"
		return b
	}

	text, err := s.llm.Summarize(ctx, systemPrompt, strings.Join(lines, "\n"))
	if err != nil {
		s.logger.Warn("summary failed", "source", "openai", "error", err)
		b.Status = dashboard.StatusUnavailable
		b.Warning = "Market brief: language model unavailable"
		return b
	}
	b.Status = dashboard.StatusOK
	b.Text = text
	return b
}

// Lines renders one line per healthy panel. Degraded panels are omitted so
// the brief never speculates about missing data.
func Lines(page *dashboard.Page) []string {
	var out []string
	for _, p := range page.Series {
		if p.Status != dashboard.StatusOK || p.Latest == nil {
			continue
		}
		line := fmt.Sprintf("%s: %s", p.Label, formatLevel(p.Latest.Value, p.Unit))
		if len(p.Annotations) > 0 {
			changes := make([]string, len(p.Annotations))
			for i, a := range p.Annotations {
				changes[i] = a.Text()
			}
			line += " (" + strings.Join(changes, ", ") + ")"
		}
		out = append(out, line)
	}
	for _, p := range page.Snapshots {
		if p.Status != dashboard.StatusOK {
			continue
		}
		top := make([]string, 0, 3)
		for i, r := range p.Rows {
			if i == 3 {
				break
			}
			top = append(top, fmt.Sprintf("%s $%s", r.Name, formatNum(r.Value)))
		}
		out = append(out, fmt.Sprintf("%s: total $%s; top %s", p.Label, formatNum(p.Total), strings.Join(top, ", ")))
	}
	return out
}

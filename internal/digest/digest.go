// Package digest sends a scheduled Telegram briefing of the dashboard.
package digest

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/web3-frozen/liquidity-dashboard/internal/dashboard"
	"github.com/web3-frozen/liquidity-dashboard/internal/metrics"
	"github.com/web3-frozen/liquidity-dashboard/internal/series"
	"github.com/web3-frozen/liquidity-dashboard/internal/summary"
)

const runTimeout = 2 * time.Minute

// Renderer produces a dashboard page.
type Renderer interface {
	Render(ctx context.Context, window series.Bucket) *dashboard.Page
}

// Briefer writes the market brief for a page.
type Briefer interface {
	Brief(ctx context.Context, page *dashboard.Page) summary.Brief
}

// Sender delivers a message to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Scheduler runs the digest on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	render  Renderer
	brief   Briefer
	send    Sender
	chatID  int64
	window  series.Bucket
	logger  *slog.Logger
	baseCtx context.Context
}

// NewScheduler builds a scheduler. brief may be nil. Cron specs carry a
// leading seconds field.
func NewScheduler(ctx context.Context, render Renderer, brief Briefer, send Sender, chatID int64, window series.Bucket, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		render:  render,
		brief:   brief,
		send:    send,
		chatID:  chatID,
		window:  window,
		logger:  logger,
		baseCtx: ctx,
	}
}

// Register adds the digest job under spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.RunNow(s.baseCtx); err != nil {
			s.logger.Error("digest failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register digest %q: %w", spec, err)
	}
	s.logger.Info("digest scheduled", "cron", spec, "chat_id", s.chatID)
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNow renders, formats and sends one digest.
func (s *Scheduler) RunNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	page := s.render.Render(ctx, s.window)
	var brief *summary.Brief
	if s.brief != nil {
		b := s.brief.Brief(ctx, page)
		brief = &b
	}

	if err := s.send.SendMessage(ctx, s.chatID, Format(page, brief)); err != nil {
		metrics.DigestsSentTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("send digest: %w", err)
	}
	metrics.DigestsSentTotal.WithLabelValues("ok").Inc()
	s.logger.Info("digest sent", "chat_id", s.chatID)
	return nil
}

// Format renders a page as a Telegram HTML message. brief may be nil.
func Format(page *dashboard.Page, brief *summary.Brief) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Liquidity Digest</b> | %s\n\n", page.GeneratedAt.UTC().Format("2006-01-02"))

	lines := summary.Lines(page)
	if len(lines) == 0 {
		b.WriteString("No indicators available.\n")
	}
	for _, l := range lines {
		b.WriteString("• " + html.EscapeString(l) + "\n")
	}

	if brief != nil && brief.Status == dashboard.StatusOK {
		b.WriteString("\n<i>" + html.EscapeString(brief.Text) + "</i>\n")
	}

	if warnings := page.Warnings(); len(warnings) > 0 {
		b.WriteString("\n⚠️ ")
		b.WriteString(html.EscapeString(strings.Join(warnings, "; ")))
		b.WriteString("\n")
	}
	return b.String()
}

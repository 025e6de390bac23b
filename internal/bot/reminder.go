package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/kosten114/schoolbot/internal/blobs"
	"github.com/kosten114/schoolbot/internal/store"
	"github.com/robfig/cron/v3"
)

// DefaultReminderCron fires at the top of every hour.
const DefaultReminderCron = "0 * * * *"

// DefaultLookahead is how far ahead of now the scan looks for events.
const DefaultLookahead = 24 * time.Hour

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the
// duration until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string, now time.Time) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Reminder periodically scans for schedule events inside the lookahead
// window and notifies their owners. Events still inside the window on
// the next scan are notified again; there is no sent-flag.
type Reminder struct {
	records   *store.Store
	media     *blobs.Store
	adapter   Adapter
	cronExpr  string
	lookahead time.Duration
	out       io.Writer
}

// ReminderOpts holds parameters for creating a Reminder.
type ReminderOpts struct {
	Records   *store.Store
	Adapter   Adapter
	Media     *blobs.Store  // optional; skips the motivation send when nil
	Cron      string        // defaults to DefaultReminderCron
	Lookahead time.Duration // defaults to DefaultLookahead
	Out       io.Writer     // defaults to os.Stdout
}

// NewReminder creates a Reminder.
func NewReminder(opts ReminderOpts) (*Reminder, error) {
	if opts.Records == nil {
		return nil, fmt.Errorf("bot: reminder: record store is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: reminder: adapter is required")
	}
	expr := opts.Cron
	if expr == "" {
		expr = DefaultReminderCron
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return nil, fmt.Errorf("bot: reminder: bad cron %q: %w", expr, err)
	}
	lookahead := opts.Lookahead
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Reminder{
		records:   opts.Records,
		media:     opts.Media,
		adapter:   opts.Adapter,
		cronExpr:  expr,
		lookahead: lookahead,
		out:       out,
	}, nil
}

// Run fires Scan on the cron schedule until the context is cancelled.
// Scan errors are logged; the loop keeps ticking.
func (r *Reminder) Run(ctx context.Context) {
	timer := time.NewTimer(nextCronDuration(r.cronExpr, time.Now()))
	defer timer.Stop()

	fmt.Fprintf(r.out, "bot: reminder: scheduled (%s)\n", r.cronExpr)
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := r.Scan(ctx); err != nil {
				log.Printf("bot: reminder: scan: %v", err)
			}
			timer.Reset(nextCronDuration(r.cronExpr, time.Now()))
		}
	}
}

// Scan runs one reminder cycle: every event with an event date inside
// [now, now+lookahead] produces a notification to its owner plus one
// random motivational item (silently skipped when the store is empty).
func (r *Reminder) Scan(ctx context.Context) error {
	now := time.Now()
	events, err := r.records.EventsInWindow(now, now.Add(r.lookahead))
	if err != nil {
		return err
	}

	for _, ev := range events {
		note := fmt.Sprintf("🔔 Напоминание: скоро %s — %s (%s)",
			ev.Subject, ev.EventType, ev.EventDate.Format(dateLayout))
		if err := r.adapter.Send(ctx, OutboundMessage{OwnerID: ev.UserID, Text: note}); err != nil {
			log.Printf("bot: reminder: notify %d: %v", ev.UserID, err)
			continue
		}

		if r.media == nil {
			continue
		}
		ref, ok := r.media.PickRandom()
		if !ok {
			continue
		}
		if err := r.adapter.Send(ctx, OutboundMessage{
			OwnerID:   ev.UserID,
			MediaKind: ref.Kind,
			MediaPath: ref.Path,
			Text:      "💪 Ты справишься!",
		}); err != nil {
			log.Printf("bot: reminder: send motivation to %d: %v", ev.UserID, err)
		}
	}
	return nil
}

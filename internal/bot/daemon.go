package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/kosten114/schoolbot/internal/blobs"
	"github.com/kosten114/schoolbot/internal/config"
	"github.com/kosten114/schoolbot/internal/store"
)

// Daemon is the main bot process. It connects to the chat platform via
// an Adapter, pumps inbound user events through the Router, and runs the
// reminder scheduler alongside. Inbound events are handled one at a
// time, which serializes all conversation-state mutation.
type Daemon struct {
	records *store.Store
	media   *blobs.Store
	cfg     *config.Config
	adapter Adapter
	out     io.Writer
}

// DaemonOpts holds parameters for creating a Daemon.
type DaemonOpts struct {
	Records *store.Store
	Config  *config.Config
	Adapter Adapter
	Media   *blobs.Store // optional; motivation features degrade when nil
	Out     io.Writer    // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Records == nil {
		return nil, fmt.Errorf("bot: daemon: record store is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("bot: daemon: config is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: daemon: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.Media == nil {
		fmt.Fprintf(out, "bot: no media store configured; motivation disabled\n")
	}
	return &Daemon{
		records: opts.Records,
		media:   opts.Media,
		cfg:     opts.Config,
		adapter: opts.Adapter,
		out:     out,
	}, nil
}

// Run starts the bot. It connects the adapter, builds the machine,
// router and reminder, and blocks until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Bot connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("bot: connect: %w", err)
	}

	machine, err := NewMachine(d.records, d.media)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bot: build machine: %w", err)
	}

	router, err := NewRouter(RouterOpts{
		Machine: machine,
		Records: d.records,
		Media:   d.media,
		Out:     d.out,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bot: build router: %w", err)
	}

	reminder, err := NewReminder(ReminderOpts{
		Records:   d.records,
		Adapter:   d.adapter,
		Media:     d.media,
		Cron:      d.cfg.Reminder.Cron,
		Lookahead: time.Duration(d.cfg.Reminder.LookaheadHours) * time.Hour,
		Out:       d.out,
	})
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bot: build reminder: %w", err)
	}

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bot: listen: %w", err)
	}

	go reminder.Run(ctx)

	fmt.Fprintf(d.out, "Bot online\n")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Bot shutting down...\n")
			if err := d.adapter.Close(); err != nil {
				log.Printf("bot: close adapter: %v", err)
			}
			fmt.Fprintf(d.out, "Bot stopped\n")
			return nil

		case msg, ok := <-inbound:
			if !ok {
				fmt.Fprintf(d.out, "Bot inbound channel closed\n")
				return nil
			}
			router.Handle(ctx, d.adapter, msg)
		}
	}
}

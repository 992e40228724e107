package dispatch

import (
	"context"
	"time"

	"github.com/EchoPBX/c2host/internal/config"
	"go.uber.org/zap"
)

// Host runs the dispatch loop until the app goes idle.
type Host struct {
	app  *App
	log  *zap.Logger
	poll time.Duration
}

type HostOption func(*Host)

// WithPollInterval bounds how long an idle loop sleeps before checking the
// watchdog again.
func WithPollInterval(d time.Duration) HostOption {
	return func(h *Host) { h.poll = d }
}

func NewHost(app *App, log *zap.Logger, opts ...HostOption) *Host {
	h := &Host{
		app:  app,
		log:  log.Named("host"),
		poll: config.DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run issues the seed commands one per iteration, interleaved with ticks,
// until no command completed for the idle timeout or ctx is done. Dispatch
// errors are logged and never stop the loop. Plugins are closed before Run
// returns. The idle window starts when Run is called.
func (h *Host) Run(ctx context.Context, seeds []config.Seed) error {
	defer h.app.Close()
	h.app.state.MarkActivity()

	next := 0
	for !h.app.IsFinished() {
		if err := ctx.Err(); err != nil {
			h.log.Info("dispatch loop cancelled", zap.Error(err))
			return err
		}

		if next < len(seeds) {
			s := seeds[next]
			next++
			if _, err := h.app.RunCommand(s.Plugin, s.Payload); err != nil {
				h.log.Error("error while running command",
					zap.String("plugin", string(s.Plugin)),
					zap.String("command", s.Payload),
					zap.Error(err))
			}
		}

		if err := h.app.Tick(); err != nil {
			h.log.Error("error in application loop", zap.Error(err))
		}

		if next >= len(seeds) && !h.app.Pending() {
			h.wait(ctx)
		}
	}

	h.log.Info("timeout waiting for events", zap.Duration("idle_timeout", h.app.idle))
	return nil
}

func (h *Host) wait(ctx context.Context) {
	t := time.NewTimer(h.poll)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-h.app.state.box.ready():
	case <-t.C:
	}
}

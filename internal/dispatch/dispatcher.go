package dispatch

import (
	"fmt"
	"time"

	"github.com/EchoPBX/c2host/internal/config"
	"github.com/EchoPBX/c2host/pkg/sdk"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Plugins is the live plugin set as the dispatcher needs it.
type Plugins interface {
	Get(id sdk.PluginID) (sdk.Plugin, bool)
	Shutdown(st sdk.State)
}

// ExchangeKind tells what an Exchange records.
type ExchangeKind string

const (
	// KindCommand: a command is about to be handed to its plugin.
	KindCommand ExchangeKind = "command"
	// KindReply: a plugin answered a command.
	KindReply ExchangeKind = "reply"
	// KindNotify: a response came back out of the response stage and is
	// reported as final.
	KindNotify ExchangeKind = "notify"
)

// Exchange is one message observed by the dispatcher. From is empty for
// commands issued by the host itself through RunCommand.
type Exchange struct {
	Kind    ExchangeKind `json:"kind"`
	ID      string       `json:"id"`
	From    sdk.PluginID `json:"from"`
	To      sdk.PluginID `json:"to"`
	Payload string       `json:"payload"`
	At      time.Time    `json:"at"`
}

// Observer receives every Exchange on the dispatch goroutine. It must not
// block for long.
type Observer interface {
	Observe(ex Exchange)
}

type ObserverFunc func(ex Exchange)

func (f ObserverFunc) Observe(ex Exchange) { f(ex) }

// App drives the plugins: direct dispatch, ticks and the idle check.
type App struct {
	plugins   Plugins
	state     *State
	log       *zap.Logger
	observers []Observer
	idle      time.Duration
}

type AppOption func(*App)

func WithObserver(o Observer) AppOption {
	return func(a *App) { a.observers = append(a.observers, o) }
}

// WithIdleTimeout sets the quiescence window after which IsFinished holds.
func WithIdleTimeout(d time.Duration) AppOption {
	return func(a *App) { a.idle = d }
}

func NewApp(plugins Plugins, state *State, log *zap.Logger, opts ...AppOption) *App {
	a := &App{
		plugins: plugins,
		state:   state,
		log:     log.Named("dispatch"),
		idle:    config.DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *App) State() *State { return a.state }

// RunCommand sends payload straight to plugin id, bypassing both queues,
// and returns the reply.
func (a *App) RunCommand(id sdk.PluginID, payload string) (string, error) {
	cmd := sdk.NewCommand("", id, payload)
	p, ok := a.plugins.Get(id)
	if !ok {
		return "", NewUnknownPluginError(id, cmd.ID)
	}
	a.emit(KindCommand, cmd.ID, cmd.From, cmd.To, cmd.Payload)

	reply, err := a.sendCommand(p, cmd)
	if err != nil {
		return "", err
	}
	a.state.MarkActivity()
	a.report(KindReply, cmd.Reply(reply))
	return reply, nil
}

// Tick advances the system by one bounded unit of work: it moves at most
// one mailbox message to the command queue, runs at most one queued
// command, then delivers every response that was pending when the tick
// started. Responses produced during the tick wait for the next one.
// Errors from any step are combined; a failing step never prevents the
// later ones.
func (a *App) Tick() error {
	responses := a.state.swapResponses()

	if cmd, ok := a.state.box.tryRecv(); ok {
		a.state.EnqueueCommand(cmd)
	}

	var errs error
	if cmd, ok := a.state.popCommand(); ok {
		errs = multierr.Append(errs, a.runQueued(cmd))
	}
	for _, resp := range responses {
		errs = multierr.Append(errs, a.deliver(resp))
	}
	return errs
}

// IsFinished reports whether no command completed for the idle timeout.
func (a *App) IsFinished() bool {
	return a.state.now().Sub(a.state.LastActivity()) >= a.idle
}

// Pending reports whether a tick would find work right now.
func (a *App) Pending() bool { return a.state.pending() }

// Close shuts every plugin down and stops accepting submissions.
func (a *App) Close() {
	a.plugins.Shutdown(a.state.View())
	a.state.Close()
}

func (a *App) runQueued(cmd *sdk.Command) error {
	p, ok := a.plugins.Get(cmd.To)
	if !ok {
		return NewUnknownPluginError(cmd.To, cmd.ID)
	}
	a.emit(KindCommand, cmd.ID, cmd.From, cmd.To, cmd.Payload)

	reply, err := a.sendCommand(p, cmd)
	if err != nil {
		return err
	}
	a.state.MarkActivity()

	resp := cmd.Reply(reply)
	a.state.pushResponse(resp)
	a.emit(KindReply, resp.ID, resp.From, resp.To, resp.Payload)
	return nil
}

func (a *App) deliver(resp *sdk.Response) error {
	p, ok := a.plugins.Get(resp.To)
	if !ok {
		return NewUnknownPluginError(resp.To, resp.ID)
	}
	h, ok := p.(sdk.ResponseHandler)
	if !ok {
		a.report(KindNotify, resp)
		return nil
	}
	out, err := a.handleResponse(h, resp)
	if err != nil {
		return err
	}
	if out != nil {
		a.report(KindNotify, out)
	}
	return nil
}

func (a *App) sendCommand(p sdk.Plugin, cmd *sdk.Command) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPluginFailedError(cmd.To, "send_command", cmd.ID, fmt.Errorf("panic: %v", r))
		}
	}()
	reply, err = p.SendCommand(cmd.Payload, a.state.View())
	if err != nil {
		return "", NewPluginFailedError(cmd.To, "send_command", cmd.ID, err)
	}
	return reply, nil
}

func (a *App) handleResponse(h sdk.ResponseHandler, resp *sdk.Response) (out *sdk.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewPluginFailedError(resp.To, "handle_response", resp.ID, fmt.Errorf("panic: %v", r))
		}
	}()
	out, err = h.HandleResponse(resp, a.state.View())
	if err != nil {
		return nil, NewPluginFailedError(resp.To, "handle_response", resp.ID, err)
	}
	return out, nil
}

// report logs a response and passes it to the observers.
func (a *App) report(kind ExchangeKind, resp *sdk.Response) {
	a.log.Info("response",
		zap.String("kind", string(kind)),
		zap.String("id", resp.ID),
		zap.String("from", string(resp.From)),
		zap.String("to", string(resp.To)),
		zap.String("payload", resp.Payload))
	a.notify(Exchange{Kind: kind, ID: resp.ID, From: resp.From, To: resp.To, Payload: resp.Payload, At: a.state.now()})
}

func (a *App) emit(kind ExchangeKind, id string, from, to sdk.PluginID, payload string) {
	a.log.Info(string(kind),
		zap.String("id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("payload", payload))
	a.notify(Exchange{Kind: kind, ID: id, From: from, To: to, Payload: payload, At: a.state.now()})
}

func (a *App) notify(ex Exchange) {
	for _, o := range a.observers {
		o.Observe(ex)
	}
}

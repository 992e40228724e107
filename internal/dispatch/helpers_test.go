package dispatch

import (
	"sort"
	"sync"
	"time"

	"github.com/EchoPBX/c2host/pkg/sdk"
	"go.uber.org/multierr"
)

type pluginSet map[sdk.PluginID]sdk.Plugin

func (s pluginSet) Get(id sdk.PluginID) (sdk.Plugin, bool) {
	p, ok := s[id]
	return p, ok
}

func (s pluginSet) Shutdown(st sdk.State) {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		s[sdk.PluginID(id)].Close(st)
	}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fixedPlugin answers every command with the same reply.
type fixedPlugin struct {
	id       sdk.PluginID
	reply    string
	payloads []string
	closed   bool
}

func (p *fixedPlugin) SendCommand(payload string, _ sdk.State) (string, error) {
	p.payloads = append(p.payloads, payload)
	return p.reply, nil
}
func (p *fixedPlugin) PluginID() sdk.PluginID { return p.id }
func (p *fixedPlugin) Close(sdk.State)        { p.closed = true }

// inbox records the responses it receives and consumes them.
type inbox struct {
	id  sdk.PluginID
	got []*sdk.Response
}

func (p *inbox) SendCommand(payload string, _ sdk.State) (string, error) { return "", nil }
func (p *inbox) PluginID() sdk.PluginID                                  { return p.id }
func (p *inbox) Close(sdk.State)                                         {}
func (p *inbox) HandleResponse(r *sdk.Response, _ sdk.State) (*sdk.Response, error) {
	p.got = append(p.got, r)
	return nil, nil
}

type exchangeLog struct{ got []Exchange }

func (l *exchangeLog) Observe(ex Exchange) { l.got = append(l.got, ex) }

func (l *exchangeLog) kinds() []ExchangeKind {
	out := make([]ExchangeKind, len(l.got))
	for i, ex := range l.got {
		out[i] = ex.Kind
	}
	return out
}

func multierrErrors(err error) []error { return multierr.Errors(err) }

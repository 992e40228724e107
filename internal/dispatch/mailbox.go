package dispatch

import (
	"sync"

	"github.com/EchoPBX/c2host/pkg/sdk"
)

// mailbox is the multi-producer, single-consumer conduit into the dispatch
// goroutine. Producers never block; the dispatcher polls it once per tick.
type mailbox struct {
	mu     sync.Mutex
	items  []*sdk.Command
	closed bool
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) Send(cmd *sdk.Command) error {
	if cmd == nil {
		return sdk.NewError(sdk.InputInvalid, "nil command")
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return sdk.ErrHostClosed
	}
	m.items = append(m.items, cmd)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

func (m *mailbox) tryRecv() (*sdk.Command, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return nil, false
	}
	cmd := m.items[0]
	m.items[0] = nil
	m.items = m.items[1:]
	return cmd, true
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// ready fires after a Send; it may fire spuriously.
func (m *mailbox) ready() <-chan struct{} { return m.notify }

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

package dispatch

import (
	"time"

	"github.com/EchoPBX/c2host/pkg/sdk"
	"github.com/agilira/go-timecache"
)

// State is the host's mutable dispatch state: the two FIFO queues, the
// mailbox and the activity clock. Apart from the mailbox's sender it must
// only be touched from the dispatch goroutine.
type State struct {
	commands     []*sdk.Command
	responses    []*sdk.Response
	box          *mailbox
	lastActivity time.Time
	now          func() time.Time
}

type StateOption func(*State)

// WithClock replaces the activity clock.
func WithClock(now func() time.Time) StateOption {
	return func(s *State) { s.now = now }
}

func NewState(opts ...StateOption) *State {
	s := &State{
		box: newMailbox(),
		now: timecache.CachedTime,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActivity = s.now()
	return s
}

// EnqueueCommand appends cmd to the command queue. Nil commands are dropped.
func (s *State) EnqueueCommand(cmd *sdk.Command) {
	if cmd == nil {
		return
	}
	s.commands = append(s.commands, cmd)
}

// Sender returns the shared mailbox sender.
func (s *State) Sender() sdk.Sender { return s.box }

// MarkActivity records the current time as the last activity.
func (s *State) MarkActivity() { s.lastActivity = s.now() }

func (s *State) LastActivity() time.Time { return s.lastActivity }

func (s *State) PendingCommands() int  { return len(s.commands) }
func (s *State) PendingResponses() int { return len(s.responses) }

// Close stops the mailbox; later sends fail with sdk.ErrHostClosed.
func (s *State) Close() { s.box.close() }

func (s *State) popCommand() (*sdk.Command, bool) {
	if len(s.commands) == 0 {
		return nil, false
	}
	cmd := s.commands[0]
	s.commands[0] = nil
	s.commands = s.commands[1:]
	return cmd, true
}

func (s *State) pushResponse(resp *sdk.Response) {
	s.responses = append(s.responses, resp)
}

// swapResponses hands out the pending responses and starts a fresh queue.
func (s *State) swapResponses() []*sdk.Response {
	out := s.responses
	s.responses = nil
	return out
}

func (s *State) pending() bool {
	return len(s.commands) > 0 || len(s.responses) > 0 || s.box.len() > 0
}

package sdk

import "errors"

// ErrHostClosed is returned by Sender.Send once the host stopped dispatching.
var ErrHostClosed = errors.New("host closed")

// State is the view of the host a plugin gets during SendCommand,
// HandleResponse and Close. It is only valid for the duration of that call
// and must not be used from other goroutines.
type State interface {
	// EnqueueCommand queues cmd; it is processed on a later tick.
	EnqueueCommand(cmd *Command)

	// Sender returns the host's shared sender.
	Sender() Sender
}

// Sender submits commands to the host. It is safe for concurrent use and
// never blocks; a submitted command is picked up on the next tick.
type Sender interface {
	Send(cmd *Command) error
}

package uplink

import "sync"

// outbox is an unbounded FIFO of results waiting for the controller.
type outbox struct {
	mu     sync.Mutex
	items  []Result
	notify chan struct{}
}

func newOutbox() *outbox {
	return &outbox{notify: make(chan struct{}, 1)}
}

func (o *outbox) push(r Result) {
	o.mu.Lock()
	o.items = append(o.items, r)
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) requeue(r Result) {
	o.mu.Lock()
	o.items = append([]Result{r}, o.items...)
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) pop() (Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.items) == 0 {
		return Result{}, false
	}
	r := o.items[0]
	o.items[0] = Result{}
	o.items = o.items[1:]
	return r, true
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

func (o *outbox) ready() <-chan struct{} { return o.notify }

func (o *outbox) signal() {
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

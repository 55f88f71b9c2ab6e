package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events when the queue is full instead of blocking
	// the emitting request. Event types listed in Retain are never dropped.
	DropIfFull bool
	Retain     []string
	// Now stamps events that arrive without a timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Dispatcher relays events to a sink on its own goroutine.
//
// Senders hold mu for reading while they enqueue, so Close can mark the
// dispatcher closed and close the queue without racing a send.
type Dispatcher struct {
	sink       Sink
	now        func() time.Time
	dropIfFull bool
	retain     map[string]struct{}

	mu      sync.RWMutex
	closed  bool
	queue   chan Event
	drained chan struct{}

	dropped       atomic.Uint64
	droppedByType sync.Map // event type -> *atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. It returns nil when cfg is
// disabled; a nil *Dispatcher accepts and discards events.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	d := &Dispatcher{
		sink:       sink,
		now:        cfg.Now,
		dropIfFull: cfg.DropIfFull,
		retain:     make(map[string]struct{}, len(cfg.Retain)),
		queue:      make(chan Event, cfg.BufferSize),
		drained:    make(chan struct{}),
	}
	for _, t := range cfg.Retain {
		d.retain[t] = struct{}{}
	}

	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer close(d.drained)
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues event. A dropped event is counted under its type; a blocking
// Emit gives up when ctx ends.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if _, keep := d.retain[event.EventType]; d.dropIfFull && !keep {
		select {
		case d.queue <- event:
		default:
			d.countDrop(event.EventType)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.countDrop(event.EventType)
	}
}

func (d *Dispatcher) countDrop(eventType string) {
	d.dropped.Add(1)
	c, _ := d.droppedByType.LoadOrStore(eventType, new(atomic.Uint64))
	c.(*atomic.Uint64).Add(1)
}

// Close stops accepting events and waits until queued ones reach the sink.
// It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.drained
}

// Dropped returns the number of events that never reached the queue.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedByType breaks Dropped down by event type.
func (d *Dispatcher) DroppedByType() map[string]uint64 {
	out := make(map[string]uint64)
	if d == nil {
		return out
	}
	d.droppedByType.Range(func(k, v any) bool {
		out[k.(string)] = v.(*atomic.Uint64).Load()
		return true
	})
	return out
}

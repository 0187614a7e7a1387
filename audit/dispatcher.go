package audit

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit non-blocking: events beyond the buffer are
	// counted and discarded instead of backpressuring the caller. The
	// drop count is reported into the event stream on Close.
	DropIfFull bool
}

// Dispatcher delivers events to a sink on a single background goroutine
// so token issuance and redemption never wait on sink I/O.
type Dispatcher struct {
	sink     Sink
	queue    chan Event
	blocking bool

	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// NewDispatcher starts a dispatcher delivering to sink. Returns nil when
// auditing is disabled; a nil Dispatcher is safe to Emit on.
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

	d := &Dispatcher{
		sink:     sink,
		queue:    make(chan Event, cfg.BufferSize),
		blocking: !cfg.DropIfFull,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer close(d.stopped)
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.stop:
			d.flush()
			return
		}
	}
}

// flush hands the backlog to the sink, then accounts for what was lost
// as one final event in the stream itself.
func (d *Dispatcher) flush() {
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		default:
			if n := d.dropped.Load(); n > 0 {
				d.sink.Emit(context.Background(), Event{
					Timestamp: time.Now(),
					EventType: EventAuditDropped,
					Metadata:  map[string]string{"count": strconv.FormatUint(n, 10)},
				})
			}
			return
		}
	}
}

// Emit queues an event for delivery. After Close it is a no-op.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	select {
	case <-d.stop:
		return
	default:
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.blocking {
		select {
		case d.queue <- event:
		case <-ctx.Done():
		case <-d.stop:
		}
		return
	}

	select {
	case d.queue <- event:
	case <-d.stop:
	default:
		d.dropped.Add(1)
	}
}

// Close flushes queued events and stops the dispatcher.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		close(d.stop)
		<-d.stopped
	})
}

// Dropped reports how many events were discarded so far.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

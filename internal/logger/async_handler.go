package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the async log pipeline.
type AsyncOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type queuedRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// asyncQueue is shared by an AsyncHandler and every handler derived from
// it with WithAttrs/WithGroup, so one goroutine drains all of them.
type asyncQueue struct {
	records      chan queuedRecord
	flushTimeout time.Duration
	closeOnce    sync.Once
	closed       atomic.Bool
	done         chan struct{}
	dropped      atomic.Uint64
}

func newAsyncQueue(opts AsyncOptions) *asyncQueue {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultAsyncBufferSize
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = defaultAsyncFlushTimeout
	}
	q := &asyncQueue{
		records:      make(chan queuedRecord, opts.BufferSize),
		flushTimeout: opts.FlushTimeout,
		done:         make(chan struct{}),
	}
	go func() {
		defer close(q.done)
		for rec := range q.records {
			_ = rec.handler.Handle(rec.ctx, rec.record)
		}
	}()
	return q
}

// push never blocks: when the buffer is full the record is dropped.
func (q *asyncQueue) push(rec queuedRecord) {
	if q.closed.Load() {
		return
	}
	select {
	case q.records <- rec:
	default:
		q.dropped.Add(1)
	}
}

func (q *asyncQueue) close(ctx context.Context) error {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.records)
	})
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.flushTimeout)
		defer cancel()
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncHandler hands records to a background goroutine so slow remote
// sinks never block webhook processing.
type AsyncHandler struct {
	queue   *asyncQueue
	handler slog.Handler
}

// NewAsyncHandler creates a new async handler with its own queue.
func NewAsyncHandler(handler slog.Handler, opts AsyncOptions) *AsyncHandler {
	return &AsyncHandler{queue: newAsyncQueue(opts), handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle enqueues a clone of the record.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	h.queue.push(queuedRecord{ctx: context.WithoutCancel(ctx), record: r.Clone(), handler: h.handler})
	return nil
}

// WithAttrs returns a handler sharing the same queue.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{queue: h.queue, handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a handler sharing the same queue.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{queue: h.queue, handler: h.handler.WithGroup(name)}
}

// Dropped returns how many records were discarded because the queue was full.
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil {
		return 0
	}
	return h.queue.dropped.Load()
}

// Shutdown stops accepting records and waits for the queue to drain.
// Safe to call on a nil handler and more than once.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.queue == nil {
		return nil
	}
	return h.queue.close(ctx)
}

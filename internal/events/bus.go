// Package events routes domain events to registered handlers through an
// in-process queue drained by a worker pool. Delivery is at-least-once:
// a failing handler is retried, so handlers must be idempotent.
package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/Harshitk-cp/clubledger/internal/metrics"
	"github.com/Harshitk-cp/clubledger/internal/monitoring"
	"github.com/Harshitk-cp/clubledger/internal/tenancy"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrBusClosed = errors.New("event bus closed")

const defaultHandlerTimeout = 30 * time.Second

type HandlerFunc = func(ctx context.Context, ev domain.Event) error

type Options struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	// Backoff is the delay before the second attempt; it doubles per retry.
	Backoff time.Duration
}

type job struct {
	id     uuid.UUID
	event  domain.Event
	tenant *domain.Tenant
}

type Bus struct {
	logger   *zap.Logger
	reporter monitoring.Reporter
	metrics  *metrics.Metrics
	opts     Options

	mu       sync.RWMutex
	handlers map[domain.EventKind][]HandlerFunc
	closed   bool

	queue   chan job
	group   *errgroup.Group
	started bool
}

func NewBus(opts Options, logger *zap.Logger, reporter monitoring.Reporter, m *metrics.Metrics) *Bus {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if reporter == nil {
		reporter = monitoring.Nop{}
	}
	return &Bus{
		logger:   logger,
		reporter: reporter,
		metrics:  m,
		opts:     opts,
		handlers: make(map[domain.EventKind][]HandlerFunc),
		queue:    make(chan job, opts.QueueSize),
	}
}

// Subscribe adds h to the registration table for kind.
func (b *Bus) Subscribe(kind domain.EventKind, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Start launches the workers. They exit when Stop is called or ctx is done.
func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < b.opts.Workers; i++ {
		g.Go(func() error {
			b.work(gctx)
			return nil
		})
	}
	b.group = g
	b.logger.Info("event bus started", zap.Int("workers", b.opts.Workers), zap.Int("queue_size", b.opts.QueueSize))
}

// Stop closes the queue and waits for queued and in-flight jobs to finish.
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	g := b.group
	b.mu.Unlock()

	if g != nil {
		_ = g.Wait()
	}
	b.logger.Info("event bus stopped")
}

// Publish enqueues ev for asynchronous delivery and returns without waiting
// for handlers. The tenant bound to ctx travels with the job. Publish blocks
// while the queue is full, until ctx is done.
func (b *Bus) Publish(ctx context.Context, ev domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	j := job{id: uuid.New(), event: ev, tenant: tenancy.FromContext(ctx)}
	select {
	case b.queue <- j:
		b.logger.Debug("event enqueued", zap.String("kind", string(ev.Kind())), zap.String("job_id", j.id.String()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch runs every handler for ev inline, with the same retry policy as
// queued delivery, and returns their joined errors.
func (b *Bus) Dispatch(ctx context.Context, ev domain.Event) error {
	return b.run(ctx, job{id: uuid.New(), event: ev, tenant: tenancy.FromContext(ctx)})
}

func (b *Bus) work(ctx context.Context) {
	for {
		select {
		case j, ok := <-b.queue:
			if !ok {
				return
			}
			_ = b.run(ctx, j)
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bus) run(ctx context.Context, j job) error {
	b.mu.RLock()
	handlers := append([]HandlerFunc(nil), b.handlers[j.event.Kind()]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers registered", zap.String("kind", string(j.event.Kind())))
		return nil
	}

	ctx = tenancy.WithTenant(ctx, j.tenant)

	var errs []error
	for i, h := range handlers {
		if err := b.runWithRetry(ctx, j, h); err != nil {
			errs = append(errs, fmt.Errorf("handler %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) runWithRetry(ctx context.Context, j job, h HandlerFunc) error {
	delay := b.opts.Backoff

	var err error
	for attempt := 1; attempt <= b.opts.MaxAttempts; attempt++ {
		err = b.invoke(ctx, j, h)
		if err == nil {
			b.metrics.RecordEvent(j.event.Kind(), nil)
			return nil
		}

		b.logger.Warn("event handler failed",
			zap.String("kind", string(j.event.Kind())),
			zap.String("job_id", j.id.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == b.opts.MaxAttempts || delay <= 0 {
			continue
		}
		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return b.giveUp(ctx, j, errors.Join(err, ctx.Err()))
		}
	}
	return b.giveUp(ctx, j, err)
}

func (b *Bus) giveUp(ctx context.Context, j job, err error) error {
	kind := j.event.Kind()
	b.metrics.RecordEvent(kind, err)
	b.logger.Error("event handler gave up",
		zap.String("kind", string(kind)),
		zap.String("job_id", j.id.String()),
		zap.Error(err))
	b.reporter.Capture(ctx, err, map[string]string{
		"event_kind":   string(kind),
		"job_id":       j.id.String(),
		"max_attempts": strconv.Itoa(b.opts.MaxAttempts),
	})
	return err
}

func (b *Bus) invoke(ctx context.Context, j job, h HandlerFunc) (err error) {
	ctx, cancel := context.WithTimeout(ctx, defaultHandlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, j.event)
}

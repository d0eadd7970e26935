// Package trigger dispatches committed document changes to the reactive
// handlers and commits the writes they plan.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/oobayly/club-trophies-webapp-sub000/internal/gather"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/logger"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/metrics"
	"github.com/oobayly/club-trophies-webapp-sub000/internal/store"
)

// Defaults for Options.
const (
	DefaultMaxAttempts   = 5
	DefaultRetryBackoff  = 250 * time.Millisecond
	DefaultMaxConcurrent = 8
	DefaultBufferSize    = 1000
	DefaultReplayEvery   = time.Minute

	// maxRounds bounds how often a repeating route re-plans after a commit.
	maxRounds = 100
)

// ErrTooManyRounds is returned when a repeating route keeps planning writes.
var ErrTooManyRounds = errors.New("handler did not converge")

// Committer commits a batch of writes atomically.
type Committer interface {
	Commit(ctx context.Context, writes ...store.Write) error
}

// Outbox holds recorded changes until their handler has run.
type Outbox interface {
	Pending(ctx context.Context) ([]store.Change, error)
	Ack(ctx context.Context, seq uint64) error
}

// HandlerFunc plans the writes a change calls for. It must only read.
type HandlerFunc func(ctx context.Context, change store.Change) ([]store.Write, error)

// Route sends changes of one kind in one collection group to a handler.
type Route struct {
	Name   string
	Group  string
	Kind   store.ChangeKind
	Handle HandlerFunc

	// Committed, if set, is called after each successful commit of the handler's writes.
	Committed func(ctx context.Context, change store.Change, writes []store.Write)

	// Repeat re-plans after every commit until the handler plans nothing.
	// Only for handlers whose plans shrink as they are applied.
	Repeat bool

	// Split commits a plan larger than one batch as consecutive batches, in
	// plan order. The handler must put the write that publishes its result last.
	Split bool
}

// Options configures a Dispatcher.
type Options struct {
	MaxAttempts   int           // attempts per change before giving up
	RetryBackoff  time.Duration // delay before the first retry, doubled each time
	MaxConcurrent int           // changes handled at once
	BufferSize    int           // queued changes before Emit blocks
	Outbox        Outbox        // recorded changes to acknowledge and replay; optional
	ReplayEvery   time.Duration // how often unacknowledged changes are replayed
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// Dispatcher implements store.ChangeEmitter. Changes are queued by Emit and
// handled concurrently by Start. Every attempt re-plans from fresh reads, so
// a retried change converges instead of replaying stale writes.
//
// With an Outbox, a recorded change is acknowledged once handled or failed
// permanently. Anything else stays recorded and is replayed by Start, so a
// change dropped by a restart or by exhausted retries is still delivered.
type Dispatcher struct {
	store   Committer
	routes  []Route
	events  chan store.Change
	sem     *semaphore.Weighted
	logger  *slog.Logger
	metrics *metrics.Metrics

	outbox      Outbox
	replayEvery time.Duration

	maxAttempts  int
	retryBackoff time.Duration

	// Recorded changes queued or in flight, by sequence number.
	claimedMu sync.Mutex
	claimed   map[uint64]struct{}

	// Handler context; only canceled when a shutdown times out.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	wg    sync.WaitGroup // Start loop
	tasks sync.WaitGroup // in-flight changes

	stopping chan struct{}
	stopOnce sync.Once

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// New creates a dispatcher committing through c.
func New(c Committer, opts Options, routes ...Route) *Dispatcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.ReplayEvery <= 0 {
		opts.ReplayEvery = DefaultReplayEvery
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		store:        c,
		routes:       routes,
		events:       make(chan store.Change, opts.BufferSize),
		sem:          semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		outbox:       opts.Outbox,
		replayEvery:  opts.ReplayEvery,
		claimed:      make(map[uint64]struct{}),
		maxAttempts:  opts.MaxAttempts,
		retryBackoff: opts.RetryBackoff,
		baseCtx:      baseCtx,
		cancelBase:   cancel,
		stopping:     make(chan struct{}),
	}
}

// Emit queues a committed change. It blocks while the queue is full and drops
// the change once the dispatcher is shutting down. A dropped recorded change
// is left in the outbox for replay.
func (d *Dispatcher) Emit(change store.Change) {
	if d.route(change) == nil {
		return
	}
	if !d.claim(change.Seq) {
		return
	}

	// Hold read lock through the entire send operation.
	// This prevents race with Shutdown() which holds write lock when closing channel.
	d.shutdownMu.RLock()
	defer d.shutdownMu.RUnlock()

	if d.shutdown {
		d.logger.Warn("dispatcher shut down, dropping change",
			slog.String(logger.KeyPath, change.Path),
			slog.String("kind", change.Kind.String()))
		d.release(change.Seq)
		return
	}

	select {
	case d.events <- change:
	default:
		d.logger.Warn("dispatch queue full, waiting", slog.String(logger.KeyPath, change.Path))
		select {
		case d.events <- change:
		case <-d.stopping:
			d.logger.Error("dispatcher stopping, dropping change", slog.String(logger.KeyPath, change.Path))
			d.release(change.Seq)
			return
		}
	}
	d.metrics.SetQueueDepth(len(d.events))
}

// Start runs the dispatch loop until ctx is done.
// This should be called once at startup in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.shutdownMu.RLock()
	if d.shutdown {
		d.shutdownMu.RUnlock()
		return
	}
	d.wg.Add(1)
	d.shutdownMu.RUnlock()
	defer d.wg.Done()

	d.logger.Info("Dispatcher starting", slog.Int("routes", len(d.routes)))

	d.replay(ctx)
	ticker := time.NewTicker(d.replayEvery)
	defer ticker.Stop()

	for {
		select {
		case change, ok := <-d.events:
			if !ok {
				return
			}
			d.metrics.SetQueueDepth(len(d.events))
			d.dispatch(change)

		case <-ticker.C:
			d.replay(ctx)

		case <-ctx.Done():
			d.logger.Info("Dispatcher stopping")
			return

		case <-d.stopping:
			return
		}
	}
}

// Shutdown stops accepting changes, handles the ones still queued and waits
// for in-flight handlers. If ctx ends first, in-flight handlers are canceled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.logger.Info("Dispatcher shutdown initiated")

	// Unblock Emit calls waiting on a full queue, then refuse new ones.
	d.stopOnce.Do(func() { close(d.stopping) })
	d.shutdownMu.Lock()
	if d.shutdown {
		d.shutdownMu.Unlock()
		return nil
	}
	d.shutdown = true
	d.shutdownMu.Unlock()

	// The loop is gone once wg is done, so the queue can be drained here.
	d.wg.Wait()
	close(d.events)

	for change := range d.events {
		d.dispatch(change)
	}

	done := make(chan struct{})
	go func() {
		d.tasks.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		d.logger.Info("Dispatcher drained successfully")
	case <-ctx.Done():
		d.logger.Warn("Dispatcher drain timeout, canceling in-flight handlers")
		d.cancelBase()
		<-done
		err = ctx.Err()
	}
	d.cancelBase()

	d.logger.Info("Dispatcher shutdown complete")
	return err
}

// dispatch handles change in its own goroutine once a concurrency slot is free.
func (d *Dispatcher) dispatch(change store.Change) {
	route := d.route(change)
	if route == nil {
		return
	}

	d.tasks.Add(1)
	go func() {
		defer d.tasks.Done()

		// Acquire inside the goroutine so the loop keeps draining the queue.
		if err := d.sem.Acquire(d.baseCtx, 1); err != nil {
			d.release(change.Seq)
			return
		}
		defer d.sem.Release(1)

		d.settle(change, d.run(d.baseCtx, route, change))
	}()
}

// Process handles one change synchronously, with retries, and returns the
// final error. Changes no route matches are ignored, as are recorded changes
// already queued or in flight.
func (d *Dispatcher) Process(ctx context.Context, change store.Change) error {
	route := d.route(change)
	if route == nil {
		return nil
	}
	if !d.claim(change.Seq) {
		return nil
	}
	err := d.run(ctx, route, change)
	d.settle(change, err)
	return err
}

// Replay dispatches every recorded change that is not already queued or in
// flight and returns how many were dispatched. Recorded changes no route
// matches are acknowledged.
func (d *Dispatcher) Replay(ctx context.Context) (int, error) {
	if d.outbox == nil {
		return 0, nil
	}
	pending, err := d.outbox.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("read outbox: %w", err)
	}

	n := 0
	for _, change := range pending {
		if d.route(change) == nil {
			d.ack(change)
			continue
		}
		if !d.claim(change.Seq) {
			continue
		}
		d.dispatch(change)
		n++
	}
	return n, nil
}

func (d *Dispatcher) replay(ctx context.Context) {
	n, err := d.Replay(ctx)
	switch {
	case err != nil:
		d.logger.Warn("outbox replay failed", slog.String("error", err.Error()))
	case n > 0:
		d.logger.Info("replaying recorded changes", slog.Int("changes", n))
	}
}

// claim marks a recorded change as queued. It reports false when the change
// is already queued or in flight. Unrecorded changes are always claimed.
func (d *Dispatcher) claim(seq uint64) bool {
	if seq == 0 {
		return true
	}
	d.claimedMu.Lock()
	defer d.claimedMu.Unlock()
	if _, ok := d.claimed[seq]; ok {
		return false
	}
	d.claimed[seq] = struct{}{}
	return true
}

func (d *Dispatcher) release(seq uint64) {
	if seq == 0 {
		return
	}
	d.claimedMu.Lock()
	delete(d.claimed, seq)
	d.claimedMu.Unlock()
}

// settle acknowledges a handled change, or one that can never succeed, and
// leaves every other failure recorded for the next replay.
func (d *Dispatcher) settle(change store.Change, err error) {
	defer d.release(change.Seq)
	if change.Seq == 0 {
		return
	}
	if err != nil && !store.IsPermanent(err) && !errors.Is(err, ErrTooManyRounds) {
		d.logger.Warn("change kept for replay",
			slog.String(logger.KeyPath, change.Path),
			slog.Uint64("seq", change.Seq))
		return
	}
	d.ack(change)
}

func (d *Dispatcher) ack(change store.Change) {
	if d.outbox == nil || change.Seq == 0 {
		return
	}
	// The handler context may already be canceled by a shutdown.
	if err := d.outbox.Ack(context.Background(), change.Seq); err != nil {
		d.logger.Warn("outbox ack failed",
			slog.String(logger.KeyPath, change.Path),
			slog.Uint64("seq", change.Seq),
			slog.String("error", err.Error()))
	}
}

// Backlog reports how many changes are queued and how many fit.
func (d *Dispatcher) Backlog() (queued, capacity int) {
	return len(d.events), cap(d.events)
}

func (d *Dispatcher) route(change store.Change) *Route {
	for i := range d.routes {
		if d.routes[i].Group == change.Group && d.routes[i].Kind == change.Kind {
			return &d.routes[i]
		}
	}
	return nil
}

// run applies one change: plan, commit, and retry until it succeeds, fails
// permanently or runs out of attempts.
func (d *Dispatcher) run(ctx context.Context, route *Route, change store.Change) error {
	for round := 0; ; round++ {
		if round == maxRounds {
			d.metrics.IncrementRun(route.Name, "failed")
			d.logger.Error("handler did not converge",
				slog.String(logger.KeyHandler, route.Name),
				slog.String(logger.KeyPath, change.Path),
				slog.Int("rounds", round))
			return fmt.Errorf("%s %s: %w", route.Name, change.Path, ErrTooManyRounds)
		}

		committed, err := d.attempts(ctx, route, change)
		if err != nil {
			return err
		}
		if !committed || !route.Repeat {
			return nil
		}
	}
}

// attempts plans and commits once, retrying failures with exponential backoff.
// It reports whether anything was committed.
func (d *Dispatcher) attempts(ctx context.Context, route *Route, change store.Change) (bool, error) {
	backoff := d.retryBackoff
	for attempt := 1; ; attempt++ {
		start := time.Now()
		writes, err := route.Handle(ctx, change)
		if err == nil && len(writes) > 0 {
			err = d.commit(ctx, route, writes)
		}
		d.metrics.ObserveLatency(route.Name, time.Since(start))

		if err == nil {
			if len(writes) == 0 {
				d.metrics.IncrementRun(route.Name, "noop")
				d.logger.Debug("handler planned no writes",
					slog.String(logger.KeyHandler, route.Name),
					slog.String(logger.KeyPath, change.Path))
				return false, nil
			}
			d.metrics.IncrementRun(route.Name, "ok")
			if route.Committed != nil {
				route.Committed(ctx, change, writes)
			}
			return true, nil
		}

		if store.IsPermanent(err) || ctx.Err() != nil || attempt >= d.maxAttempts {
			d.metrics.IncrementRun(route.Name, "failed")
			d.logger.Error("handler failed",
				slog.String(logger.KeyHandler, route.Name),
				slog.String(logger.KeyPath, change.Path),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()))
			return false, fmt.Errorf("%s %s: %w", route.Name, change.Path, err)
		}

		d.metrics.IncrementRun(route.Name, "retry")

		// A concurrent writer moved the documents; the next plan reads the new state.
		if store.IsTransient(err) {
			d.logger.Debug("handler raced a concurrent write, re-planning",
				slog.String(logger.KeyHandler, route.Name),
				slog.String(logger.KeyPath, change.Path),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			continue
		}

		d.logger.Warn("handler attempt failed, retrying",
			slog.String(logger.KeyHandler, route.Name),
			slog.String(logger.KeyPath, change.Path),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false, ctx.Err()
		}
		backoff *= 2
	}
}

// commit applies a plan in one batch, or for a splitting route in consecutive
// batches of at most store.MaxBatchWrites.
func (d *Dispatcher) commit(ctx context.Context, route *Route, writes []store.Write) error {
	if !route.Split || len(writes) <= store.MaxBatchWrites {
		return d.store.Commit(ctx, writes...)
	}
	for _, batch := range gather.Chunk(writes, store.MaxBatchWrites) {
		if err := d.store.Commit(ctx, batch...); err != nil {
			return err
		}
	}
	return nil
}

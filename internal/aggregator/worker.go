package aggregator

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrWorkerClosed is returned for requests made after Close.
var ErrWorkerClosed = errors.New("refresh worker closed")

// RefreshFunc produces one complete dashboard.
type RefreshFunc func(ctx context.Context) Dashboard

// Worker serialises refreshes onto a single background goroutine. Each
// accepted request's callback fires exactly once, after every source of the
// refresh that served it has resolved. Requests that arrive while a refresh
// is queued share that refresh.
type Worker struct {
	refresh RefreshFunc
	logger  zerolog.Logger

	mu      sync.Mutex
	pending []func(Dashboard)
	closed  bool
	started bool

	signal chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

// NewWorker constructs a worker around refresh. Call Start before use.
func NewWorker(refresh RefreshFunc, logger zerolog.Logger) *Worker {
	return &Worker{
		refresh: refresh,
		logger:  logger.With().Str("component", "refresh_worker").Logger(),
		signal:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the background goroutine. It is a no-op after the first call.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	go w.loop(ctx)
}

// Request queues a refresh and reports whether it was accepted.
func (w *Worker) Request(fn func(Dashboard)) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.pending = append(w.pending, fn)
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
	return true
}

// RefreshNow queues a refresh and waits for its result.
func (w *Worker) RefreshNow(ctx context.Context) (Dashboard, error) {
	result := make(chan Dashboard, 1)
	if !w.Request(func(d Dashboard) { result <- d }) {
		return Dashboard{}, ErrWorkerClosed
	}
	select {
	case d := <-result:
		return d, nil
	case <-ctx.Done():
		return Dashboard{}, ctx.Err()
	}
}

// Close stops accepting requests, serves those already queued and waits for
// the goroutine to exit.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	started := w.started
	w.mu.Unlock()

	close(w.quit)
	if !started {
		w.drainUnstarted()
		close(w.done)
		return
	}
	<-w.done
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-w.signal:
			w.runBatch(ctx)
		case <-w.quit:
			w.runBatch(ctx)
			return
		case <-ctx.Done():
			w.mu.Lock()
			w.closed = true
			w.mu.Unlock()
			w.runBatch(ctx)
			return
		}
	}
}

func (w *Worker) runBatch(ctx context.Context) {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	d := w.refresh(ctx)
	w.logger.Debug().Int("callbacks", len(batch)).Msg("delivering refresh")
	for _, fn := range batch {
		if fn != nil {
			fn(d)
		}
	}
}

// drainUnstarted serves requests queued on a worker that never started.
func (w *Worker) drainUnstarted() {
	w.runBatch(context.Background())
}

package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/simnova/sharethrift/internal/api/metrics"
	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes domain events to a fixed set of workers using consistent
// hashing on the aggregate id, so events raised by one aggregate are processed
// in the order they were published.
type Dispatcher struct {
	workers []chan domain.Event
	service ports.EventService
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

var _ ports.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.EventService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Event, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, channelBuffer)
	}
	return d
}

// Run starts the workers and blocks until ctx is cancelled and every worker
// has drained its channel.
func (d *Dispatcher) Run(ctx context.Context) error {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
	<-ctx.Done()

	d.mu.Lock()
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

// Publish enqueues events on the worker responsible for each aggregate. It
// blocks when that worker's buffer is full. Events published after shutdown
// are dropped with a warning.
func (d *Dispatcher) Publish(ctx context.Context, events []domain.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, ev := range events {
		if d.stopped {
			d.log.Warn().Str("event", ev.Name).Str("aggregate_id", ev.AggregateID).Msg("dispatcher stopped, event dropped")
			continue
		}
		idx := d.shardIndex(ev.AggregateID)
		select {
		case d.workers[idx] <- ev:
			metrics.DomainEventsPublishedTotal.WithLabelValues(ev.Name).Inc()
			metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		case <-ctx.Done():
			d.log.Warn().Err(ctx.Err()).Str("event", ev.Name).Str("aggregate_id", ev.AggregateID).Msg("publish cancelled, event dropped")
			return
		}
	}
}

// shardIndex maps an aggregate id deterministically to a worker index.
func (d *Dispatcher) shardIndex(aggregateID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(aggregateID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	// Reactions outlive the request that published the event; they run on a
	// context that is not cancelled by shutdown so the buffer can drain.
	procCtx := context.WithoutCancel(ctx)

	for event := range ch {
		metrics.EventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

		start := time.Now()
		err := d.service.Process(procCtx, event)
		status := "ok"
		if err != nil {
			status = "error"
			metrics.EventsErrorsTotal.WithLabelValues(errorReason(err)).Inc()
			d.log.Error().Err(err).
				Str("event", event.Name).
				Str("aggregate_id", event.AggregateID).
				Int("worker_id", id).
				Msg("event processing failed")
		} else {
			metrics.EventsProcessedTotal.WithLabelValues(event.Name).Inc()
		}
		metrics.EventProcessingDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, domain.ErrInvariantViolation), errors.Is(err, domain.ErrPermissionDenied), errors.Is(err, domain.ErrInvalidTransition):
		return "invariant"
	default:
		return "internal"
	}
}

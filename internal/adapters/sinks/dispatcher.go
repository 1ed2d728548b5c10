// Package sinks delivers scored predictions to persistence and event consumers
// off the request path.
package sinks

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/ports"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned by Record when the record was dropped.
var ErrQueueFull = errors.New("sink queue full")

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("sink dispatcher closed")

// Named labels a downstream sink in logs and metrics.
type Named struct {
	Name string
	Sink ports.PredictionSink
}

// Dispatcher queues records and writes each one to every downstream sink from a fixed
// set of workers. Record never blocks; a full queue drops the record.
type Dispatcher struct {
	sinks        []Named
	queue        chan domain.PredictionRecord
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(queueSize, workers int, writeTimeout time.Duration, sinks ...Named) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		sinks:        sinks,
		queue:        make(chan domain.PredictionRecord, queueSize),
		writeTimeout: writeTimeout,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d
}

func (d *Dispatcher) Record(ctx context.Context, rec domain.PredictionRecord) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}

	select {
	case d.queue <- rec:
		return nil
	default:
		obs.SinkDropped.Inc()
		slog.WarnContext(ctx, "prediction dropped", "id", rec.ID, "queue", cap(d.queue))
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for rec := range d.queue {
		d.write(rec)
	}
}

func (d *Dispatcher) write(rec domain.PredictionRecord) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
		err := s.Sink.Record(ctx, rec)
		cancel()

		if err != nil {
			obs.SinkWrites.WithLabelValues(s.Name, "error").Inc()
			slog.Error("sink write failed", "sink", s.Name, "id", rec.ID, "err", err)
			continue
		}
		obs.SinkWrites.WithLabelValues(s.Name, "ok").Inc()
	}
}

// Close stops accepting records and waits for queued ones to be written or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

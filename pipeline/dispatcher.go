package pipeline

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
)

// Dispatcher runs ingest runs off the caller's goroutine so retrieval
// traffic is not starved by a long-running ingest. The pool size of one
// matches the single-flight guard on Pipeline; extra submissions queue.
type Dispatcher struct {
	pipeline *Pipeline
	pool     *ants.Pool
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the pipeline.
func NewDispatcher(p *Pipeline, logger *slog.Logger) (*Dispatcher, error) {
	if p == nil {
		return nil, ErrNilPipeline
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(1, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		pipeline: p,
		pool:     pool,
		logger:   logger.With("component", "ingest-dispatcher"),
	}, nil
}

// Submit schedules an ingest run and returns immediately. The run's outcome
// is logged, not returned.
func (d *Dispatcher) Submit(ctx context.Context, opts RunOptions) error {
	return d.pool.Submit(func() {
		stats, err := d.pipeline.Run(ctx, opts)
		if err != nil {
			d.logger.Error("background ingest failed", "err", err)
			return
		}
		d.logger.Info("background ingest complete",
			"inserted", stats.Inserted, "indexed", stats.Index.Added)
	})
}

// Close waits for queued runs to finish and releases the pool.
func (d *Dispatcher) Close() {
	d.pool.Release()
}

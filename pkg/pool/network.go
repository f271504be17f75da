package pool

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/docfetch/pkg/document"
	"github.com/Sternrassler/docfetch/pkg/fetch"
	"github.com/Sternrassler/docfetch/pkg/logging"
	"github.com/Sternrassler/docfetch/pkg/ratelimit"
	"github.com/Sternrassler/docfetch/pkg/storage"
	"github.com/rs/zerolog"
)

// NetworkConfig configures a NetworkPool.
type NetworkConfig struct {
	// Workers is the number of concurrent fetches (default 100).
	Workers int

	// Admitter gates every fetch. Shared by all workers.
	Admitter ratelimit.Admitter

	Fetcher fetch.Fetcher
	Store   storage.Store

	// Conversions receives tasks with Convert set. It must be buffered for
	// every convert task submitted, so a worker never blocks on hand-off.
	Conversions chan<- *document.Task

	Logger zerolog.Logger
}

// NetworkPool fetches tasks under the rate limiter and either writes them or
// hands them to the conversion pool.
type NetworkPool struct {
	config NetworkConfig
	queue  chan *document.Task
	wg     sync.WaitGroup
}

// NewNetworkPool creates a network pool. Call Start before Submit.
func NewNetworkPool(cfg NetworkConfig) *NetworkPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 100
	}
	return &NetworkPool{config: cfg}
}

// Start sizes the queue for n tasks and launches the workers. No more
// workers than tasks are started.
func (p *NetworkPool) Start(ctx context.Context, n int) {
	p.queue = make(chan *document.Task, n)

	workers := p.config.Workers
	if n < workers {
		workers = n
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.config.Logger.Debug().
		Str("pool", NameNetwork).
		Int("workers", workers).
		Int("tasks", n).
		Msg("Pool started")
}

// Submit queues a task for fetching.
func (p *NetworkPool) Submit(task *document.Task) {
	p.queue <- task
}

// Close signals that no more tasks will be submitted.
func (p *NetworkPool) Close() {
	close(p.queue)
}

// Wait blocks until every worker has drained the queue and exited.
func (p *NetworkPool) Wait() {
	p.wg.Wait()
}

func (p *NetworkPool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	logger := logging.ForWorker(p.config.Logger, NameNetwork, workerID)
	processed := 0

	for task := range p.queue {
		busyWorkers.WithLabelValues(NameNetwork).Inc()
		p.process(ctx, task, logger)
		busyWorkers.WithLabelValues(NameNetwork).Dec()
		processed++
	}

	if processed > 0 {
		logger.Debug().
			Int("tasks_processed", processed).
			Msg("Worker completed")
	}
}

func (p *NetworkPool) process(ctx context.Context, task *document.Task, logger zerolog.Logger) {
	task.Enter(document.StageFetching)

	if err := p.config.Admitter.Admit(ctx); err != nil {
		fail(task, document.KindFetch, err, NameNetwork)
		logger.Debug().
			Err(err).
			Str("source", task.Source).
			Msg("Admission aborted")
		return
	}

	start := time.Now()
	data, err := p.config.Fetcher.Fetch(ctx, task.Source)
	if err != nil {
		fail(task, document.KindFetch, err, NameNetwork)
		logger.Warn().
			Err(err).
			Str("source", task.Source).
			Str("destination", task.Destination).
			Msg("Fetch failed")
		return
	}
	task.RawBytes = data

	logger.Debug().
		Str("source", task.Source).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Fetched")

	if task.Convert {
		task.Enter(document.StageConverting)
		tasksTotal.WithLabelValues(NameNetwork, "handed_off").Inc()
		p.config.Conversions <- task
		return
	}

	task.FinalBytes = task.RawBytes
	write(ctx, p.config.Store, task, NameNetwork, logger)
}

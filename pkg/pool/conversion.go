package pool

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/docfetch/pkg/document"
	"github.com/Sternrassler/docfetch/pkg/logging"
	"github.com/Sternrassler/docfetch/pkg/render"
	"github.com/Sternrassler/docfetch/pkg/storage"
	"github.com/rs/zerolog"
)

// ConversionConfig configures a ConversionPool.
type ConversionConfig struct {
	// Workers is the number of concurrent conversions (default 1).
	Workers int

	Renderer render.Renderer
	Settings render.Settings
	Store    storage.Store

	Logger zerolog.Logger
}

// ConversionPool renders fetched tasks and writes the result.
type ConversionPool struct {
	config ConversionConfig
	queue  chan *document.Task
	wg     sync.WaitGroup
}

// NewConversionPool creates a conversion pool. Call Start before handing
// tasks to Queue.
func NewConversionPool(cfg ConversionConfig) *ConversionPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &ConversionPool{config: cfg}
}

// Start sizes the queue for n tasks and launches the workers.
func (p *ConversionPool) Start(ctx context.Context, n int) {
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
		Str("pool", NameConversion).
		Int("workers", workers).
		Int("tasks", n).
		Msg("Pool started")
}

// Queue returns the channel network workers send fetched tasks on.
func (p *ConversionPool) Queue() chan<- *document.Task {
	return p.queue
}

// Close signals that no more tasks will be handed off. Call it only after
// every producer has stopped.
func (p *ConversionPool) Close() {
	close(p.queue)
}

// Wait blocks until every worker has drained the queue and exited.
func (p *ConversionPool) Wait() {
	p.wg.Wait()
}

func (p *ConversionPool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	logger := logging.ForWorker(p.config.Logger, NameConversion, workerID)
	processed := 0

	for task := range p.queue {
		busyWorkers.WithLabelValues(NameConversion).Inc()
		p.process(ctx, task, logger)
		busyWorkers.WithLabelValues(NameConversion).Dec()
		processed++
	}

	if processed > 0 {
		logger.Debug().
			Int("tasks_processed", processed).
			Msg("Worker completed")
	}
}

func (p *ConversionPool) process(ctx context.Context, task *document.Task, logger zerolog.Logger) {
	task.Enter(document.StageConverting)

	start := time.Now()
	pdf, err := p.config.Renderer.Render(ctx, task.RawBytes, p.config.Settings)
	if err != nil {
		fail(task, document.KindRender, err, NameConversion)
		logger.Warn().
			Err(err).
			Str("source", task.Source).
			Str("destination", task.Destination).
			Msg("Render failed")
		return
	}
	task.FinalBytes = pdf

	logger.Debug().
		Str("destination", task.Destination).
		Int("bytes", len(pdf)).
		Dur("duration", time.Since(start)).
		Msg("Rendered")

	write(ctx, p.config.Store, task, NameConversion, logger)
}

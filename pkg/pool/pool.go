// Package pool runs the two worker sets of a batch: network workers that
// fetch under the rate limiter, and conversion workers that render.
//
// The pools are sized independently so slow conversions never hold up
// fetching and many waiting fetches never crowd out conversions. A network
// worker hands a task to the conversion pool by sending it on the pool's
// queue. Both pools live for one batch: Start, submit, Close, Wait.
package pool

import (
	"context"

	"github.com/Sternrassler/docfetch/pkg/document"
	"github.com/Sternrassler/docfetch/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Pool names used as metric labels.
const (
	NameNetwork    = "network"
	NameConversion = "conversion"
)

// Prometheus metrics for worker pools.
var (
	busyWorkers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "docfetch_pool_busy_workers",
		Help: "Number of workers currently processing a task by pool",
	}, []string{"pool"})

	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_pool_tasks_total",
		Help: "Total tasks processed by pool and result (written, failed, handed_off)",
	}, []string{"pool", "result"})
)

// write stores task.FinalBytes and records the terminal outcome.
func write(ctx context.Context, store storage.Store, task *document.Task, pool string, logger zerolog.Logger) {
	if err := store.Write(ctx, task.Destination, task.FinalBytes); err != nil {
		task.Fail(document.KindWrite, err)
		tasksTotal.WithLabelValues(pool, "failed").Inc()
		logger.Warn().
			Err(err).
			Str("destination", task.Destination).
			Msg("Write failed")
		return
	}

	task.Written()
	tasksTotal.WithLabelValues(pool, "written").Inc()
}

func fail(task *document.Task, kind document.FailureKind, err error, pool string) {
	task.Fail(kind, err)
	tasksTotal.WithLabelValues(pool, "failed").Inc()
}

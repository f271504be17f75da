// Package storage persists final document bytes and answers whether a
// destination is already materialized.
package storage

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for storage operations.
var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_storage_writes_total",
		Help: "Total destination writes by backend and result",
	}, []string{"backend", "result"})

	bytesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfetch_storage_bytes_written_total",
		Help: "Total bytes committed to storage by backend",
	}, []string{"backend"})
)

// Store is where documents end up.
//
// Write must be atomic: after a failed Write the destination either does
// not exist or still holds its previous content.
type Store interface {
	Exists(ctx context.Context, dest string) (bool, error)
	Write(ctx context.Context, dest string, data []byte) error
	Read(ctx context.Context, dest string) ([]byte, error)
}

func observeWrite(backend string, n int, err error) {
	if err != nil {
		writesTotal.WithLabelValues(backend, "error").Inc()
		return
	}
	writesTotal.WithLabelValues(backend, "success").Inc()
	bytesWritten.WithLabelValues(backend).Add(float64(n))
}

// Package metrics exports allocator activity as Prometheus metrics. A
// Recorder is an alloc.Observer: attach it to root allocators with
// alloc.WithObserver.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joshuapare/zerobuf/alloc"
)

// Recorder counts allocation decisions and compactions.
type Recorder struct {
	allocations     *prometheus.CounterVec
	allocatedBytes  prometheus.Counter
	compactions     prometheus.Counter
	reclaimedBytes  prometheus.Counter
	bufferSizeBytes prometheus.Histogram
}

// NewRecorder registers the metrics with reg. A nil reg uses the default
// registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		allocations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zerobuf_allocations_total",
				Help: "Total number of dynamic field updates by allocation path",
			},
			[]string{"path"},
		),
		allocatedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "zerobuf_allocated_bytes_total",
			Help: "Total bytes requested by growing dynamic field updates",
		}),
		compactions: f.NewCounter(prometheus.CounterOpts{
			Name: "zerobuf_compactions_total",
			Help: "Total number of compactions that rewrote a buffer",
		}),
		reclaimedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "zerobuf_compaction_reclaimed_bytes_total",
			Help: "Total bytes released by compaction",
		}),
		bufferSizeBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "zerobuf_buffer_size_bytes",
			Help:    "Buffer size after each dynamic field update",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		}),
	}
}

// OnAllocation implements alloc.Observer.
func (r *Recorder) OnAllocation(ev alloc.Event) {
	r.allocations.WithLabelValues(ev.Path.String()).Inc()
	if ev.NewSize > ev.OldSize {
		r.allocatedBytes.Add(float64(ev.NewSize - ev.OldSize))
	}
	r.bufferSizeBytes.Observe(float64(ev.BufferSize))
}

// OnCompact implements alloc.Observer.
func (r *Recorder) OnCompact(before, after int) {
	r.compactions.Inc()
	r.reclaimedBytes.Add(float64(before - after))
}

var _ alloc.Observer = (*Recorder)(nil)

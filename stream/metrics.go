package stream

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeChunk     = "chunk"
	outcomeDone      = "done"
	outcomeTransport = "transport"
	outcomeTimeout   = "timeout"

	failureTimeout   = "timeout"
	failureTransport = "transport"
)

// Metrics collects reader statistics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Chunks       prometheus.Counter
	Bytes        prometheus.Counter
	Failures     *prometheus.CounterVec
	ReadDuration prometheus.ObserverVec
}

// NewMetrics creates reader metrics and registers them with reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamtail_chunks_total",
			Help: "Number of chunks decoded and delivered to a sink",
		}),
		Bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamtail_bytes_total",
			Help: "Number of raw bytes read from stream sources",
		}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamtail_read_failures_total",
			Help: "Number of read loops terminated by a failure",
		}, []string{"kind"}),
		ReadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "streamtail_read_duration_seconds",
			Help: "Time a single read took to settle",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.Chunks, m.Bytes, m.Failures, m.ReadDuration)
	}
	return m
}

func (m *Metrics) observeRead(outcome string, d time.Duration) {
	if m == nil || m.ReadDuration == nil {
		return
	}
	m.ReadDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) chunk(size int) {
	if m == nil {
		return
	}
	if m.Chunks != nil {
		m.Chunks.Inc()
	}
	if m.Bytes != nil {
		m.Bytes.Add(float64(size))
	}
}

func (m *Metrics) failure(err error) {
	if m == nil || m.Failures == nil {
		return
	}
	kind := failureTransport
	if IsTimeout(err) {
		kind = failureTimeout
	}
	m.Failures.WithLabelValues(kind).Inc()
}

package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for gateway operations.
type Observer interface {
	RecordUpload(duration time.Duration, sizeBytes int, failed bool)
	RecordDelete(duration time.Duration, failed bool)
	RecordList(duration time.Duration, failed bool)
}

// PrometheusObserver exports gateway metrics to Prometheus.
type PrometheusObserver struct {
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	uploadBytes prometheus.Counter
}

// NewPrometheusObserver registers upload/delete/list metrics.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "image_gateway"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency for gateway operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of gateway failures.",
		}, []string{"operation"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size successfully uploaded to object storage.",
		}),
	}

	register := func(c prometheus.Collector) (prometheus.Collector, error) {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				return are.ExistingCollector, nil
			}
			return nil, fmt.Errorf("register gateway metric: %w", err)
		}
		return c, nil
	}

	c, err := register(o.duration)
	if err != nil {
		return nil, err
	}
	o.duration = c.(*prometheus.HistogramVec)
	if c, err = register(o.errors); err != nil {
		return nil, err
	}
	o.errors = c.(*prometheus.CounterVec)
	if c, err = register(o.uploadBytes); err != nil {
		return nil, err
	}
	o.uploadBytes = c.(prometheus.Counter)
	return o, nil
}

// RecordUpload tracks upload duration, size, and failures.
func (o *PrometheusObserver) RecordUpload(duration time.Duration, sizeBytes int, failed bool) {
	o.record("upload", duration, failed)
	if !failed {
		o.uploadBytes.Add(float64(sizeBytes))
	}
}

func (o *PrometheusObserver) RecordDelete(duration time.Duration, failed bool) {
	o.record("delete", duration, failed)
}

func (o *PrometheusObserver) RecordList(duration time.Duration, failed bool) {
	o.record("list", duration, failed)
}

func (o *PrometheusObserver) record(op string, duration time.Duration, failed bool) {
	o.duration.WithLabelValues(op).Observe(duration.Seconds())
	if failed {
		o.errors.WithLabelValues(op).Inc()
	}
}

type nopObserver struct{}

func (nopObserver) RecordUpload(time.Duration, int, bool) {}

func (nopObserver) RecordDelete(time.Duration, bool) {}

func (nopObserver) RecordList(time.Duration, bool) {}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spmhost"

// Collector holds the server's Prometheus metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	Uploads        *prometheus.CounterVec
	Downloads      *prometheus.CounterVec
	UploadedBytes  prometheus.Counter
	EvictedFiles   prometheus.Counter
	EvictedBytes   prometheus.Counter
	EvictionErrors prometheus.Counter
	ArtifactsBytes prometheus.Gauge
}

// New creates a Collector and registers its metrics along with the Go runtime collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload requests by outcome",
		}, []string{"status"}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Download requests by outcome",
		}, []string{"status"}),
		UploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes written by successful uploads",
		}),
		EvictedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_files_total",
			Help:      "Artifacts deleted by the size limit",
		}),
		EvictedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evicted_bytes_total",
			Help:      "Bytes freed by the size limit",
		}),
		EvictionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eviction_errors_total",
			Help:      "Artifacts that could not be deleted during eviction",
		}),
		ArtifactsBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifacts_bytes",
			Help:      "Aggregate size of the artifacts directory at the last measurement",
		}),
	}

	reg.MustRegister(
		c.Uploads,
		c.Downloads,
		c.UploadedBytes,
		c.EvictedFiles,
		c.EvictedBytes,
		c.EvictionErrors,
		c.ArtifactsBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveUpload records an upload outcome ("ok", "bad_request", "error").
func (c *Collector) ObserveUpload(status string, size int64) {
	c.Uploads.WithLabelValues(status).Inc()
	if size > 0 {
		c.UploadedBytes.Add(float64(size))
	}
}

// ObserveDownload records a download outcome ("ok", "not_found", "error").
func (c *Collector) ObserveDownload(status string) {
	c.Downloads.WithLabelValues(status).Inc()
}

// ObserveEviction records the outcome of one eviction pass.
func (c *Collector) ObserveEviction(deletedFiles int, freedBytes int64, failed int, remainingBytes int64) {
	c.EvictedFiles.Add(float64(deletedFiles))
	c.EvictedBytes.Add(float64(freedBytes))
	c.EvictionErrors.Add(float64(failed))
	c.ArtifactsBytes.Set(float64(remainingBytes))
}

// SetArtifactsBytes records the current aggregate size.
func (c *Collector) SetArtifactsBytes(total int64) {
	c.ArtifactsBytes.Set(float64(total))
}

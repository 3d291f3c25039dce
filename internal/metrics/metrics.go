package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "unitedatom"

// scanDurationBuckets covers single-bead test scans up to multi-hour
// protein maps.
var scanDurationBuckets = []float64{1, 5, 15, 60, 300, 900, 3600, 14400}

// Recorder collects run counters in its own registry. It satisfies the
// scanner's Observer interface and is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	binsComputed   prometheus.Counter
	degenerate     prometheus.Counter
	nonFinite      prometheus.Counter
	scansCompleted *prometheus.CounterVec
	scansSkipped   prometheus.Counter
	scanDuration   *prometheus.HistogramVec
}

// New creates a Recorder with every collector registered.
func New() (*Recorder, error) {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.binsComputed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bins_computed_total",
		Help:      "Total number of orientation bins computed.",
	})
	r.degenerate = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "degenerate_integrals_total",
		Help:      "Total number of free-energy integrals that fell back to the safe value.",
	})
	r.nonFinite = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "nonfinite_potentials_total",
		Help:      "Total number of potential evaluations that returned NaN or Inf.",
	})
	r.scansCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_completed_total",
		Help:      "Total number of orientation maps written.",
	}, []string{"shape"})
	r.scansSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_skipped_total",
		Help:      "Total number of scans skipped because their map already existed.",
	})
	r.scanDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Wall-clock time taken by a full orientation scan.",
		Buckets:   scanDurationBuckets,
	}, []string{"shape"})

	collectors := []prometheus.Collector{
		r.binsComputed,
		r.degenerate,
		r.nonFinite,
		r.scansCompleted,
		r.scansSkipped,
		r.scanDuration,
	}
	for _, c := range collectors {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return r, nil
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveBin counts one computed orientation bin.
func (r *Recorder) ObserveBin() { r.binsComputed.Inc() }

// ObserveDegenerate counts one degenerate free-energy integral.
func (r *Recorder) ObserveDegenerate() { r.degenerate.Inc() }

// ObserveNonFinite counts one NaN or Inf potential value.
func (r *Recorder) ObserveNonFinite() { r.nonFinite.Inc() }

// ScanCompleted records a written map and how long its scan took.
func (r *Recorder) ScanCompleted(shape string, elapsed time.Duration) {
	r.scansCompleted.WithLabelValues(shape).Inc()
	r.scanDuration.WithLabelValues(shape).Observe(elapsed.Seconds())
}

// ScanSkipped records a scan whose output already existed.
func (r *Recorder) ScanSkipped() { r.scansSkipped.Inc() }

// WriteTextfile writes the current values in the Prometheus text format to
// path, for collection by the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

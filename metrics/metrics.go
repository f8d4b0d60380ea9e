package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vcnkl/rexec/models"
)

const Namespace = "rexec"

// Recorder owns a private registry for one run, so repeated runs in watch
// mode start from zero.
type Recorder struct {
	registry *prometheus.Registry
	backend  string
	command  string

	targetsTotal   *prometheus.CounterVec
	resultsTotal   *prometheus.CounterVec
	targetDuration *prometheus.HistogramVec
	runDuration    *prometheus.GaugeVec
}

func NewRecorder(backend, command string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		backend:  backend,
		command:  command,
		targetsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "targets_total",
			Help:      "Number of targets dispatched",
		}, []string{"backend", "command"}),
		resultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "target_results_total",
			Help:      "Target results by outcome",
		}, []string{"backend", "command", "result"}),
		targetDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "target_duration_seconds",
			Help:      "Wall time of a single target invocation",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"backend", "command"}),
		runDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the whole run",
		}, []string{"backend", "command"}),
	}
}

// Observe is safe for concurrent use.
func (r *Recorder) Observe(result models.TargetResult) {
	r.targetsTotal.WithLabelValues(r.backend, r.command).Inc()
	r.resultsTotal.WithLabelValues(r.backend, r.command, result.Outcome()).Inc()
	r.targetDuration.WithLabelValues(r.backend, r.command).Observe(result.Duration.Seconds())
}

func (r *Recorder) SetRunDuration(d time.Duration) {
	r.runDuration.WithLabelValues(r.backend, r.command).Set(d.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the registry in the text exposition format, in the
// layout node_exporter's textfile collector expects.
func (r *Recorder) WriteTextfile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// Package metrics defines the counters/histograms the orchestrator emits,
// behind a Recorder interface so internal/judge never imports prometheus
// directly — the same indirection the teacher uses for its Redis client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the minimal interface the orchestrator needs.
type Recorder interface {
	CaseJudged(verdict string)
	SubmissionDuration(d time.Duration)
	CompileDuration(d time.Duration)
}

// PrometheusRecorder implements Recorder with registered Prometheus metrics.
type PrometheusRecorder struct {
	casesTotal      *prometheus.CounterVec
	submissionDur   prometheus.Histogram
	compileDur      prometheus.Histogram
}

// NewPrometheusRecorder creates and registers the judging metrics.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		casesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "judge_cases_total",
				Help: "Total number of cases judged, by verdict",
			},
			[]string{"verdict"},
		),
		submissionDur: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "judge_duration_seconds",
				Help:    "Wall-clock duration of one submission's full judging run",
				Buckets: prometheus.DefBuckets,
			},
		),
		compileDur: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "judge_compile_duration_seconds",
				Help:    "Duration of the compile step",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

func (r *PrometheusRecorder) CaseJudged(verdict string) {
	r.casesTotal.WithLabelValues(verdict).Inc()
}

func (r *PrometheusRecorder) SubmissionDuration(d time.Duration) {
	r.submissionDur.Observe(d.Seconds())
}

func (r *PrometheusRecorder) CompileDuration(d time.Duration) {
	r.compileDur.Observe(d.Seconds())
}

// NoopRecorder discards all metrics; used in tests so assertions don't
// depend on a live Prometheus registry.
type NoopRecorder struct{}

func (NoopRecorder) CaseJudged(string)               {}
func (NoopRecorder) SubmissionDuration(time.Duration) {}
func (NoopRecorder) CompileDuration(time.Duration)    {}

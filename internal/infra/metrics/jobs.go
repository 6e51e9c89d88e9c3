package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobRunsTotal, jobDuration)
}

var (
	jobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "background_job_runs_total",
			Help: "Background job runs by job name and result (ok/error).",
		},
		[]string{"job", "result"},
	)

	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "background_job_duration_seconds",
			Help:    "Background job run duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

func ObserveJobRun(job string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	jobRunsTotal.WithLabelValues(norm(job), result).Inc()
	jobDuration.WithLabelValues(norm(job)).Observe(seconds)
}

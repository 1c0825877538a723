package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronMetrics tracks retention sweeps run by the cron worker.
type CronMetrics struct {
	duration    *prometheus.HistogramVec
	rows        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

func NewCronMetrics(reg prometheus.Registerer) *CronMetrics {
	if reg == nil {
		return nil
	}
	m := &CronMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gearhub_cron_job_duration_seconds",
			Help:    "Cron job run time by outcome.",
			Buckets: []float64{0.05, 0.25, 1, 5, 30, 120, 600},
		}, []string{"job", "outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gearhub_cron_rows_deleted_total",
			Help: "Rows removed by retention jobs.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gearhub_cron_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per job.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.duration, m.rows, m.lastSuccess)
	return m
}

// ObserveRun records one job run. Safe on a nil receiver.
func (m *CronMetrics) ObserveRun(job string, took time.Duration, rows int64, ok bool) {
	if m == nil {
		return
	}
	job = normalizeLabel(job)
	outcome := "error"
	if ok {
		outcome = "ok"
		m.lastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
	m.duration.WithLabelValues(job, outcome).Observe(took.Seconds())
	if rows > 0 {
		m.rows.WithLabelValues(job).Add(float64(rows))
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// Package metrics exposes Prometheus instruments for the sync and
// notification subsystems.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SyncRuns        *prometheus.CounterVec
	StudentsSynced  prometheus.Counter
	StudentsSkipped prometheus.Counter
	StudentsFailed  prometheus.Counter
	SyncDuration    prometheus.Histogram
	RemindersSent   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		SyncRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cfroster_sync_runs_total",
			Help: "Completed sync runs by final status.",
		}, []string{"status"}),
		StudentsSynced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cfroster_students_synced_total",
			Help: "Students whose profile was upserted from the source.",
		}),
		StudentsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cfroster_students_skipped_total",
			Help: "Students absent from the source response.",
		}),
		StudentsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cfroster_students_failed_total",
			Help: "Students that failed during a sync run.",
		}),
		SyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cfroster_sync_duration_seconds",
			Help:    "Wall-clock duration of completed sync runs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cfroster_inactivity_reminders_sent_total",
			Help: "Inactivity reminder emails dispatched.",
		}),
	}
}

// Observe folds one finished run into the counters.
func (m *Metrics) Observe(status string, synced, skipped, failed int, seconds float64) {
	if m == nil {
		return
	}
	m.SyncRuns.WithLabelValues(status).Inc()
	m.StudentsSynced.Add(float64(synced))
	m.StudentsSkipped.Add(float64(skipped))
	m.StudentsFailed.Add(float64(failed))
	m.SyncDuration.Observe(seconds)
}

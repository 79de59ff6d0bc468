package reminder

import (
	"errors"
	"fmt"
	"time"

	"github.com/osr-alliance/backend-lib-leadflow/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports reminder outcomes to prometheus; a nil *Metrics records nothing
type Metrics struct {
	sent     *prometheus.CounterVec
	failed   *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{}
	var err error

	m.sent, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leadflow",
		Name:      "reminders_sent_total",
		Help:      "Reminders accepted by the mail provider.",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}

	m.failed, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leadflow",
		Name:      "reminders_failed_total",
		Help:      "Reminders that failed to send or whose sent flag failed to save.",
	}, []string{"kind", "stage"}))
	if err != nil {
		return nil, err
	}

	m.skipped, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leadflow",
		Name:      "reminders_skipped_total",
		Help:      "Reminders skipped for a missing or malformed recipient or a dry run.",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}

	m.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leadflow",
		Name:      "reminder_runs_total",
		Help:      "Reminder runs by final status.",
	}, []string{"status"}))
	if err != nil {
		return nil, err
	}

	m.duration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "leadflow",
		Name:      "reminder_run_duration_seconds",
		Help:      "Wall time of a reminder run.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	}))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// register returns the collector already registered under the same name so two schedulers can share a registry
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("register reminder metric: %w", err)
}

func (m *Metrics) record(kind store.ReminderKind, o outcome) {
	if m == nil {
		return
	}
	k := string(kind)
	switch o {
	case outcomeSent:
		m.sent.WithLabelValues(k).Inc()
	case outcomeSendFailed:
		m.failed.WithLabelValues(k, "send").Inc()
	case outcomeFlagFailed:
		m.sent.WithLabelValues(k).Inc()
		m.failed.WithLabelValues(k, "flag").Inc()
	case outcomeSkipped:
		m.skipped.WithLabelValues(k).Inc()
	}
}

func (m *Metrics) recordRun(status Status, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(status)).Inc()
	m.duration.Observe(d.Seconds())
}

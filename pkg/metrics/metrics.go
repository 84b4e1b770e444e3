// Package metrics Prometheus-метрики сервиса
package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "scheduling"

// Metrics набор метрик сервиса. Все методы безопасны для nil-получателя,
// поэтому компоненты могут работать с выключенными метриками.
type Metrics struct {
	registerer prometheus.Registerer

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	validations  *prometheus.CounterVec
	conflicts    *prometheus.CounterVec
	commits      *prometheus.CounterVec
}

// New создает и регистрирует метрики. Если reg == nil, используется DefaultRegisterer.
func New(serviceName string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registerer: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total HTTP requests by method, route and status code",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request latency",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "validator",
			Name:        "validations_total",
			Help:        "Appointment validations by outcome (valid, invalid, error)",
			ConstLabels: constLabels,
		}, []string{"result"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "validator",
			Name:        "conflicts_total",
			Help:        "Conflicts emitted by the validator by conflict type",
			ConstLabels: constLabels,
		}, []string{"type"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "appointments",
			Name:        "commits_total",
			Help:        "Appointment commit attempts by outcome",
			ConstLabels: constLabels,
		}, []string{"result"}),
	}

	reg.MustRegister(m.httpRequests, m.httpDuration, m.validations, m.conflicts, m.commits)
	return m
}

// RegisterDBStats регистрирует коллектор статистики пула соединений
func (m *Metrics) RegisterDBStats(db *sql.DB, dbName string) {
	if m == nil || db == nil {
		return
	}
	m.registerer.MustRegister(collectors.NewDBStatsCollector(db, dbName))
}

// ObserveHTTPRequest учитывает HTTP-запрос
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveValidation учитывает результат валидации и все конфликты
func (m *Metrics) ObserveValidation(result string, conflictTypes []string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(result).Inc()
	for _, ct := range conflictTypes {
		m.conflicts.WithLabelValues(ct).Inc()
	}
}

// ObserveCommit учитывает попытку сохранения записи
func (m *Metrics) ObserveCommit(result string) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(result).Inc()
}

// Package metrics собирает метрики Prometheus бота и API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storageErrors   *prometheus.CounterVec
	migrated        prometheus.Counter
	saves           prometheus.Counter
	exports         *prometheus.CounterVec
	updates         *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smeta_http_requests_total",
			Help: "HTTP-запросы по маршруту и коду ответа.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smeta_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов по маршруту.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smeta_storage_errors_total",
			Help: "Ошибки хранилища по операции (read, parse, write, delete).",
		}, []string{"op"}),
		migrated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smeta_estimates_migrated_total",
			Help: "Сметы, обновлённые до текущей схемы при загрузке.",
		}),
		saves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smeta_estimate_saves_total",
			Help: "Сохранения смет.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smeta_exports_total",
			Help: "Экспорт смет по формату и результату.",
		}, []string{"format", "result"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smeta_bot_updates_total",
			Help: "Обновления Telegram по типу.",
		}, []string{"kind"}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration, m.storageErrors, m.migrated,
		m.saves, m.exports, m.updates,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler отдаёт /metrics; без метрик отвечает 503.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&rec, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// StorageError implements kv.ErrorCounter.
func (m *Metrics) StorageError(op string) {
	if m != nil {
		m.storageErrors.WithLabelValues(op).Inc()
	}
}

// EstimatesMigrated implements estimate.MigrationCounter.
func (m *Metrics) EstimatesMigrated(n int) {
	if m != nil && n > 0 {
		m.migrated.Add(float64(n))
	}
}

func (m *Metrics) EstimateSaved() {
	if m != nil {
		m.saves.Inc()
	}
}

func (m *Metrics) Export(format string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.exports.WithLabelValues(format, result).Inc()
}

func (m *Metrics) Update(kind string) {
	if m != nil {
		m.updates.WithLabelValues(kind).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unknown"
}

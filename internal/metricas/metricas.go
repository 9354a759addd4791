package metricas

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metricas reúne os coletores de um processo (API ou portal).
type Metricas struct {
	service  string
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	etapasTotal     *prometheus.CounterVec
	externoTotal    *prometheus.CounterVec
	externoDuration *prometheus.HistogramVec
}

func New(service string) *Metricas {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ofertas",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ofertas",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "ofertas",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	etapasTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ofertas",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Invoice intake stage outcomes.",
		},
		[]string{"service", "stage", "result"},
	)
	externoTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ofertas",
			Subsystem: "external",
			Name:      "calls_total",
			Help:      "Calls to OCR, matching and messaging gateway.",
		},
		[]string{"service", "target", "result"},
	)
	externoDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ofertas",
			Subsystem: "external",
			Name:      "call_duration_seconds",
			Help:      "External call duration in seconds.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "target"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		etapasTotal,
		externoTotal,
		externoDuration,
	)

	return &Metricas{
		service:         service,
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		etapasTotal:     etapasTotal,
		externoTotal:    externoTotal,
		externoDuration: externoDuration,
	}
}

// Handler expõe /metrics.
func (m *Metricas) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware usa o template da rota do mux como label para não explodir a cardinalidade.
func (m *Metricas) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := caminho(r)
		m.requestTotal.WithLabelValues(m.service, r.Method, path, strconv.Itoa(rec.statusCode)).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func caminho(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RegistrarEtapa conta o resultado de uma etapa do envio de fatura (upload, submit...).
func (m *Metricas) RegistrarEtapa(etapa string, err error) {
	if m == nil {
		return
	}
	m.etapasTotal.WithLabelValues(m.service, etapa, resultado(err)).Inc()
}

func (m *Metricas) RegistrarChamada(alvo string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.externoTotal.WithLabelValues(m.service, alvo, resultado(err)).Inc()
	m.externoDuration.WithLabelValues(m.service, alvo).Observe(d.Seconds())
}

func resultado(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	attemptsSubmitted prometheus.Counter
	answersScored     *prometheus.CounterVec
	answersDropped    prometheus.Counter
	rulesSkipped      *prometheus.CounterVec
	outcomes          *prometheus.CounterVec
	submitDuration    prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		attemptsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfeval_attempts_submitted_total",
			Help: "Survey attempts submitted and scored",
		}),
		answersScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "selfeval_answers_scored_total",
				Help: "Answers scored at submission, by answer type",
			},
			[]string{"answer_type"},
		),
		answersDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "selfeval_answers_dropped_total",
			Help: "Answers left out of aggregation because their association or question is gone",
		}),
		rulesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "selfeval_rules_skipped_total",
				Help: "Malformed threshold rules skipped during evaluation",
			},
			[]string{"family"},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "selfeval_outcomes_total",
				Help: "Course outcome categories assigned at submission",
			},
			[]string{"outcome"},
		),
		submitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "selfeval_submit_duration_seconds",
			Help:    "Time spent scoring and freezing an attempt",
			Buckets: prometheus.DefBuckets,
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.attemptsSubmitted,
		m.answersScored,
		m.answersDropped,
		m.rulesSkipped,
		m.outcomes,
		m.submitDuration,
	)
	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations labelled by route template
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		m.requests.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// ObserveSubmit records one submitted attempt
func (m *Metrics) ObserveSubmit(d time.Duration, dropped int) {
	if m == nil {
		return
	}
	m.attemptsSubmitted.Inc()
	m.submitDuration.Observe(d.Seconds())
	if dropped > 0 {
		m.answersDropped.Add(float64(dropped))
	}
}

// AnswerScored counts one scored answer of the given type
func (m *Metrics) AnswerScored(answerType string) {
	if m == nil {
		return
	}
	m.answersScored.WithLabelValues(answerType).Inc()
}

// RulesSkipped counts malformed rules of a family (question, association, survey)
func (m *Metrics) RulesSkipped(family string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rulesSkipped.WithLabelValues(family).Add(float64(n))
}

// Outcome counts an assigned outcome category
func (m *Metrics) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the middleware
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

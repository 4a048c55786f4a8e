/*
Package metrics Prometheus 指标。

每个进程持有一个独立的 Registry，避免测试间重复注册；/metrics 由 Handler 暴露。
*/
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sales-service/domain/shared"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	CommandsTotal        *prometheus.CounterVec
	EventsPublishedTotal *prometheus.CounterVec
	OutboxRelayedTotal   *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route"})

	m.HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "Number of HTTP requests currently being processed",
	})

	m.CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sale_commands_total",
		Help:      "Sale commands by outcome",
	}, []string{"command", "outcome"})

	m.EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "domain_events_published_total",
		Help:      "Domain events handed to the configured publisher",
	}, []string{"event_name", "status"})

	m.OutboxRelayedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_relayed_total",
		Help:      "Outbox events processed by the relay worker",
	}, []string{"event_name", "status"})

	m.CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.CommandsTotal,
		m.EventsPublishedTotal,
		m.OutboxRelayedTotal,
		m.CircuitBreakerState,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GinMiddleware 按路由模板统计，避免 /sales/:id 的基数爆炸
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveCommand 实现应用层的 CommandObserver
func (m *Metrics) ObserveCommand(command string, err error) {
	m.CommandsTotal.WithLabelValues(command, outcome(err)).Inc()
}

// ObserveEvent 记录一次事件发布
func (m *Metrics) ObserveEvent(eventName string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.EventsPublishedTotal.WithLabelValues(eventName, status).Inc()
}

// ObserveRelay 记录 outbox worker 的处理结果，status 为 PUBLISHED / PENDING / FAILED
func (m *Metrics) ObserveRelay(eventName string, status string) {
	m.OutboxRelayedTotal.WithLabelValues(eventName, status).Inc()
}

// ObserveBreaker 熔断器状态变化
func (m *Metrics) ObserveBreaker(name string, state gobreaker.State) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, shared.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrConflict):
		return "conflict"
	case errors.Is(err, shared.ErrBusinessRule):
		return "rejected"
	case errors.Is(err, shared.ErrPublishFailed):
		return "publish_failed"
	default:
		return "error"
	}
}

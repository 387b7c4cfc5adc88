// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes the Prometheus collectors of the API.

Collectors:

  - HTTP RED metrics: request count and latency per route pattern.
  - Gate decisions: how every request left the authentication gate.
  - Auth operations: register, login, refresh and logout outcomes.

All collectors live in the default registry and are served by [Handler].
*/
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/roster/internal/platform/apperr"
)

const namespace = "roster"

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path", "method", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"path", "method", "status"})

	// GateDecisions counts request gate outcomes by decision label.
	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "gate_decisions_total",
		Help:      "Request gate outcomes (anonymous, authenticated, renewed, rejected).",
	}, []string{"decision"})

	// AuthOperations counts auth service calls by operation and result code.
	AuthOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "operations_total",
		Help:      "Auth service operations by outcome.",
	}, []string{"operation", "result"})
)

// RecordGateDecision increments the gate decision counter.
func RecordGateDecision(decision string) {
	GateDecisions.WithLabelValues(decision).Inc()
}

// RecordOperation increments the operation counter with a bounded result
// label: "ok", the AppError code, or "error" for anything else.
func RecordOperation(operation string, err error) {
	AuthOperations.WithLabelValues(operation, ResultOf(err)).Inc()
}

// ResultOf maps an operation error onto its metric label.
func ResultOf(err error) string {
	if err == nil {
		return "ok"
	}
	var appError *apperr.AppError
	if errors.As(err, &appError) {
		return appError.Code
	}
	return "error"
}

// Middleware records RED metrics keyed by the chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		wrapped := chimw.NewWrapResponseWriter(writer, request.ProtoMajor)

		next.ServeHTTP(wrapped, request)

		// Route pattern (e.g. /auth/login) keeps label cardinality bounded.
		path := "unmatched"
		if routeCtx := chi.RouteContext(request.Context()); routeCtx != nil && routeCtx.RoutePattern() != "" {
			path = routeCtx.RoutePattern()
		}

		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}

		labels := []string{path, request.Method, strconv.Itoa(status)}
		httpDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(labels...).Inc()
	})
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

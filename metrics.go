// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package omada

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a Client
//
// A single Metrics value may be shared by several clients. All methods are
// safe to call on a nil *Metrics.
type Metrics struct {
	logins   *prometheus.CounterVec
	relogins prometheus.Counter
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the client collectors and registers them with reg
//
// Collectors that are already registered (for example by another Metrics
// created from the same registry) are reused.
//
// Example:
//
//	metrics, err := omada.NewMetrics(prometheus.DefaultRegisterer)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, _ := omada.NewClient(url, omada.WithMetrics(metrics))
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omada",
			Subsystem: "client",
			Name:      "logins_total",
			Help:      "Login attempts against the controller by result",
		}, []string{"result"}),
		relogins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "omada",
			Subsystem: "client",
			Name:      "relogins_total",
			Help:      "Re-authentications triggered by an expired session",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omada",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "HTTP requests sent to the controller by method and status code",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "omada",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency against the controller",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.logins, err = register(reg, m.logins); err != nil {
		return nil, err
	}
	if m.relogins, err = register(reg, m.relogins); err != nil {
		return nil, err
	}
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, returning the existing collector if an identical one is already registered
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observeLogin(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRelogin() {
	if m == nil {
		return
	}
	m.relogins.Inc()
}

// observeRequest records one HTTP attempt; statusCode 0 means no response was received
func (m *Metrics) observeRequest(method string, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

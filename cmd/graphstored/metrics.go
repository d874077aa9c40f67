// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"

	"github.com/diffeo/go-graphstore/sparql"
	"github.com/diffeo/go-graphstore/store"
)

// metrics collects the daemon's Prometheus metrics in its own
// registry.
type metrics struct {
	Clock    clock.Clock
	Registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	namedGraphs prometheus.Gauge
}

func newMetrics(clk clock.Clock, engine *sparql.Engine) *metrics {
	m := &metrics{
		Clock:    clk,
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "diffeo",
				Subsystem: "graphstore",
				Name:      "requests_total",
				Help:      "HTTP requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "diffeo",
				Subsystem: "graphstore",
				Name:      "request_duration_seconds",
				Help:      "Time to answer HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		namedGraphs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diffeo",
			Subsystem: "graphstore",
			Name:      "named_graphs",
			Help:      "Number of named graphs in the store",
		}),
	}
	m.Registry.MustRegister(m.requests, m.duration, m.namedGraphs)
	m.Registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "diffeo",
			Subsystem: "graphstore",
			Name:      "parse_cache_hits_total",
			Help:      "Queries and updates found in the parse cache",
		}, func() float64 {
			hits, _ := engine.CacheStats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "diffeo",
			Subsystem: "graphstore",
			Name:      "parse_cache_misses_total",
			Help:      "Queries and updates that had to be parsed",
		}, func() float64 {
			_, misses := engine.CacheStats()
			return float64(misses)
		}),
	)
	return m
}

// Middleware records the count and duration of requests to each
// named route.  It is installed with mux.Router.Use.
func (m *metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		route := "unknown"
		if current := mux.CurrentRoute(req); current != nil && current.GetName() != "" {
			route = current.GetName()
		}
		rw := negroni.NewResponseWriter(w)
		start := m.Clock.Now()
		next.ServeHTTP(rw, req)
		elapsed := m.Clock.Now().Sub(start)

		// A handler that never wrote anything sent 200.
		status := rw.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, req.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route, req.Method).Observe(elapsed.Seconds())
	})
}

// observeOnce updates the named graph gauge.
func (m *metrics) observeOnce(ctx context.Context, st store.Reader) error {
	graphs, err := st.NamedGraphs(ctx)
	if err != nil {
		return err
	}
	m.namedGraphs.Set(float64(len(graphs)))
	return nil
}

// observe updates the named graph gauge every interval until ctx is
// cancelled.
func (m *metrics) observe(ctx context.Context, st store.Reader, interval time.Duration) {
	ticker := m.Clock.Ticker(interval)
	defer ticker.Stop()
	for {
		if err := m.observeOnce(ctx, st); err != nil {
			logrus.WithFields(logrus.Fields{
				"err": err,
			}).Warn("Could not count named graphs")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

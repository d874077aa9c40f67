// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffeo/go-graphstore/memory"
	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/sparql"
)

func TestMiddleware(t *testing.T) {
	mock := clock.NewMock()
	st := memory.New()
	m := newMetrics(mock, sparql.NewEngine(st, 0))

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.Path("/slow").Name("slow").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		mock.Add(2 * time.Second)
		w.WriteHeader(http.StatusTeapot)
	})
	r.Path("/quiet").Name("quiet").HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/quiet", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("slow", "GET", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("quiet", "POST", "200")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() != "diffeo_graphstore_request_duration_seconds" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" && label.GetValue() == "slow" {
					found = true
					assert.Equal(t, uint64(1), metric.GetHistogram().GetSampleCount())
					assert.Equal(t, 2.0, metric.GetHistogram().GetSampleSum())
				}
			}
		}
	}
	assert.True(t, found, "no duration recorded for slow route")
}

func TestObserve(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := newMetrics(clock.NewMock(), sparql.NewEngine(st, 0))

	require.NoError(t, m.observeOnce(ctx, st))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.namedGraphs))

	require.NoError(t, st.InsertNamedGraph(ctx, rdf.NewIRI("http://example.org/g1")))
	require.NoError(t, st.InsertNamedGraph(ctx, rdf.NewIRI("http://example.org/g2")))

	// A cancelled context stops the loop after one observation.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	m.observe(cancelled, st, time.Minute)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.namedGraphs))
}

func TestCacheMetrics(t *testing.T) {
	st := memory.New()
	engine := sparql.NewEngine(st, 10)
	m := newMetrics(clock.NewMock(), engine)

	for i := 0; i < 3; i++ {
		_, err := engine.ParseQuery("ASK { ?s ?p ?o }", "http://example.com/query")
		require.NoError(t, err)
	}
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			values[family.GetName()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, values["diffeo_graphstore_parse_cache_hits_total"])
	assert.Equal(t, 1.0, values["diffeo_graphstore_parse_cache_misses_total"])
}

func TestHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	st := memory.New()
	engine := sparql.NewEngine(st, 10)
	m := newMetrics(clock.NewMock(), engine)
	config := DefaultConfig()
	config.LogRequests = true
	h := newHandler(st, engine, config, m, logger)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/store?default", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(),
		`diffeo_graphstore_requests_total{method="GET",route="store",status="200"} 1`)

	entries := hook.AllEntries()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, logrus.DebugLevel, entries[0].Level)
		assert.Equal(t, "request", entries[0].Message)
		assert.Equal(t, "/store", entries[0].Data["path"])
		assert.Equal(t, http.StatusOK, entries[0].Data["status"])
	}
}

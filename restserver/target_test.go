// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/restdata"
)

func TestResolveTarget(t *testing.T) {
	for _, tc := range []struct {
		url       string
		graphPath bool
		want      GraphTarget
	}{
		{"/store", false, GraphTarget{Kind: WholeStore}},
		{"/store?default", false, GraphTarget{Kind: DefaultGraph}},
		{"/store?default=yes", false, GraphTarget{Kind: DefaultGraph}},
		{
			"/store?graph=http%3A%2F%2Fexample.org%2Fg",
			false,
			GraphTarget{Kind: NamedGraph, Graph: rdf.NewIRI("http://example.org/g")},
		},
		{
			"/store?graph=/data/g1",
			false,
			GraphTarget{Kind: NamedGraph, Graph: rdf.NewIRI("http://example.com/data/g1")},
		},
		{
			"/store/abc?graph=ignored&default",
			true,
			GraphTarget{Kind: NamedGraph, Graph: rdf.NewIRI("http://example.com/store/abc")},
		},
	} {
		t.Run(tc.url, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			got, err := resolveTarget(req, tc.graphPath)
			if assert.NoError(t, err) {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestResolveTargetErrors(t *testing.T) {
	for _, tc := range []struct {
		url  string
		kind restdata.ErrorKind
	}{
		{"/store?graph=x&default", restdata.ConflictingParameters},
		{"/store?default&graph=x", restdata.ConflictingParameters},
		{"/store?graph=a&graph=b", restdata.MultipleParameters},
		{"/store?graph=", restdata.BadParameter},
		{"/store?graph=%3A", restdata.BadParameter},
		{"/store?graph=http%3A%2F%2Fexample.org%2Fg%3Fa%7Bb%7D", restdata.BadParameter},
	} {
		t.Run(tc.url, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			_, err := resolveTarget(req, false)
			if assert.Error(t, err) {
				if assert.IsType(t, restdata.Error{}, err) {
					assert.Equal(t, tc.kind, err.(restdata.Error).Kind)
				}
				assert.Equal(t, http.StatusBadRequest, restdata.StatusOf(err))
			}
		})
	}
}

func TestRequestScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/store", nil)
	assert.Equal(t, "http", requestScheme(req))

	req.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https", requestScheme(req))

	req.TLS = nil
	req.Header.Set("X-Forwarded-Proto", "HTTPS, http")
	assert.Equal(t, "https", requestScheme(req))
	assert.Equal(t, "https://example.com/store/x", absoluteURL(req, "/store/x"))
}

func TestTargetGraphName(t *testing.T) {
	g := rdf.NewIRI("http://example.com/g")
	assert.Equal(t, g, GraphTarget{Kind: NamedGraph, Graph: g}.GraphName())
	assert.True(t, GraphTarget{Kind: DefaultGraph}.GraphName().IsDefaultGraph())
	assert.True(t, GraphTarget{Kind: WholeStore}.GraphName().IsDefaultGraph())
}

func TestNewGraphID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{32}$`)
	a, b := newGraphID(), newGraphID()
	assert.Regexp(t, pattern, a)
	assert.Regexp(t, pattern, b)
	assert.NotEqual(t, a, b)
}

func TestMintGraph(t *testing.T) {
	api, _ := newTestAPI()
	api.PopulateRouter(api.Router)
	req := httptest.NewRequest(http.MethodPost, "/store", nil)

	graph, err := api.mintGraph(req)
	if assert.NoError(t, err) {
		assert.Regexp(t, `^http://example\.com/store/[0-9a-f]{32}$`, graph.Value)
		location, err := api.graphLocation(req, graph)
		if assert.NoError(t, err) {
			assert.Equal(t, graph.Value, location)
		}
	}

	location, err := api.graphLocation(req, rdf.NewIRI("http://example.org/g?x"))
	if assert.NoError(t, err) {
		assert.Equal(t, "http://example.com/store?graph=http%3A%2F%2Fexample.org%2Fg%3Fx", location)
	}
}

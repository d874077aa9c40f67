// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/diffeo/go-graphstore/memory"
	"github.com/diffeo/go-graphstore/restclient"
	"github.com/diffeo/go-graphstore/restdata"
	"github.com/diffeo/go-graphstore/restserver"
	"github.com/diffeo/go-graphstore/sparql"
)

const triples = "<http://example.org/a> <http://example.org/p> <http://example.org/b> .\n"

// ClientSuite runs the client against a real server over an
// in-memory store.
type ClientSuite struct {
	suite.Suite
	Server *httptest.Server
	Client *restclient.Client
	ctx    context.Context
}

func TestClient(t *testing.T) {
	suite.Run(t, &ClientSuite{})
}

func (s *ClientSuite) SetupTest() {
	st := memory.New()
	router := restserver.NewRouter(st, sparql.NewEngine(st, 16), restserver.Options{})
	s.Server = httptest.NewServer(router)
	var err error
	s.Client, err = restclient.New(s.Server.URL)
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *ClientSuite) TearDownTest() {
	s.Server.Close()
}

func (s *ClientSuite) TestRootDocument() {
	s.Equal("/query", s.Client.Representation.QueryURL)
	s.Equal("/store{?graph}", s.Client.Representation.GraphURL)
}

func (s *ClientSuite) TestGraphLifecycle() {
	graph := restclient.NamedGraph("http://example.org/g")
	created, err := s.Client.PutGraph(s.ctx, graph, "application/n-triples", strings.NewReader(triples))
	s.NoError(err)
	s.True(created)

	created, err = s.Client.PutGraph(s.ctx, graph, "application/n-triples", strings.NewReader(triples))
	s.NoError(err)
	s.False(created)

	resp, err := s.Client.GetGraph(s.ctx, graph, "")
	if s.NoError(err) {
		s.Equal("application/n-triples", resp.ContentType)
		s.Contains(string(resp.Body), "<http://example.org/b>")
	}

	s.NoError(s.Client.DeleteGraph(s.ctx, graph))
	err = s.Client.DeleteGraph(s.ctx, graph)
	if s.Error(err) {
		s.Equal(http.StatusNotFound, restdata.StatusOf(err))
		s.Contains(err.Error(), "No such graph")
	}
}

func (s *ClientSuite) TestPostMintsGraph() {
	location, err := s.Client.PostGraph(s.ctx, restclient.Target{}, "text/turtle", strings.NewReader(triples))
	s.Require().NoError(err)
	s.True(strings.HasPrefix(location, s.Server.URL+"/store/"), location)

	resp, err := s.Client.GetGraph(s.ctx, restclient.NamedGraph(location), "text/turtle")
	if s.NoError(err) {
		s.Equal("text/turtle", resp.ContentType)
	}

	location, err = s.Client.PostGraph(s.ctx, restclient.DefaultGraph, "text/turtle", strings.NewReader(triples))
	s.NoError(err)
	s.Empty(location)
}

func (s *ClientSuite) TestQueryUpdate() {
	err := s.Client.Update(s.ctx, "INSERT DATA { GRAPH <http://example.org/g> { <http://example.org/a> <http://example.org/p> 1 } }", restclient.Dataset{})
	s.Require().NoError(err)

	resp, err := s.Client.Query(s.ctx, "SELECT ?o WHERE { ?s ?p ?o }", "text/csv", restclient.Dataset{})
	if s.NoError(err) {
		s.Equal("o\r\n", string(resp.Body))
	}

	resp, err = s.Client.Query(s.ctx, "SELECT ?o WHERE { ?s ?p ?o }", "text/csv",
		restclient.Dataset{Default: []string{"http://example.org/g"}})
	if s.NoError(err) {
		s.Equal("o\r\n1\r\n", string(resp.Body))
	}

	err = s.Client.Update(s.ctx, "DELETE { ?s ?p ?o } WHERE { ?s ?p ?o }",
		restclient.Dataset{Default: []string{"http://example.org/g"}})
	s.NoError(err)

	_, err = s.Client.Query(s.ctx, "SELECT", "", restclient.Dataset{})
	if s.Error(err) {
		s.Equal(http.StatusBadRequest, restdata.StatusOf(err))
	}
}

func (s *ClientSuite) TestWholeStore() {
	_, err := s.Client.PostGraph(s.ctx, restclient.Target{}, "application/n-quads",
		strings.NewReader("<http://example.org/a> <http://example.org/p> <http://example.org/b> <http://example.org/g> .\n"))
	s.Require().NoError(err)

	resp, err := s.Client.GetGraph(s.ctx, restclient.Target{}, "")
	if s.NoError(err) {
		s.Equal("application/n-quads", resp.ContentType)
		s.Contains(string(resp.Body), "<http://example.org/g>")
	}

	s.NoError(s.Client.DeleteGraph(s.ctx, restclient.Target{}))
	_, err = s.Client.GetGraph(s.ctx, restclient.NamedGraph("http://example.org/g"), "")
	s.Equal(http.StatusNotFound, restdata.StatusOf(err))
}

func TestEmptyURL(t *testing.T) {
	_, err := restclient.New("")
	assert.Error(t, err, "expected error when given empty URL")
}

func TestNotAServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	_, err := restclient.New(server.URL)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, restdata.StatusOf(err))
}

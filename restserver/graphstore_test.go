// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/diffeo/go-graphstore/memory"
	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/rdfio"
	"github.com/diffeo/go-graphstore/restdata"
	"github.com/diffeo/go-graphstore/sparql"
	"github.com/diffeo/go-graphstore/store"
)

const (
	turtleDoc  = "@prefix ex: <http://example.org/> .\nex:a ex:p ex:b , ex:c .\n"
	ntriples   = "<http://example.org/a> <http://example.org/p> <http://example.org/b> .\n"
	nquadsDoc  = "<http://example.org/a> <http://example.org/p> <http://example.org/b> <http://example.org/g> .\n<http://example.org/x> <http://example.org/p> <http://example.org/y> .\n"
	namedGraph = "http://example.org/g"
)

// ServerSuite exercises the complete router against an in-memory
// store.
type ServerSuite struct {
	suite.Suite
	Store  store.Store
	Router http.Handler
}

func TestServer(t *testing.T) {
	suite.Run(t, &ServerSuite{})
}

func (s *ServerSuite) SetupTest() {
	s.Store = memory.New()
	s.Router = NewRouter(s.Store, sparql.NewEngine(s.Store, 16), Options{MaxBodyBytes: 1 << 20})
}

// Do sends a request through the router.  headers alternate names
// and values.
func (s *ServerSuite) Do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Add(headers[i], headers[i+1])
	}
	resp := httptest.NewRecorder()
	s.Router.ServeHTTP(resp, req)
	return resp
}

func (s *ServerSuite) quads(graph rdf.Term) []rdf.Quad {
	quads, err := s.Store.Match(context.Background(), store.InGraph(graph))
	s.Require().NoError(err)
	return quads
}

// decode parses a response body into the default graph.
func (s *ServerSuite) decode(resp *httptest.ResponseRecorder, f rdfio.Format) []rdf.Quad {
	quads, err := rdfio.Decode(resp.Body, f, "http://example.com/store", rdf.DefaultGraph)
	s.Require().NoError(err)
	return quads
}

func (s *ServerSuite) hasGraph(graph string) bool {
	exists, err := s.Store.ContainsNamedGraph(context.Background(), rdf.NewIRI(graph))
	s.Require().NoError(err)
	return exists
}

// TestConflictingParameters checks that graph and default together
// are refused for every method.
func (s *ServerSuite) TestConflictingParameters() {
	for _, method := range []string{"GET", "HEAD", "PUT", "POST", "DELETE"} {
		resp := s.Do(method, "/store?graph=http%3A%2F%2Fexample.org%2Fg&default", ntriples,
			"Content-Type", "application/n-triples")
		s.Equal(http.StatusBadRequest, resp.Code, method)
	}
}

func (s *ServerSuite) TestPutGetPut() {
	target := "/store?graph=" + namedGraph
	resp := s.Do("PUT", target, turtleDoc, "Content-Type", "text/turtle")
	s.Equal(http.StatusCreated, resp.Code)
	s.Empty(resp.Header().Get("Location"))

	resp = s.Do("GET", target, "")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("application/n-triples", resp.Header().Get("Content-Type"))
	s.Contains(resp.Body.String(), "<http://example.org/a> <http://example.org/p> <http://example.org/b> .")
	s.Contains(resp.Body.String(), "<http://example.org/a> <http://example.org/p> <http://example.org/c> .")

	resp = s.Do("PUT", target, ntriples, "Content-Type", "application/n-triples")
	s.Equal(http.StatusNoContent, resp.Code)
	s.Len(s.quads(rdf.NewIRI(namedGraph)), 1)
}

func (s *ServerSuite) TestPutEmptyGraph() {
	resp := s.Do("PUT", "/store/empty", "", "Content-Type", "text/turtle")
	s.Equal(http.StatusCreated, resp.Code)
	s.True(s.hasGraph("http://example.com/store/empty"))

	resp = s.Do("GET", "/store/empty", "")
	s.Equal(http.StatusOK, resp.Code)
	s.Empty(resp.Body.String())
}

func (s *ServerSuite) TestPutWholeStore() {
	resp := s.Do("PUT", "/store", ntriples, "Content-Type", "application/n-triples")
	s.Equal(http.StatusBadRequest, resp.Code)
}

func (s *ServerSuite) TestPutDataset() {
	resp := s.Do("PUT", "/store?default", nquadsDoc, "Content-Type", "application/n-quads")
	s.Equal(http.StatusUnsupportedMediaType, resp.Code)
}

func (s *ServerSuite) TestPutDefault() {
	resp := s.Do("PUT", "/store?default", ntriples, "Content-Type", "application/n-triples")
	s.Equal(http.StatusNoContent, resp.Code)
	resp = s.Do("PUT", "/store?default", turtleDoc, "Content-Type", "text/turtle")
	s.Equal(http.StatusNoContent, resp.Code)
	s.Len(s.quads(rdf.DefaultGraph), 2)
}

func (s *ServerSuite) TestBadBody() {
	resp := s.Do("PUT", "/store?default", "this is not turtle", "Content-Type", "text/turtle")
	s.Equal(http.StatusBadRequest, resp.Code)
	s.Empty(s.quads(rdf.DefaultGraph))
}

func (s *ServerSuite) TestTruncatedTurtle() {
	body := "@prefix : <http://example.org/> . :a :b [ "
	resp := s.Do("PUT", "/store?graph="+namedGraph, body, "Content-Type", "text/turtle")
	s.Equal(http.StatusBadRequest, resp.Code)
	s.False(s.hasGraph(namedGraph))

	resp = s.Do("POST", "/store?default", body, "Content-Type", "text/turtle")
	s.Equal(http.StatusBadRequest, resp.Code)
	s.Empty(s.quads(rdf.DefaultGraph))
}

func (s *ServerSuite) TestBadBodyLeavesGraph() {
	resp := s.Do("PUT", "/store/g", ntriples, "Content-Type", "application/n-triples")
	s.Equal(http.StatusCreated, resp.Code)
	resp = s.Do("PUT", "/store/g", "<broken", "Content-Type", "application/n-triples")
	s.Equal(http.StatusBadRequest, resp.Code)
	s.Len(s.quads(rdf.NewIRI("http://example.com/store/g")), 1)
}

func (s *ServerSuite) TestContentType() {
	resp := s.Do("PUT", "/store?default", ntriples)
	s.Equal(http.StatusBadRequest, resp.Code)
	s.Equal("No Content-Type given\n", resp.Body.String())

	resp = s.Do("PUT", "/store?default", ntriples, "Content-Type", "image/png")
	s.Equal(http.StatusUnsupportedMediaType, resp.Code)

	resp = s.Do("PUT", "/store?default", ntriples, "Content-Type", "text/turtle; charset")
	s.Equal(http.StatusBadRequest, resp.Code)

	resp = s.Do("PUT", "/store?default", ntriples, "Content-Type", "text/plain; charset=utf-8")
	s.Equal(http.StatusNoContent, resp.Code)
}

func (s *ServerSuite) TestDeleteGraph() {
	resp := s.Do("DELETE", "/store?graph="+namedGraph, "")
	s.Equal(http.StatusNotFound, resp.Code)

	resp = s.Do("PUT", "/store?graph="+namedGraph, ntriples, "Content-Type", "application/n-triples")
	s.Equal(http.StatusCreated, resp.Code)
	resp = s.Do("DELETE", "/store?graph="+namedGraph, "")
	s.Equal(http.StatusNoContent, resp.Code)
	s.False(s.hasGraph(namedGraph))
	resp = s.Do("DELETE", "/store?graph="+namedGraph, "")
	s.Equal(http.StatusNotFound, resp.Code)
}

func (s *ServerSuite) TestDeleteDefault() {
	resp := s.Do("DELETE", "/store?default", "")
	s.Equal(http.StatusNoContent, resp.Code)

	resp = s.Do("POST", "/store", nquadsDoc, "Content-Type", "application/n-quads")
	s.Equal(http.StatusNoContent, resp.Code)
	resp = s.Do("DELETE", "/store?default", "")
	s.Equal(http.StatusNoContent, resp.Code)
	s.Empty(s.quads(rdf.DefaultGraph))
	s.Len(s.quads(rdf.NewIRI(namedGraph)), 1)
}

func (s *ServerSuite) TestDeleteAll() {
	resp := s.Do("POST", "/store", nquadsDoc, "Content-Type", "application/n-quads")
	s.Equal(http.StatusNoContent, resp.Code)
	resp = s.Do("DELETE", "/store", "")
	s.Equal(http.StatusNoContent, resp.Code)
	s.Empty(s.quads(rdf.DefaultGraph))
	s.False(s.hasGraph(namedGraph))
}

func (s *ServerSuite) TestGetMissing() {
	resp := s.Do("GET", "/store?graph="+namedGraph, "")
	s.Equal(http.StatusNotFound, resp.Code)
	resp = s.Do("HEAD", "/store/nothing", "")
	s.Equal(http.StatusNotFound, resp.Code)
}

func (s *ServerSuite) TestDefaultNever404() {
	for _, method := range []string{"GET", "HEAD"} {
		resp := s.Do(method, "/store?default", "")
		s.Equal(http.StatusOK, resp.Code, method)
		s.Empty(resp.Body.String(), method)
	}
}

func (s *ServerSuite) TestNegotiation() {
	resp := s.Do("PUT", "/store?default", ntriples, "Content-Type", "application/n-triples")
	s.Require().Equal(http.StatusNoContent, resp.Code)

	want := []rdf.Quad{{
		Subject:   rdf.NewIRI("http://example.org/a"),
		Predicate: rdf.NewIRI("http://example.org/p"),
		Object:    rdf.NewIRI("http://example.org/b"),
		Graph:     rdf.DefaultGraph,
	}}

	resp = s.Do("GET", "/store?default", "", "Accept", "text/turtle")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("text/turtle", resp.Header().Get("Content-Type"))
	s.Equal(want, s.decode(resp, rdfio.Turtle))

	resp = s.Do("GET", "/store?default", "")
	s.Equal("application/n-triples", resp.Header().Get("Content-Type"))
	s.Equal(want, s.decode(resp, rdfio.NTriples))

	resp = s.Do("GET", "/store?default", "", "Accept", "application/xml")
	s.Equal("application/rdf+xml", resp.Header().Get("Content-Type"))
	s.Contains(resp.Body.String(), `<rdf:Description rdf:about="http://example.org/a">`)

	resp = s.Do("GET", "/store?default", "", "Accept", "application/n-quads")
	s.Equal(http.StatusNotAcceptable, resp.Code)

	resp = s.Do("GET", "/store?default", "", "Accept", "text/turtle;q=bogus")
	s.Equal(http.StatusBadRequest, resp.Code)
}

func (s *ServerSuite) TestGetWholeStore() {
	resp := s.Do("POST", "/store", nquadsDoc, "Content-Type", "application/n-quads")
	s.Require().Equal(http.StatusNoContent, resp.Code)

	resp = s.Do("GET", "/store", "")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("application/n-quads", resp.Header().Get("Content-Type"))
	s.Contains(resp.Body.String(), "<http://example.org/g> .")

	resp = s.Do("GET", "/store", "", "Accept", "application/trig")
	s.Equal("application/trig", resp.Header().Get("Content-Type"))

	resp = s.Do("GET", "/store", "", "Accept", "text/turtle")
	s.Equal(http.StatusNotAcceptable, resp.Code)
}

func (s *ServerSuite) TestPostMintsGraph() {
	resp := s.Do("POST", "/store", turtleDoc, "Content-Type", "text/turtle")
	s.Require().Equal(http.StatusCreated, resp.Code)
	location := resp.Header().Get("Location")
	s.Regexp(`^http://example\.com/store/[0-9a-f]{32}$`, location)
	s.True(s.hasGraph(location))

	path := strings.TrimPrefix(location, "http://example.com")
	resp = s.Do("GET", path, "")
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body.String(), "<http://example.org/c>")

	resp = s.Do("POST", "/store", turtleDoc, "Content-Type", "text/turtle")
	s.Require().Equal(http.StatusCreated, resp.Code)
	s.NotEqual(location, resp.Header().Get("Location"))
}

func (s *ServerSuite) TestPostNamedGraph() {
	resp := s.Do("POST", "/store?graph="+namedGraph, ntriples, "Content-Type", "application/n-triples")
	s.Equal(http.StatusCreated, resp.Code)
	s.Equal("http://example.com/store?graph=http%3A%2F%2Fexample.org%2Fg", resp.Header().Get("Location"))

	resp = s.Do("POST", "/store?graph="+namedGraph, turtleDoc, "Content-Type", "text/turtle")
	s.Equal(http.StatusNoContent, resp.Code)
	s.Empty(resp.Header().Get("Location"))
	s.Len(s.quads(rdf.NewIRI(namedGraph)), 2)

	resp = s.Do("POST", "/store/local", ntriples, "Content-Type", "application/n-triples")
	s.Equal(http.StatusCreated, resp.Code)
	s.Equal("http://example.com/store/local", resp.Header().Get("Location"))
}

func (s *ServerSuite) TestPostDefault() {
	resp := s.Do("POST", "/store?default", ntriples, "Content-Type", "application/n-triples")
	s.Equal(http.StatusNoContent, resp.Code)
	resp = s.Do("POST", "/store?default", turtleDoc, "Content-Type", "text/turtle")
	s.Equal(http.StatusNoContent, resp.Code)
	s.Len(s.quads(rdf.DefaultGraph), 2)
}

func (s *ServerSuite) TestPostDatasetAnywhere() {
	resp := s.Do("POST", "/store?graph=http%3A%2F%2Fexample.org%2Fother", nquadsDoc,
		"Content-Type", "application/n-quads")
	s.Equal(http.StatusNoContent, resp.Code)
	s.Len(s.quads(rdf.NewIRI(namedGraph)), 1)
	s.Len(s.quads(rdf.DefaultGraph), 1)
	s.False(s.hasGraph("http://example.org/other"))
}

func (s *ServerSuite) TestPostDatasetDefaultGraph() {
	resp := s.Do("POST", "/store", nquadsDoc, "Content-Type", "application/n-quads")
	s.Require().Equal(http.StatusNoContent, resp.Code)

	resp = s.Do("GET", "/store?default", "")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal([]rdf.Quad{{
		Subject:   rdf.NewIRI("http://example.org/x"),
		Predicate: rdf.NewIRI("http://example.org/p"),
		Object:    rdf.NewIRI("http://example.org/y"),
	}}, s.decode(resp, rdfio.NTriples))

	graphs, err := s.Store.NamedGraphs(context.Background())
	s.Require().NoError(err)
	s.Equal([]rdf.Term{rdf.NewIRI(namedGraph)}, graphs)
}

func (s *ServerSuite) TestPostBlankNodes() {
	doc := "_:x <http://example.org/p> \"1\" .\n"
	for i := 0; i < 2; i++ {
		resp := s.Do("POST", "/store?default", doc, "Content-Type", "application/n-triples")
		s.Equal(http.StatusNoContent, resp.Code)
	}
	quads := s.quads(rdf.DefaultGraph)
	if s.Len(quads, 2) {
		s.NotEqual(quads[0].Subject, quads[1].Subject)
	}
}

func (s *ServerSuite) TestGraphMethods() {
	resp := s.Do("PATCH", "/store", "")
	s.Equal(http.StatusMethodNotAllowed, resp.Code)
	s.Equal("GET, HEAD, PUT, POST, DELETE", resp.Header().Get("Allow"))
}

func (s *ServerSuite) TestRootDocument() {
	resp := s.Do("GET", "/", "")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("text/html; charset=utf-8", resp.Header().Get("Content-Type"))
	s.Contains(resp.Body.String(), "/query")

	resp = s.Do("GET", "/", "", "Accept", "application/json")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("application/json", resp.Header().Get("Content-Type"))
	s.JSONEq(`{
		"query_url": "/query",
		"update_url": "/update",
		"store_url": "/store",
		"graph_url": "/store{?graph}",
		"default_graph_url": "/store?default"
	}`, resp.Body.String())

	resp = s.Do("GET", "/", "", "Accept", "image/png")
	s.Equal(http.StatusNotAcceptable, resp.Code)
}

func TestStoreError(t *testing.T) {
	err := storeError(store.ErrNoSuchGraph{Graph: rdf.NewIRI("http://example.org/g")})
	assert.Equal(t, http.StatusNotFound, restdata.StatusOf(err))
	assert.Equal(t, "No such graph http://example.org/g", err.Error())
	assert.Equal(t, http.StatusInternalServerError, restdata.StatusOf(storeError(io.ErrUnexpectedEOF)))
}

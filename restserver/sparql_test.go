// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"net/http"
	"net/url"

	"github.com/diffeo/go-graphstore/rdf"
)

const (
	sparqlQueryType  = "application/sparql-query"
	sparqlUpdateType = "application/sparql-update"
	formType         = "application/x-www-form-urlencoded"
)

func (s *ServerSuite) loadDefault() {
	resp := s.Do("PUT", "/store?default", ntriples, "Content-Type", "application/n-triples")
	s.Require().Equal(http.StatusNoContent, resp.Code)
}

func (s *ServerSuite) TestSelectEmpty() {
	resp := s.Do("POST", "/query", "SELECT * WHERE { ?s ?p ?o }", "Content-Type", sparqlQueryType)
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("application/sparql-results+xml", resp.Header().Get("Content-Type"))
	body := resp.Body.String()
	s.Contains(body, `<variable name="s"/>`)
	s.Contains(body, "<results>\n  </results>")
	s.NotContains(body, "<result>")
}

func (s *ServerSuite) TestMalformedQuery() {
	resp := s.Do("POST", "/query", "SELECT", "Content-Type", sparqlQueryType)
	s.Equal(http.StatusBadRequest, resp.Code)
	s.Equal("text/plain; charset=utf-8", resp.Header().Get("Content-Type"))
}

func (s *ServerSuite) TestSelectGet() {
	s.loadDefault()
	query := url.Values{"query": {"SELECT ?o WHERE { <http://example.org/a> ?p ?o }"}}.Encode()
	resp := s.Do("GET", "/query?"+query, "", "Accept", "application/sparql-results+json")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("application/sparql-results+json", resp.Header().Get("Content-Type"))
	s.Contains(resp.Body.String(), `"vars":["o"]`)
	s.Contains(resp.Body.String(), `"value":"http://example.org/b"`)

	resp = s.Do("GET", "/query?"+query, "", "Accept", "text/csv")
	s.Equal("text/csv", resp.Header().Get("Content-Type"))
	s.Equal("o\r\nhttp://example.org/b\r\n", resp.Body.String())

	resp = s.Do("GET", "/query?"+query, "", "Accept", "text/tsv")
	s.Equal("text/tab-separated-values", resp.Header().Get("Content-Type"))
	s.Equal("?o\n<http://example.org/b>\n", resp.Body.String())

	resp = s.Do("GET", "/query?"+query, "", "Accept", "text/turtle")
	s.Equal(http.StatusNotAcceptable, resp.Code)
}

func (s *ServerSuite) TestSelectForm() {
	s.loadDefault()
	form := url.Values{"query": {"ASK { ?s ?p ?o }"}}.Encode()
	resp := s.Do("POST", "/query", form, "Content-Type", formType, "Accept", "text/csv")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("true\n", resp.Body.String())
}

func (s *ServerSuite) TestAsk() {
	resp := s.Do("POST", "/query", "ASK { ?s ?p ?o }", "Content-Type", sparqlQueryType)
	s.Equal(http.StatusOK, resp.Code)
	s.Contains(resp.Body.String(), "<boolean>false</boolean>")
}

func (s *ServerSuite) TestConstruct() {
	s.loadDefault()
	query := "CONSTRUCT { ?o <http://example.org/q> ?s } WHERE { ?s ?p ?o }"
	resp := s.Do("POST", "/query", query, "Content-Type", sparqlQueryType)
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("application/n-triples", resp.Header().Get("Content-Type"))
	s.Contains(resp.Body.String(), "<http://example.org/b> <http://example.org/q> <http://example.org/a> .")

	resp = s.Do("POST", "/query", query, "Content-Type", sparqlQueryType, "Accept", "text/turtle")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("text/turtle", resp.Header().Get("Content-Type"))

	resp = s.Do("POST", "/query", query, "Content-Type", sparqlQueryType,
		"Accept", "application/sparql-results+xml")
	s.Equal(http.StatusNotAcceptable, resp.Code)
}

func (s *ServerSuite) TestQueryParameters() {
	for _, tc := range []struct {
		name     string
		method   string
		target   string
		body     string
		headers  []string
		status   int
		contains string
	}{
		{
			name:     "unknown form key",
			method:   "POST",
			target:   "/query",
			body:     "query=ASK%7B%7D&bogus=1",
			headers:  []string{"Content-Type", formType},
			status:   http.StatusBadRequest,
			contains: "bogus",
		},
		{
			name:     "unknown url key",
			method:   "GET",
			target:   "/query?query=ASK%7B%7D&frobnicate",
			status:   http.StatusBadRequest,
			contains: "frobnicate",
		},
		{
			name:     "two queries",
			method:   "GET",
			target:   "/query?query=ASK%7B%7D&query=ASK%7B%7D",
			status:   http.StatusBadRequest,
			contains: "Multiple query",
		},
		{
			name:     "query in body and url",
			method:   "POST",
			target:   "/query?query=ASK%7B%7D",
			body:     "ASK {}",
			headers:  []string{"Content-Type", sparqlQueryType},
			status:   http.StatusBadRequest,
			contains: "Multiple query",
		},
		{
			name:     "no query",
			method:   "GET",
			target:   "/query",
			status:   http.StatusBadRequest,
			contains: "Missing query",
		},
		{
			name:     "form ignores url",
			method:   "POST",
			target:   "/query?query=ASK%7B%7D",
			body:     "default-graph-uri=http%3A%2F%2Fexample.org%2Fg",
			headers:  []string{"Content-Type", formType},
			status:   http.StatusBadRequest,
			contains: "Missing query",
		},
		{
			name:     "no content type",
			method:   "POST",
			target:   "/query",
			body:     "ASK {}",
			status:   http.StatusBadRequest,
			contains: "No Content-Type given",
		},
		{
			name:    "wrong content type",
			method:  "POST",
			target:  "/query",
			body:    "ASK {}",
			headers: []string{"Content-Type", "text/plain"},
			status:  http.StatusUnsupportedMediaType,
		},
		{
			name:    "update type to query",
			method:  "POST",
			target:  "/query",
			body:    "ASK {}",
			headers: []string{"Content-Type", sparqlUpdateType},
			status:  http.StatusUnsupportedMediaType,
		},
		{
			name:     "empty graph",
			method:   "GET",
			target:   "/query?query=ASK%7B%7D&named-graph-uri=",
			status:   http.StatusBadRequest,
			contains: "Empty graph IRI",
		},
		{
			name:     "bad escape",
			method:   "GET",
			target:   "/query?query=%zz",
			status:   http.StatusBadRequest,
			contains: "Invalid parameter encoding",
		},
		{
			name:   "update parameter to query",
			method: "GET",
			target: "/query?query=ASK%7B%7D&using-graph-uri=http%3A%2F%2Fexample.org%2Fg",
			status: http.StatusBadRequest,
		},
		{
			name:   "wrong method",
			method: "PUT",
			target: "/query",
			status: http.StatusMethodNotAllowed,
		},
	} {
		resp := s.Do(tc.method, tc.target, tc.body, tc.headers...)
		s.Equal(tc.status, resp.Code, tc.name)
		s.Contains(resp.Body.String(), tc.contains, tc.name)
	}
}

func (s *ServerSuite) TestDatasetParameters() {
	resp := s.Do("POST", "/store", nquadsDoc, "Content-Type", "application/n-quads")
	s.Require().Equal(http.StatusNoContent, resp.Code)

	// The named graph becomes the default graph.
	query := url.Values{
		"query":             {"SELECT ?s WHERE { ?s ?p ?o }"},
		"default-graph-uri": {namedGraph},
	}.Encode()
	resp = s.Do("GET", "/query?"+query, "", "Accept", "text/csv")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("s\r\nhttp://example.org/a\r\n", resp.Body.String())

	// Scoping parameters override the query's own FROM.
	resp = s.Do("POST", "/query?default-graph-uri="+url.QueryEscape(namedGraph),
		"SELECT ?s FROM <http://example.org/nothing> WHERE { ?s ?p ?o }",
		"Content-Type", sparqlQueryType, "Accept", "text/csv")
	s.Equal(http.StatusOK, resp.Code)
	s.Equal("s\r\nhttp://example.org/a\r\n", resp.Body.String())

	// Named graphs only.
	query = url.Values{
		"query":           {"SELECT ?g WHERE { GRAPH ?g { ?s ?p ?o } }"},
		"named-graph-uri": {namedGraph},
	}.Encode()
	resp = s.Do("GET", "/query?"+query, "", "Accept", "text/csv")
	s.Equal("g\r\nhttp://example.org/g\r\n", resp.Body.String())
}

func (s *ServerSuite) TestRelativeIRIs() {
	resp := s.Do("POST", "/update", "INSERT DATA { <x> <p> <y> }", "Content-Type", sparqlUpdateType)
	s.Require().Equal(http.StatusNoContent, resp.Code)
	quads := s.quads(rdf.DefaultGraph)
	if s.Len(quads, 1) {
		s.Equal(rdf.NewIRI("http://example.com/x"), quads[0].Subject)
	}

	query := url.Values{"query": {"ASK { <x> <p> <y> }"}}.Encode()
	resp = s.Do("GET", "/query?"+query, "", "Accept", "text/csv")
	s.Equal("true\n", resp.Body.String())
}

func (s *ServerSuite) TestUpdate() {
	update := "PREFIX ex: <http://example.org/>\nINSERT DATA { GRAPH ex:g { ex:a ex:p ex:b } }"
	resp := s.Do("POST", "/update", update, "Content-Type", sparqlUpdateType)
	s.Equal(http.StatusNoContent, resp.Code)
	s.Empty(resp.Body.String())
	s.True(s.hasGraph(namedGraph))

	form := url.Values{"update": {"DELETE WHERE { GRAPH ?g { ?s ?p ?o } }"}}.Encode()
	resp = s.Do("POST", "/update", form, "Content-Type", formType)
	s.Equal(http.StatusNoContent, resp.Code)
	s.Empty(s.quads(rdf.NewIRI(namedGraph)))

	resp = s.Do("GET", "/update?update=CLEAR+ALL", "")
	s.Equal(http.StatusMethodNotAllowed, resp.Code)
	s.Equal("POST", resp.Header().Get("Allow"))
}

func (s *ServerSuite) TestUpdateErrors() {
	resp := s.Do("POST", "/update", "INSERT DATA {", "Content-Type", sparqlUpdateType)
	s.Equal(http.StatusBadRequest, resp.Code)

	resp = s.Do("POST", "/update", "CREATE GRAPH <http://example.org/g>", "Content-Type", sparqlUpdateType)
	s.Equal(http.StatusNoContent, resp.Code)
	resp = s.Do("POST", "/update", "CREATE GRAPH <http://example.org/g>", "Content-Type", sparqlUpdateType)
	s.Equal(http.StatusBadRequest, resp.Code)
	resp = s.Do("POST", "/update", "CREATE SILENT GRAPH <http://example.org/g>", "Content-Type", sparqlUpdateType)
	s.Equal(http.StatusNoContent, resp.Code)

	resp = s.Do("POST", "/update?using-graph-uri="+url.QueryEscape(namedGraph),
		"WITH <http://example.org/g> DELETE { ?s ?p ?o } WHERE { ?s ?p ?o }",
		"Content-Type", sparqlUpdateType)
	s.Equal(http.StatusBadRequest, resp.Code)

	resp = s.Do("POST", "/update", "LOAD <http://example.org/remote>", "Content-Type", sparqlUpdateType)
	s.Equal(http.StatusBadRequest, resp.Code)

	form := url.Values{"query": {"ASK {}"}}.Encode()
	resp = s.Do("POST", "/update", form, "Content-Type", formType)
	s.Equal(http.StatusBadRequest, resp.Code)
	s.Contains(resp.Body.String(), `"query"`)
}

func (s *ServerSuite) TestUpdateUsing() {
	resp := s.Do("POST", "/store", nquadsDoc, "Content-Type", "application/n-quads")
	s.Require().Equal(http.StatusNoContent, resp.Code)

	// Copy the named graph's triples into the default graph.
	resp = s.Do("POST", "/update?using-graph-uri="+url.QueryEscape(namedGraph),
		"INSERT { ?s ?p ?o } WHERE { ?s ?p ?o }", "Content-Type", sparqlUpdateType)
	s.Equal(http.StatusNoContent, resp.Code)
	s.Len(s.quads(rdf.DefaultGraph), 2)
}

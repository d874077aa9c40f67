// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restdata defines common data structures shared between the
// restserver and restclient packages.
//
// API Usage
//
// HTTP GET the root document at its specified URL with an Accept:
// header asking for JSON.  This will return a JSON serialization of
// the RootData object.  That serialization has links to the other
// resources; follow these links, possibly filling in template values,
// to get to other resources.
//
// Some of the URL fields are RFC 6570 URI templates.  If the system is
// rooted at /, a JSON serialization of RootData will look like
//
//     {
//         "query_url": "/query",
//         "update_url": "/update",
//         "store_url": "/store",
//         "graph_url": "/store{?graph}",
//         "default_graph_url": "/store?default"
//     }
//
// While the URL structure is predictable and formulaic, it is not
// actually part of the API contract.  The only specific guarantee is
// that retrieving the root resource as JSON will return a
// serialization of RootData.
//
// Graph Identifiers
//
// Graphs are named by absolute IRIs.  A graph whose IRI lies under
// the server's own /store/ path can be addressed directly at that
// path; any other graph is addressed as /store?graph=iri.  Relative
// IRIs in the graph parameter are resolved against the server's
// scheme and host.  POSTing a graph to /store with no target creates
// a new graph at /store/ followed by 32 hex digits, and returns its
// location.
//
// Errors
//
// Every failure is reported with an HTTP status code and a
// text/plain body holding a human-readable message.  The status code
// is authoritative.  The ErrorKind type lists the failures the
// server distinguishes and the status each produces.
package restdata

// Media types used in the protocol beyond the RDF and SPARQL results
// formats, which live in the rdfio package.
const (
	// SPARQLQueryMediaType is the Content-Type of a POSTed raw
	// query.
	SPARQLQueryMediaType = "application/sparql-query"

	// SPARQLUpdateMediaType is the Content-Type of a POSTed raw
	// update.
	SPARQLUpdateMediaType = "application/sparql-update"

	// FormMediaType is the Content-Type of a POSTed HTML form.
	FormMediaType = "application/x-www-form-urlencoded"

	// JSONMediaType is the media type of the root document.
	JSONMediaType = "application/json"

	// HTMLMediaType is the media type of the human-readable root
	// page.
	HTMLMediaType = "text/html"

	// TextMediaType is the media type of error responses.
	TextMediaType = "text/plain; charset=utf-8"
)

// RootData is returned by the root path.
type RootData struct {
	// QueryURL accepts SPARQL queries by HTTP GET or POST.
	QueryURL string `json:"query_url"`

	// UpdateURL accepts SPARQL updates by HTTP POST.
	UpdateURL string `json:"update_url"`

	// StoreURL addresses the entire dataset.  HTTP GET returns
	// every graph in a dataset format; POST merges data into the
	// dataset, or creates a new graph; DELETE empties it.
	StoreURL string `json:"store_url"`

	// GraphURL addresses a single named graph.  This is a URI
	// template with a single parameter, "graph", which is the
	// graph IRI.  It supports HTTP GET, HEAD, PUT, POST, and
	// DELETE.
	GraphURL string `json:"graph_url"`

	// DefaultGraphURL addresses the default graph.  It supports
	// HTTP GET, HEAD, PUT, POST, and DELETE.
	DefaultGraphURL string `json:"default_graph_url"`
}

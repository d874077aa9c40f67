// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restserver publishes an RDF store over HTTP, following the
// SPARQL 1.1 Protocol and the SPARQL 1.1 Graph Store HTTP Protocol.
// The restclient package is a matching client.
//
// HTTP Considerations
//
// Every response that carries data picks its format from the
// standard HTTP Accept: header.  With no Accept: header, the first
// format listed below for that kind of response is used.  Request
// bodies must carry a Content-Type: header.
//
// Errors are returned as text/plain with an appropriate 4xx or 5xx
// status code.  A request using an HTTP method a resource does not
// support gets 405 Method Not Allowed with an Allow: header.
//
// This interface does not support HTTP caching or authentication
// headers.
//
// MIME Types
//
// Graphs are read and written as
//
//     application/n-triples
//     text/turtle
//     application/rdf+xml
//
// and whole datasets as
//
//     application/n-quads
//     application/trig
//
// SPARQL SELECT and ASK results are written as
//
//     application/sparql-results+xml
//     application/sparql-results+json
//     text/csv
//     text/tab-separated-values
//
// Several common aliases of these are also understood.
//
// URL Scheme
//
// The following URLs are defined:
//
//     /
//     /query
//     /update
//     /store
//     /store?default
//     /store?graph={iri}
//     /store/{path}
//
// The root document is HTML, or JSON (restdata.RootData) if
// requested, and links to the other resources.
//
// /query accepts GET with a query parameter, or POST with either an
// application/sparql-query body or an
// application/x-www-form-urlencoded form.  The default-graph-uri and
// named-graph-uri parameters replace the query's own dataset.
// /update accepts POST in the same two ways, with update,
// using-graph-uri, and using-named-graph-uri parameters.
//
// /store is the graph store.  With neither parameter it addresses the
// whole dataset; POSTing a graph there creates a new graph under
// /store/ and returns its URL in a Location: header.  Any URL under
// /store/ directly names the graph with that IRI.
package restserver

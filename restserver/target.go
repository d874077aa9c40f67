// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/satori/go.uuid"

	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/restdata"
)

// TargetKind says what part of the dataset a graph store request
// addresses.
type TargetKind int

const (
	// WholeStore addresses every graph.
	WholeStore TargetKind = iota

	// DefaultGraph addresses the default graph.
	DefaultGraph

	// NamedGraph addresses a single named graph.
	NamedGraph
)

func (k TargetKind) String() string {
	switch k {
	case WholeStore:
		return "whole store"
	case DefaultGraph:
		return "default graph"
	case NamedGraph:
		return "named graph"
	}
	return "unknown target"
}

// GraphTarget is the resolved target of a graph store request.
// Graph is set only for NamedGraph.
type GraphTarget struct {
	Kind  TargetKind
	Graph rdf.Term
}

// GraphName returns the store graph name: the IRI of a named graph,
// or rdf.DefaultGraph otherwise.
func (t GraphTarget) GraphName() rdf.Term {
	if t.Kind == NamedGraph {
		return t.Graph
	}
	return rdf.DefaultGraph
}

// requestScheme is the scheme the client used to reach us, honoring
// a proxy's X-Forwarded-Proto: header.
func requestScheme(req *http.Request) string {
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		if comma := strings.IndexByte(proto, ','); comma >= 0 {
			proto = proto[:comma]
		}
		return strings.ToLower(strings.TrimSpace(proto))
	}
	if req.TLS != nil {
		return "https"
	}
	return "http"
}

// absoluteURL builds an absolute URL on this server from a path and
// optional query string.
func absoluteURL(req *http.Request, pathAndQuery string) string {
	return requestScheme(req) + "://" + req.Host + pathAndQuery
}

// resolveIRI resolves a possibly relative IRI against this server.
func resolveIRI(req *http.Request, ref string) (rdf.Term, error) {
	if ref == "" {
		return rdf.Term{}, restdata.Errorf(restdata.BadParameter, "Empty graph IRI")
	}
	base, err := url.Parse(absoluteURL(req, "/"))
	if err != nil {
		return rdf.Term{}, restdata.Error{Kind: restdata.BadParameter, Err: err}
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return rdf.Term{}, restdata.Errorf(restdata.BadParameter, "Invalid graph IRI %q", ref)
	}
	iri := base.ResolveReference(refURL).String()
	if err = rdf.CheckIRI(iri); err != nil {
		return rdf.Term{}, restdata.Errorf(restdata.BadParameter, "Invalid graph IRI %q", ref)
	}
	return rdf.NewIRI(iri), nil
}

// resolveTarget decides what a graph store request addresses.  If
// graphPath is set, the request path itself names the graph and query
// parameters are ignored; otherwise the graph and default parameters
// select the target.
func resolveTarget(req *http.Request, graphPath bool) (GraphTarget, error) {
	if graphPath {
		iri := absoluteURL(req, req.URL.EscapedPath())
		return GraphTarget{Kind: NamedGraph, Graph: rdf.NewIRI(iri)}, nil
	}
	params := req.URL.Query()
	graphs, haveGraph := params["graph"]
	_, haveDefault := params["default"]
	switch {
	case haveGraph && haveDefault:
		return GraphTarget{}, restdata.Errorf(restdata.ConflictingParameters,
			"Conflicting parameters: both graph and default given")
	case haveGraph:
		if len(graphs) > 1 {
			return GraphTarget{}, restdata.Errorf(restdata.MultipleParameters,
				"Multiple graph parameters")
		}
		graph, err := resolveIRI(req, graphs[0])
		if err != nil {
			return GraphTarget{}, err
		}
		return GraphTarget{Kind: NamedGraph, Graph: graph}, nil
	case haveDefault:
		return GraphTarget{Kind: DefaultGraph}, nil
	}
	return GraphTarget{Kind: WholeStore}, nil
}

// newGraphID returns 32 random hex digits.
func newGraphID() string {
	return strings.Replace(uuid.NewV4().String(), "-", "", -1)
}

// mintGraph picks the IRI of a brand-new graph under the store path.
func (api *restAPI) mintGraph(req *http.Request) (rdf.Term, error) {
	route := api.Router.Get("graph")
	if route == nil {
		return rdf.Term{}, restdata.Errorf(restdata.Internal, "No graph route")
	}
	u, err := route.URL("path", newGraphID())
	if err != nil {
		return rdf.Term{}, restdata.Wrap(restdata.Internal, err)
	}
	return rdf.NewIRI(absoluteURL(req, u.EscapedPath())), nil
}

// graphLocation returns the URL that addresses a named graph through
// this server: the graph IRI itself if it is under the store path,
// or the store path with a graph parameter.
func (api *restAPI) graphLocation(req *http.Request, graph rdf.Term) (string, error) {
	var storePath string
	if err := buildURLs(api.Router).URL(&storePath, "store").Error; err != nil {
		return "", err
	}
	prefix := absoluteURL(req, storePath+"/")
	if strings.HasPrefix(graph.Value, prefix) {
		return graph.Value, nil
	}
	return absoluteURL(req, storePath+"?graph="+url.QueryEscape(graph.Value)), nil
}

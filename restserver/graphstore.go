// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"bytes"
	"net/http"

	"github.com/pkg/errors"

	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/rdfio"
	"github.com/diffeo/go-graphstore/restdata"
	"github.com/diffeo/go-graphstore/store"
)

// graphStore serves the graph store protocol on one route.  If
// graphPath is set, the request path names the graph; otherwise the
// graph and default query parameters do.
type graphStore struct {
	API       *restAPI
	GraphPath bool
}

func (api *restAPI) graphStoreHandler(graphPath bool) http.Handler {
	gs := &graphStore{API: api, GraphPath: graphPath}
	return &resourceHandler{
		API:    api,
		Get:    gs.Get,
		Put:    gs.Put,
		Post:   gs.Post,
		Delete: gs.Delete,
	}
}

// storeError classifies an error from the store.
func storeError(err error) error {
	switch cause := errors.Cause(err).(type) {
	case store.ErrNoSuchGraph:
		return restdata.Errorf(restdata.NoSuchGraph, "No such graph %v", cause.Graph.Value)
	case restdata.Error:
		return cause
	}
	return restdata.Wrap(restdata.Internal, err)
}

// payload is a parsed request body.
type payload struct {
	Format rdfio.Format
	Quads  []rdf.Quad
}

// readPayload checks the Content-Type: header and parses the entire
// request body.  If graphOnly is set, dataset formats are refused.
func readPayload(req *http.Request, graphOnly bool) (payload, error) {
	mediaType, err := contentType(req)
	if err != nil {
		return payload{}, err
	}
	format, ok := rdfio.FormatForMediaType(mediaType)
	if !ok || (graphOnly && format.IsDataset()) {
		return payload{}, restdata.Errorf(restdata.UnsupportedMediaType,
			"Unsupported media type %q", mediaType)
	}
	body, err := readBody(req)
	if err != nil {
		return payload{}, err
	}
	base := absoluteURL(req, req.URL.EscapedPath())
	quads, err := rdfio.Decode(bytes.NewReader(body), format, base, rdf.DefaultGraph)
	if err != nil {
		if _, isSyntax := err.(rdfio.ErrSyntax); isSyntax {
			return payload{}, restdata.Error{Kind: restdata.BadBody, Err: err}
		}
		return payload{}, restdata.Wrap(restdata.Internal, err)
	}
	return payload{Format: format, Quads: quads}, nil
}

// Get returns the contents of the target graph, or of the whole
// dataset.
func (gs *graphStore) Get(resp http.ResponseWriter, req *http.Request) error {
	target, err := resolveTarget(req, gs.GraphPath)
	if err != nil {
		return err
	}
	formats := rdfio.GraphFormats
	if target.Kind == WholeStore {
		formats = rdfio.DatasetFormats
	}
	mediaType, err := negotiateRequest(req, rdfio.AllMediaTypes(formats))
	if err != nil {
		return err
	}
	format, _ := rdfio.FormatForMediaType(mediaType)

	ctx := req.Context()
	var quads []rdf.Quad
	err = gs.API.Store.Atomic(ctx, func(w store.Writer) error {
		var err error
		if target.Kind == WholeStore {
			quads, err = store.DumpDataset(ctx, w)
		} else {
			quads, err = store.DumpGraph(ctx, w, target.GraphName())
		}
		return err
	})
	if err != nil {
		return storeError(err)
	}

	var body bytes.Buffer
	if err = rdfio.Encode(&body, format, quads); err != nil {
		return restdata.Wrap(restdata.Internal, err)
	}
	writeBody(resp, http.StatusOK, format.MediaType(), &body)
	return nil
}

// Put replaces the contents of the target graph.
func (gs *graphStore) Put(resp http.ResponseWriter, req *http.Request) error {
	target, err := resolveTarget(req, gs.GraphPath)
	if err != nil {
		return err
	}
	if target.Kind == WholeStore {
		return restdata.Errorf(restdata.NoTarget, "PUT requires a graph or default parameter")
	}
	body, err := readPayload(req, true)
	if err != nil {
		return err
	}

	ctx := req.Context()
	var created bool
	err = gs.API.Store.Atomic(ctx, func(w store.Writer) error {
		var err error
		created, err = store.ReplaceGraph(ctx, w, target.GraphName(), body.Quads)
		return err
	})
	if err != nil {
		return storeError(err)
	}
	if created {
		resp.WriteHeader(http.StatusCreated)
	} else {
		resp.WriteHeader(http.StatusNoContent)
	}
	return nil
}

// Post merges data into the target.  Triples posted to the whole
// store go into a newly minted graph.
func (gs *graphStore) Post(resp http.ResponseWriter, req *http.Request) error {
	target, err := resolveTarget(req, gs.GraphPath)
	if err != nil {
		return err
	}
	body, err := readPayload(req, false)
	if err != nil {
		return err
	}

	ctx := req.Context()
	if body.Format.IsDataset() {
		err = gs.API.Store.Atomic(ctx, func(w store.Writer) error {
			return store.LoadDataset(ctx, w, body.Quads)
		})
		if err != nil {
			return storeError(err)
		}
		resp.WriteHeader(http.StatusNoContent)
		return nil
	}

	graph := target.GraphName()
	if target.Kind == WholeStore {
		if graph, err = gs.API.mintGraph(req); err != nil {
			return err
		}
	}
	created := false
	err = gs.API.Store.Atomic(ctx, func(w store.Writer) error {
		if target.Kind != DefaultGraph {
			existed, err := w.ContainsNamedGraph(ctx, graph)
			if err != nil {
				return err
			}
			created = !existed
		}
		return store.LoadGraph(ctx, w, graph, body.Quads)
	})
	if err != nil {
		return storeError(err)
	}
	if !created {
		resp.WriteHeader(http.StatusNoContent)
		return nil
	}
	location, err := gs.API.graphLocation(req, graph)
	if err != nil {
		return err
	}
	resp.Header().Set("Location", location)
	resp.WriteHeader(http.StatusCreated)
	return nil
}

// Delete removes the target graph, empties the default graph, or
// empties the whole store.
func (gs *graphStore) Delete(resp http.ResponseWriter, req *http.Request) error {
	target, err := resolveTarget(req, gs.GraphPath)
	if err != nil {
		return err
	}
	ctx := req.Context()
	err = gs.API.Store.Atomic(ctx, func(w store.Writer) error {
		switch target.Kind {
		case WholeStore:
			return w.ClearAll(ctx)
		case DefaultGraph:
			return w.ClearGraph(ctx, rdf.DefaultGraph)
		}
		return w.RemoveNamedGraph(ctx, target.Graph)
	})
	if err != nil {
		return storeError(err)
	}
	resp.WriteHeader(http.StatusNoContent)
	return nil
}

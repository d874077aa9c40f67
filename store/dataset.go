// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package store

import (
	"context"

	"github.com/diffeo/go-graphstore/rdf"
)

// DumpGraph returns the contents of a single graph.  The default
// graph always exists; for a named graph, returns ErrNoSuchGraph if
// it does not exist.
func DumpGraph(ctx context.Context, r Reader, graph rdf.Term) ([]rdf.Quad, error) {
	if !graph.IsDefaultGraph() {
		exists, err := r.ContainsNamedGraph(ctx, graph)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNoSuchGraph{Graph: graph}
		}
	}
	return r.Match(ctx, InGraph(graph))
}

// DumpDataset returns every quad in every graph.
func DumpDataset(ctx context.Context, r Reader) ([]rdf.Quad, error) {
	return r.Match(ctx, Pattern{})
}

// LoadGraph inserts triples into a single graph, creating it if it
// is a named graph that does not exist yet.  The graph component of
// each quad is replaced with graph.
func LoadGraph(ctx context.Context, w Writer, graph rdf.Term, quads []rdf.Quad) error {
	if !graph.IsDefaultGraph() {
		if err := w.InsertNamedGraph(ctx, graph); err != nil {
			return err
		}
	}
	moved := make([]rdf.Quad, len(quads))
	for i, q := range quads {
		q.Graph = graph
		moved[i] = q
	}
	return w.Insert(ctx, moved...)
}

// LoadDataset inserts quads into the graphs they name.
func LoadDataset(ctx context.Context, w Writer, quads []rdf.Quad) error {
	return w.Insert(ctx, quads...)
}

// CreateGraph creates a new, empty named graph, returning
// ErrGraphExists if it is already present.
func CreateGraph(ctx context.Context, w Writer, graph rdf.Term) error {
	exists, err := w.ContainsNamedGraph(ctx, graph)
	if err != nil {
		return err
	}
	if exists {
		return ErrGraphExists{Graph: graph}
	}
	return w.InsertNamedGraph(ctx, graph)
}

// ReplaceGraph clears a graph and loads new triples into it,
// creating the graph if needed.  Returns true if a named graph was
// created.  Callers wanting this to be atomic should call it from
// inside Store.Atomic.
func ReplaceGraph(ctx context.Context, w Writer, graph rdf.Term, quads []rdf.Quad) (bool, error) {
	existed, err := w.ContainsNamedGraph(ctx, graph)
	if err != nil {
		return false, err
	}
	if existed {
		if err = w.ClearGraph(ctx, graph); err != nil {
			return false, err
		}
	}
	return !existed, LoadGraph(ctx, w, graph, quads)
}

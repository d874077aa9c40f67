// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package store defines the interface to an RDF dataset store.
//
// A dataset has one default graph, which always exists, and any
// number of named graphs.  A named graph exists once it has been
// created with InsertNamedGraph or once a quad has been inserted into
// it, and continues to exist even if all of its quads are removed,
// until RemoveNamedGraph or ClearAll.
//
// Every method takes a context, which implementations pass on to
// whatever blocking operations they perform.  Implementations are
// safe for concurrent use.
package store

import (
	"context"
	"fmt"

	"github.com/diffeo/go-graphstore/rdf"
)

// Pattern selects quads.  A nil field matches anything; in
// particular a nil Graph matches quads in every graph, while a Graph
// pointing at rdf.DefaultGraph matches only the default graph.
type Pattern struct {
	Subject   *rdf.Term
	Predicate *rdf.Term
	Object    *rdf.Term
	Graph     *rdf.Term
}

// InGraph returns a pattern matching every quad in a single graph.
func InGraph(graph rdf.Term) Pattern {
	return Pattern{Graph: &graph}
}

// Matches determines whether a quad matches the pattern.
func (p Pattern) Matches(q rdf.Quad) bool {
	return (p.Subject == nil || *p.Subject == q.Subject) &&
		(p.Predicate == nil || *p.Predicate == q.Predicate) &&
		(p.Object == nil || *p.Object == q.Object) &&
		(p.Graph == nil || *p.Graph == q.Graph)
}

// Reader provides read access to a dataset.
type Reader interface {
	// Match returns every quad matching a pattern, in the order
	// of rdf.SortQuads.
	Match(ctx context.Context, p Pattern) ([]rdf.Quad, error)

	// NamedGraphs returns the names of all named graphs, sorted
	// by their N-Triples form.
	NamedGraphs(ctx context.Context) ([]rdf.Term, error)

	// ContainsNamedGraph determines whether a named graph
	// exists.  It is always true for rdf.DefaultGraph.
	ContainsNamedGraph(ctx context.Context, graph rdf.Term) (bool, error)
}

// Writer provides read and write access to a dataset.
type Writer interface {
	Reader

	// Insert adds quads to the dataset, creating any named
	// graphs they mention.  Inserting a quad that is already
	// present does nothing.
	Insert(ctx context.Context, quads ...rdf.Quad) error

	// Remove deletes quads from the dataset.  Removing a quad
	// that is not present does nothing.  Named graphs are not
	// removed even if they become empty.
	Remove(ctx context.Context, quads ...rdf.Quad) error

	// InsertNamedGraph creates an empty named graph if it does
	// not already exist.
	InsertNamedGraph(ctx context.Context, graph rdf.Term) error

	// RemoveNamedGraph deletes a named graph and all of its
	// quads.  Returns ErrNoSuchGraph if it does not exist.
	RemoveNamedGraph(ctx context.Context, graph rdf.Term) error

	// ClearGraph removes every quad in one graph, which may be
	// the default graph.  A named graph continues to exist.
	ClearGraph(ctx context.Context, graph rdf.Term) error

	// ClearAll removes every quad and every named graph.
	ClearAll(ctx context.Context) error
}

// Store is a complete dataset store.
type Store interface {
	Writer

	// Atomic runs f with a Writer whose changes are all applied
	// if f returns nil, and none of which are applied if f
	// returns an error.  Reads through the Writer see the
	// changes f has already made.
	Atomic(ctx context.Context, f func(Writer) error) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrNoSuchGraph is returned when a named graph that is required to
// exist does not.
type ErrNoSuchGraph struct {
	Graph rdf.Term
}

func (err ErrNoSuchGraph) Error() string {
	return fmt.Sprintf("no such graph %v", err.Graph)
}

// ErrGraphExists is returned when creating a named graph that
// already exists.
type ErrGraphExists struct {
	Graph rdf.Term
}

func (err ErrGraphExists) Error() string {
	return fmt.Sprintf("graph %v already exists", err.Graph)
}

// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package rdf

import (
	"sort"
)

// Triple is a single subject-predicate-object statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// InGraph places a triple into a graph, producing a quad.
func (t Triple) InGraph(graph Term) Quad {
	return Quad{
		Subject:   t.Subject,
		Predicate: t.Predicate,
		Object:    t.Object,
		Graph:     graph,
	}
}

// String returns the N-Triples statement for t, without a trailing
// newline.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// Quad is a triple in a specific graph.  A Graph of DefaultGraph
// places the quad in the default graph.
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

// Triple drops the graph component of q.
func (q Quad) Triple() Triple {
	return Triple{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
}

// String returns the N-Quads statement for q, without a trailing
// newline.
func (q Quad) String() string {
	s := q.Subject.String() + " " + q.Predicate.String() + " " + q.Object.String()
	if !q.Graph.IsDefaultGraph() {
		s += " " + q.Graph.String()
	}
	return s + " ."
}

// Valid checks the positional constraints of RDF: the subject is an
// IRI or blank node, the predicate an IRI, the object any term, and
// the graph either the default graph, an IRI, or a blank node.
func (q Quad) Valid() bool {
	return (q.Subject.IsIRI() || q.Subject.IsBlank()) &&
		q.Predicate.IsIRI() &&
		q.Object.Kind != KindNone &&
		!q.Graph.IsLiteral()
}

// SortQuads orders quads by graph, subject, predicate, and object, so
// that stores return deterministic results.
func SortQuads(quads []Quad) {
	sort.Slice(quads, func(i, j int) bool {
		a, b := quads[i], quads[j]
		if a.Graph != b.Graph {
			return a.Graph.String() < b.Graph.String()
		}
		if a.Subject != b.Subject {
			return a.Subject.String() < b.Subject.String()
		}
		if a.Predicate != b.Predicate {
			return a.Predicate.String() < b.Predicate.String()
		}
		return a.Object.String() < b.Object.String()
	})
}

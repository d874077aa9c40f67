// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package rdfio

import (
	"bytes"
	"io"
	"strings"

	"github.com/diffeo/go-graphstore/rdf"
	krdf "github.com/knakk/rdf"
)

const (
	// placeholder fills the subject, predicate, and object of a
	// statement that only carries a graph name.
	placeholder = "<urn:x-graphstore:graph>"

	// relative prefixes IRIs without a scheme, which N-Quads does
	// not allow, while they pass through the decoder.
	relative = "urn:x-graphstore:relative:"
)

// TermReader turns terms in their N-Triples form, as produced by
// rdf.Term.String(), back into terms.  Storage backends keep terms in
// that form.  Statements are collected with Add and AddGraph and then
// parsed together by a single N-Quads decoder.  Blank node labels are
// kept as they are.
type TermReader struct {
	buf bytes.Buffer
	n   int
}

// Add queues one quad.  graph is empty for the default graph.
func (tr *TermReader) Add(graph, subject, predicate, object string) {
	tr.buf.WriteString(absolute(subject))
	tr.buf.WriteByte(' ')
	tr.buf.WriteString(absolute(predicate))
	tr.buf.WriteByte(' ')
	tr.buf.WriteString(absolute(object))
	if graph != "" {
		tr.buf.WriteByte(' ')
		tr.buf.WriteString(absolute(graph))
	}
	tr.buf.WriteString(" .\n")
	tr.n++
}

// AddGraph queues a lone graph name.
func (tr *TermReader) AddGraph(graph string) {
	tr.Add(graph, placeholder, placeholder, placeholder)
}

// Len returns the number of queued statements.
func (tr *TermReader) Len() int {
	return tr.n
}

// Quads parses every queued statement, in order, and resets the
// reader.
func (tr *TermReader) Quads() ([]rdf.Quad, error) {
	defer func() {
		tr.buf.Reset()
		tr.n = 0
	}()
	if tr.n == 0 {
		return nil, nil
	}
	quads := make([]rdf.Quad, 0, tr.n)
	dec := krdf.NewQuadDecoder(bytes.NewReader(tr.buf.Bytes()), krdf.NQuads)
	dec.DefaultGraph = nil
	for {
		quad, err := dec.Decode()
		if err == io.EOF {
			return quads, nil
		}
		if err != nil {
			return nil, ErrSyntax{Format: NQuads, Err: err}
		}
		graph, err := fromKnakk(quad.Ctx)
		if err != nil {
			return nil, err
		}
		q, err := fromKnakkTriple(quad.Triple, graph)
		if err != nil {
			return nil, err
		}
		q.Subject = restore(q.Subject)
		q.Predicate = restore(q.Predicate)
		q.Object = restore(q.Object)
		q.Graph = restore(q.Graph)
		quads = append(quads, q)
	}
}

// Graphs parses every queued statement and returns the graph names,
// in order.
func (tr *TermReader) Graphs() ([]rdf.Term, error) {
	quads, err := tr.Quads()
	if err != nil {
		return nil, err
	}
	graphs := make([]rdf.Term, len(quads))
	for i, q := range quads {
		graphs[i] = q.Graph
	}
	return graphs, nil
}

// absolute gives a relative IRI, or a literal with a relative
// datatype, the relative prefix.
func absolute(term string) string {
	switch {
	case strings.HasPrefix(term, "<"):
		if !hasScheme(term[1:]) {
			return "<" + relative + term[1:]
		}
	case strings.HasPrefix(term, `"`):
		// The value has its quotes escaped.
		if i := strings.LastIndex(term, `"^^<`) + 4; i >= 4 && !hasScheme(term[i:]) {
			return term[:i] + relative + term[i:]
		}
	}
	return term
}

// restore undoes absolute.
func restore(t rdf.Term) rdf.Term {
	switch {
	case t.IsIRI():
		t.Value = strings.TrimPrefix(t.Value, relative)
	case t.IsLiteral():
		t.Datatype = strings.TrimPrefix(t.Datatype, relative)
	}
	return t
}

// hasScheme reports whether iri starts with a URI scheme and its ':'.
func hasScheme(iri string) bool {
	for i := 0; i < len(iri); i++ {
		c := iri[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		case i > 0 && c == ':':
			return true
		default:
			return false
		}
	}
	return false
}

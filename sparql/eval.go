// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package sparql

import (
	"context"
	"fmt"
	"strings"

	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/rdfio"
	"github.com/diffeo/go-graphstore/store"
)

// ResultKind identifies the shape of a query result.
type ResultKind int

const (
	// SolutionsResult is a table of variable bindings.
	SolutionsResult ResultKind = iota + 1

	// BooleanResult is a yes or no answer.
	BooleanResult

	// GraphResult is a set of triples.
	GraphResult
)

// Results holds the outcome of a query.  Only the fields for its
// Kind are set.
type Results struct {
	Kind      ResultKind
	Vars      []string
	Solutions []rdfio.Solution
	Boolean   bool
	Graph     []rdf.Quad
}

// IsGraph is true for CONSTRUCT and DESCRIBE results.
func (r *Results) IsGraph() bool {
	return r.Kind == GraphResult
}

// binding maps variable names, including blank node variables, to
// terms.
type binding map[string]rdf.Term

func (b binding) extend() binding {
	n := make(binding, len(b)+4)
	for k, v := range b {
		n[k] = v
	}
	return n
}

// view is the dataset a WHERE clause is evaluated against.
type view struct {
	reader store.Reader

	// restricted is set when the dataset was given explicitly;
	// otherwise the default graph is the store's default graph and
	// every named graph is visible.
	restricted bool
	defaults   []rdf.Term
	named      map[rdf.Term]bool

	// allNamed keeps every named graph visible even when the
	// default graph is restricted, as for WITH
	allNamed bool
}

func newView(reader store.Reader, from, named []rdf.Term) *view {
	v := &view{reader: reader}
	if len(from) == 0 && len(named) == 0 {
		return v
	}
	v.restricted = true
	v.defaults = from
	v.named = make(map[rdf.Term]bool, len(named))
	for _, g := range named {
		v.named[g] = true
	}
	return v
}

func ptr(n node, b binding) *rdf.Term {
	if !n.isVar() {
		t := n.Term
		return &t
	}
	if t, ok := b[n.Var]; ok {
		return &t
	}
	return nil
}

// matchDefault finds triples in the active default graph.  With an
// explicit dataset this is the merge of the FROM graphs.
func (v *view) matchDefault(ctx context.Context, p store.Pattern) ([]rdf.Quad, error) {
	if !v.restricted {
		g := rdf.DefaultGraph
		p.Graph = &g
		return v.reader.Match(ctx, p)
	}
	var result []rdf.Quad
	seen := make(map[rdf.Triple]bool)
	for _, g := range v.defaults {
		g := g
		p.Graph = &g
		quads, err := v.reader.Match(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, q := range quads {
			t := q.Triple()
			if !seen[t] {
				seen[t] = true
				result = append(result, t.InGraph(rdf.DefaultGraph))
			}
		}
	}
	return result, nil
}

// matchNamed finds quads in the visible named graphs.
func (v *view) matchNamed(ctx context.Context, p store.Pattern) ([]rdf.Quad, error) {
	limited := v.restricted && !v.allNamed
	if p.Graph != nil && limited && !v.named[*p.Graph] {
		return nil, nil
	}
	quads, err := v.reader.Match(ctx, p)
	if err != nil {
		return nil, err
	}
	var result []rdf.Quad
	for _, q := range quads {
		if q.Graph.IsDefaultGraph() || (limited && !v.named[q.Graph]) {
			continue
		}
		result = append(result, q)
	}
	return result, nil
}

// bind tries to extend b so that qp matches q.
func bind(b binding, qp quadPattern, q rdf.Quad) (binding, bool) {
	var n binding
	pairs := [...]struct {
		n node
		t rdf.Term
	}{{qp.S, q.Subject}, {qp.P, q.Predicate}, {qp.O, q.Object}, {qp.G, q.Graph}}
	for _, pair := range pairs {
		if !pair.n.isVar() {
			continue
		}
		if n == nil {
			n = b.extend()
		}
		if t, ok := n[pair.n.Var]; ok {
			if t != pair.t {
				return nil, false
			}
			continue
		}
		n[pair.n.Var] = pair.t
	}
	if n == nil {
		n = b
	}
	return n, true
}

// solve evaluates a basic graph pattern, returning every solution.
func (v *view) solve(ctx context.Context, where []quadPattern) ([]binding, error) {
	solutions := []binding{{}}
	for _, qp := range where {
		var next []binding
		for _, b := range solutions {
			p := store.Pattern{
				Subject:   ptr(qp.S, b),
				Predicate: ptr(qp.P, b),
				Object:    ptr(qp.O, b),
			}
			var (
				quads []rdf.Quad
				err   error
			)
			if qp.G.isDefault() {
				quads, err = v.matchDefault(ctx, p)
			} else {
				p.Graph = ptr(qp.G, b)
				quads, err = v.matchNamed(ctx, p)
			}
			if err != nil {
				return nil, err
			}
			for _, q := range quads {
				if nb, ok := bind(b, qp, q); ok {
					next = append(next, nb)
				}
			}
		}
		solutions = next
		if len(solutions) == 0 {
			break
		}
	}
	return solutions, nil
}

func slice(solutions []binding, offset, limit int) []binding {
	if offset >= len(solutions) {
		return nil
	}
	solutions = solutions[offset:]
	if limit >= 0 && limit < len(solutions) {
		solutions = solutions[:limit]
	}
	return solutions
}

// blankMinter hands out fresh blank node labels.
type blankMinter struct {
	prefix string
	next   int
}

func (m *blankMinter) mint() rdf.Term {
	m.next++
	return rdf.NewBlank(fmt.Sprintf("%s%d", m.prefix, m.next))
}

// instantiate fills a template from one solution.  Blank nodes in the
// template become fresh blank nodes, the same within one solution.
// Patterns with unbound variables or that produce invalid quads are
// skipped.
func instantiate(template []quadPattern, b binding, m *blankMinter, graph *rdf.Term) []rdf.Quad {
	var quads []rdf.Quad
	fresh := make(map[string]rdf.Term)
	resolve := func(n node) (rdf.Term, bool) {
		if n.isVar() {
			t, ok := b[n.Var]
			return t, ok
		}
		if n.Term.IsBlank() {
			t, ok := fresh[n.Term.Value]
			if !ok {
				t = m.mint()
				fresh[n.Term.Value] = t
			}
			return t, true
		}
		return n.Term, true
	}
	for _, qp := range template {
		var (
			q  rdf.Quad
			ok bool
		)
		if q.Subject, ok = resolve(qp.S); !ok {
			continue
		}
		if q.Predicate, ok = resolve(qp.P); !ok {
			continue
		}
		if q.Object, ok = resolve(qp.O); !ok {
			continue
		}
		if q.Graph, ok = resolve(qp.G); !ok {
			continue
		}
		if graph != nil && qp.G.isDefault() {
			q.Graph = *graph
		}
		if !q.Valid() || q.Graph.IsBlank() || q.Graph.IsLiteral() {
			continue
		}
		quads = append(quads, q)
	}
	return quads
}

func dedupe(quads []rdf.Quad) []rdf.Quad {
	seen := make(map[rdf.Quad]bool, len(quads))
	result := quads[:0]
	for _, q := range quads {
		if !seen[q] {
			seen[q] = true
			result = append(result, q)
		}
	}
	return result
}

func solutionKey(vars []string, s rdfio.Solution) string {
	var b strings.Builder
	for _, v := range vars {
		if t, ok := s[v]; ok {
			b.WriteString(t.String())
		}
		b.WriteByte(0)
	}
	return b.String()
}

// evaluate runs a query against a dataset reader.
func evaluate(ctx context.Context, r store.Reader, q *Query, m *blankMinter) (*Results, error) {
	v := newView(r, q.from, q.named)
	solutions, err := v.solve(ctx, q.where)
	if err != nil {
		return nil, err
	}

	switch q.Form {
	case Ask:
		return &Results{Kind: BooleanResult, Boolean: len(slice(solutions, q.offset, q.limit)) > 0}, nil

	case Select:
		vars := q.Vars()
		rows := make([]rdfio.Solution, 0, len(solutions))
		seen := make(map[string]bool)
		for _, b := range solutions {
			row := make(rdfio.Solution, len(vars))
			for _, name := range vars {
				if t, ok := b[name]; ok {
					row[name] = t
				}
			}
			if q.distinct {
				key := solutionKey(vars, row)
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			rows = append(rows, row)
		}
		if q.offset >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[q.offset:]
		}
		if q.limit >= 0 && q.limit < len(rows) {
			rows = rows[:q.limit]
		}
		return &Results{Kind: SolutionsResult, Vars: vars, Solutions: rows}, nil

	case Construct:
		var quads []rdf.Quad
		for _, b := range slice(solutions, q.offset, q.limit) {
			quads = append(quads, instantiate(q.template, b, m, nil)...)
		}
		quads = dedupe(quads)
		rdf.SortQuads(quads)
		return &Results{Kind: GraphResult, Graph: quads}, nil

	case Describe:
		quads, err := describe(ctx, v, q, slice(solutions, q.offset, q.limit))
		if err != nil {
			return nil, err
		}
		return &Results{Kind: GraphResult, Graph: quads}, nil
	}
	return nil, fmt.Errorf("unknown query form %v", q.Form)
}

// describe returns the triples in the active default graph whose
// subject is one of the described resources, following blank node
// objects.
func describe(ctx context.Context, v *view, q *Query, solutions []binding) ([]rdf.Quad, error) {
	var resources []rdf.Term
	seen := make(map[rdf.Term]bool)
	add := func(t rdf.Term) {
		if (t.IsIRI() || t.IsBlank()) && !seen[t] {
			seen[t] = true
			resources = append(resources, t)
		}
	}
	targets := q.describe
	if q.star {
		for _, name := range patternVars(q.where) {
			targets = append(targets, varNode(name))
		}
	}
	for _, n := range targets {
		if !n.isVar() {
			add(n.Term)
			continue
		}
		for _, b := range solutions {
			if t, ok := b[n.Var]; ok {
				add(t)
			}
		}
	}

	var quads []rdf.Quad
	for i := 0; i < len(resources); i++ {
		subject := resources[i]
		found, err := v.matchDefault(ctx, store.Pattern{Subject: &subject})
		if err != nil {
			return nil, err
		}
		for _, fq := range found {
			quads = append(quads, fq)
			if fq.Object.IsBlank() {
				add(fq.Object)
			}
		}
	}
	quads = dedupe(quads)
	rdf.SortQuads(quads)
	return quads, nil
}

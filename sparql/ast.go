// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package sparql

import (
	"github.com/diffeo/go-graphstore/rdf"
)

// node is one position of a triple or quad pattern: either a fixed
// term or a variable.  Blank nodes in query patterns behave as
// variables whose names start with "_:", which cannot clash with
// real variable names and are never projected.
type node struct {
	Term rdf.Term
	Var  string
}

func (n node) isVar() bool {
	return n.Var != ""
}

// isDefault is true for the graph position of a pattern outside any
// GRAPH block.
func (n node) isDefault() bool {
	return n.Var == "" && n.Term.IsDefaultGraph()
}

func termNode(t rdf.Term) node {
	return node{Term: t}
}

func varNode(name string) node {
	return node{Var: name}
}

type quadPattern struct {
	S, P, O, G node
}

// QueryForm identifies the kind of result a query produces.
type QueryForm int

const (
	// Select queries produce a table of solutions.
	Select QueryForm = iota + 1

	// Construct queries produce a graph built from a template.
	Construct

	// Describe queries produce a graph about some resources.
	Describe

	// Ask queries produce a boolean.
	Ask
)

func (f QueryForm) String() string {
	switch f {
	case Select:
		return "SELECT"
	case Construct:
		return "CONSTRUCT"
	case Describe:
		return "DESCRIBE"
	case Ask:
		return "ASK"
	}
	return "unknown"
}

// Query is a parsed query.  Queries are immutable once parsed, so the
// engine can cache and share them.
type Query struct {
	Form QueryForm

	// Base is the base IRI the query was parsed against.
	Base string

	distinct bool
	star     bool
	vars     []string
	template []quadPattern
	describe []node
	where    []quadPattern
	from     []rdf.Term
	named    []rdf.Term
	limit    int
	offset   int
}

// Vars returns the variables a SELECT query projects, in order.
func (q *Query) Vars() []string {
	if q.star {
		return patternVars(q.where)
	}
	return q.vars
}

// Dataset returns the graphs named in FROM and FROM NAMED clauses.
func (q *Query) Dataset() (from, named []rdf.Term) {
	return q.from, q.named
}

// WithDataset returns a copy of q whose FROM and FROM NAMED clauses
// are replaced.  If both lists are empty, q is returned unchanged.
func (q *Query) WithDataset(from, named []rdf.Term) *Query {
	if len(from) == 0 && len(named) == 0 {
		return q
	}
	copied := *q
	copied.from = append([]rdf.Term(nil), from...)
	copied.named = append([]rdf.Term(nil), named...)
	return &copied
}

// patternVars lists the named variables in patterns in order of
// first appearance.
func patternVars(patterns []quadPattern) []string {
	var vars []string
	seen := make(map[string]bool)
	for _, qp := range patterns {
		for _, n := range []node{qp.G, qp.S, qp.P, qp.O} {
			if n.isVar() && !isBlankVar(n.Var) && !seen[n.Var] {
				seen[n.Var] = true
				vars = append(vars, n.Var)
			}
		}
	}
	return vars
}

func isBlankVar(name string) bool {
	return len(name) > 2 && name[:2] == "_:"
}

// Update is a parsed sequence of update operations.  Updates are
// immutable once parsed.
type Update struct {
	// Base is the base IRI the update was parsed against.
	Base string

	operations []operation
}

// HasUsing is true if any operation names its own dataset with
// USING, USING NAMED, or WITH.
func (u *Update) HasUsing() bool {
	for _, op := range u.operations {
		if m, ok := op.(*modify); ok && (m.hasWith || len(m.using) > 0 || len(m.usingNamed) > 0) {
			return true
		}
	}
	return false
}

// WithUsing returns a copy of u in which every DELETE/INSERT ...
// WHERE operation evaluates its WHERE clause against the given
// graphs, as if it had USING and USING NAMED clauses.  Fails with
// ErrUsingConflict if u already has such clauses.  If both lists are
// empty, u is returned unchanged.
func (u *Update) WithUsing(using, usingNamed []rdf.Term) (*Update, error) {
	if len(using) == 0 && len(usingNamed) == 0 {
		return u, nil
	}
	if u.HasUsing() {
		return nil, ErrUsingConflict{}
	}
	copied := &Update{Base: u.Base, operations: make([]operation, len(u.operations))}
	for i, op := range u.operations {
		if m, ok := op.(*modify); ok {
			m2 := *m
			m2.using = append([]rdf.Term(nil), using...)
			m2.usingNamed = append([]rdf.Term(nil), usingNamed...)
			op = &m2
		}
		copied.operations[i] = op
	}
	return copied, nil
}

// operation is one step of an update.
type operation interface {
	exec(x *executor) error
}

// insertData is INSERT DATA.
type insertData struct {
	quads []rdf.Quad
}

// deleteData is DELETE DATA.
type deleteData struct {
	quads []rdf.Quad
}

// modify is DELETE/INSERT ... WHERE, including DELETE WHERE.
type modify struct {
	with       rdf.Term
	hasWith    bool
	deletes    []quadPattern
	inserts    []quadPattern
	using      []rdf.Term
	usingNamed []rdf.Term
	where      []quadPattern
}

// graphRef names the target of a graph management operation.
type graphRef struct {
	// kind is one of "GRAPH", "DEFAULT", "NAMED", "ALL"
	kind  string
	graph rdf.Term
}

// manage is CLEAR, DROP, or CREATE.
type manage struct {
	verb   string
	silent bool
	target graphRef
}

// transfer is ADD, MOVE, or COPY.  A DefaultGraph term stands for
// DEFAULT.
type transfer struct {
	verb     string
	silent   bool
	from, to rdf.Term
}

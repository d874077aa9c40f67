// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package sparql

import (
	"context"

	"github.com/pkg/errors"

	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/store"
)

// executor carries the state of one update through its operations.
type executor struct {
	ctx    context.Context
	w      store.Writer
	minter *blankMinter
}

func (x *executor) run(u *Update) error {
	for _, op := range u.operations {
		if err := op.exec(x); err != nil {
			return err
		}
	}
	return nil
}

// failed turns a missing or existing graph into an evaluation error,
// or into nothing at all for SILENT operations.  Other errors pass
// through.
func failed(err error, silent bool) error {
	switch errors.Cause(err).(type) {
	case store.ErrNoSuchGraph, store.ErrGraphExists:
		if silent {
			return nil
		}
		return EvalError{Err: errors.Cause(err)}
	}
	return err
}

func (op *insertData) exec(x *executor) error {
	// each execution gets its own blank nodes
	fresh := make(map[string]rdf.Term)
	relabel := func(t rdf.Term) rdf.Term {
		if !t.IsBlank() {
			return t
		}
		n, ok := fresh[t.Value]
		if !ok {
			n = x.minter.mint()
			fresh[t.Value] = n
		}
		return n
	}
	quads := make([]rdf.Quad, len(op.quads))
	for i, q := range op.quads {
		q.Subject = relabel(q.Subject)
		q.Object = relabel(q.Object)
		quads[i] = q
	}
	return x.w.Insert(x.ctx, quads...)
}

func (op *deleteData) exec(x *executor) error {
	return x.w.Remove(x.ctx, op.quads...)
}

func (op *modify) exec(x *executor) error {
	var v *view
	switch {
	case len(op.using) > 0 || len(op.usingNamed) > 0:
		v = newView(x.w, op.using, op.usingNamed)
	case op.hasWith:
		v = newView(x.w, []rdf.Term{op.with}, nil)
		v.allNamed = true
	default:
		v = newView(x.w, nil, nil)
	}
	solutions, err := v.solve(x.ctx, op.where)
	if err != nil {
		return err
	}
	var graph *rdf.Term
	if op.hasWith {
		graph = &op.with
	}
	var deletes, inserts []rdf.Quad
	for _, b := range solutions {
		deletes = append(deletes, instantiate(op.deletes, b, x.minter, graph)...)
		inserts = append(inserts, instantiate(op.inserts, b, x.minter, graph)...)
	}
	if len(deletes) > 0 {
		if err = x.w.Remove(x.ctx, dedupe(deletes)...); err != nil {
			return err
		}
	}
	if len(inserts) > 0 {
		return x.w.Insert(x.ctx, dedupe(inserts)...)
	}
	return nil
}

func (op *manage) exec(x *executor) error {
	ctx, w := x.ctx, x.w
	switch op.verb {
	case "CREATE":
		return failed(store.CreateGraph(ctx, w, op.target.graph), op.silent)
	case "CLEAR":
		return op.each(x, func(g rdf.Term) error {
			return w.ClearGraph(ctx, g)
		})
	case "DROP":
		if op.target.kind == "ALL" {
			return w.ClearAll(ctx)
		}
		return op.each(x, func(g rdf.Term) error {
			if g.IsDefaultGraph() {
				return w.ClearGraph(ctx, g)
			}
			return w.RemoveNamedGraph(ctx, g)
		})
	}
	return errors.Errorf("unknown graph operation %s", op.verb)
}

// each calls f on every graph the target names.  A named graph that
// does not exist is an error unless the operation is SILENT.
func (op *manage) each(x *executor, f func(rdf.Term) error) error {
	var graphs []rdf.Term
	switch op.target.kind {
	case "GRAPH":
		exists, err := x.w.ContainsNamedGraph(x.ctx, op.target.graph)
		if err != nil {
			return err
		}
		if !exists {
			return failed(store.ErrNoSuchGraph{Graph: op.target.graph}, op.silent)
		}
		graphs = []rdf.Term{op.target.graph}
	case "DEFAULT":
		graphs = []rdf.Term{rdf.DefaultGraph}
	case "NAMED", "ALL":
		named, err := x.w.NamedGraphs(x.ctx)
		if err != nil {
			return err
		}
		if op.target.kind == "ALL" {
			graphs = append(graphs, rdf.DefaultGraph)
		}
		graphs = append(graphs, named...)
	}
	for _, g := range graphs {
		if err := f(g); err != nil {
			return failed(err, op.silent)
		}
	}
	return nil
}

func (op *transfer) exec(x *executor) error {
	if op.from == op.to {
		return nil
	}
	quads, err := store.DumpGraph(x.ctx, x.w, op.from)
	if err != nil {
		return failed(err, op.silent)
	}
	switch op.verb {
	case "ADD":
		return store.LoadGraph(x.ctx, x.w, op.to, quads)
	case "COPY":
		_, err = store.ReplaceGraph(x.ctx, x.w, op.to, quads)
		return err
	case "MOVE":
		if _, err = store.ReplaceGraph(x.ctx, x.w, op.to, quads); err != nil {
			return err
		}
		if op.from.IsDefaultGraph() {
			return x.w.ClearGraph(x.ctx, op.from)
		}
		return x.w.RemoveNamedGraph(x.ctx, op.from)
	}
	return errors.Errorf("unknown graph operation %s", op.verb)
}

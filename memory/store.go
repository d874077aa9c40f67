// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package memory provides an in-process, in-memory implementation of
// store.Store.  There is no persistence on this store, nor is there
// any automatic sharing.  The entire dataset is behind a single
// global mutex to protect against concurrent updates; in some cases
// this can limit performance in the name of correctness.
//
// This is mostly intended as a simple reference implementation that
// can be used for testing, including in-process testing of the HTTP
// server.  It is generally tuned for correctness, not performance or
// scalability.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/store"
)

// This is the only external entry point to this package:

// New creates a new Store that operates purely in memory.
func New() store.Store {
	return &memStore{data: newDataset()}
}

// dataset holds the actual contents of the store.  Its methods
// assume the caller holds the global lock.
type dataset struct {
	quads  map[rdf.Quad]struct{}
	graphs map[rdf.Term]struct{}
}

func newDataset() *dataset {
	return &dataset{
		quads:  make(map[rdf.Quad]struct{}),
		graphs: make(map[rdf.Term]struct{}),
	}
}

// journal records how to undo changes made inside a transaction.  A
// nil journal records nothing.
type journal []func(*dataset)

func (j *journal) record(undo func(*dataset)) {
	if j != nil {
		*j = append(*j, undo)
	}
}

func (d *dataset) match(p store.Pattern) []rdf.Quad {
	var result []rdf.Quad
	for q := range d.quads {
		if p.Matches(q) {
			result = append(result, q)
		}
	}
	rdf.SortQuads(result)
	return result
}

func (d *dataset) namedGraphs() []rdf.Term {
	result := make([]rdf.Term, 0, len(d.graphs))
	for g := range d.graphs {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].String() < result[j].String()
	})
	return result
}

func (d *dataset) contains(graph rdf.Term) bool {
	if graph.IsDefaultGraph() {
		return true
	}
	_, present := d.graphs[graph]
	return present
}

func (d *dataset) insertGraph(j *journal, graph rdf.Term) {
	if d.contains(graph) {
		return
	}
	d.graphs[graph] = struct{}{}
	j.record(func(d *dataset) { delete(d.graphs, graph) })
}

func (d *dataset) insert(j *journal, q rdf.Quad) {
	d.insertGraph(j, q.Graph)
	if _, present := d.quads[q]; present {
		return
	}
	d.quads[q] = struct{}{}
	j.record(func(d *dataset) { delete(d.quads, q) })
}

func (d *dataset) remove(j *journal, q rdf.Quad) {
	if _, present := d.quads[q]; !present {
		return
	}
	delete(d.quads, q)
	j.record(func(d *dataset) { d.quads[q] = struct{}{} })
}

func (d *dataset) clearGraph(j *journal, graph rdf.Term) {
	for q := range d.quads {
		if q.Graph == graph {
			d.remove(j, q)
		}
	}
}

func (d *dataset) removeGraph(j *journal, graph rdf.Term) error {
	if !d.contains(graph) {
		return store.ErrNoSuchGraph{Graph: graph}
	}
	d.clearGraph(j, graph)
	if graph.IsDefaultGraph() {
		return nil
	}
	delete(d.graphs, graph)
	j.record(func(d *dataset) { d.graphs[graph] = struct{}{} })
	return nil
}

func (d *dataset) clearAll(j *journal) {
	for q := range d.quads {
		d.remove(j, q)
	}
	for g := range d.graphs {
		delete(d.graphs, g)
		graph := g
		j.record(func(d *dataset) { d.graphs[graph] = struct{}{} })
	}
}

// writer implements store.Writer on a dataset, without locking.
type writer struct {
	data    *dataset
	journal *journal
}

func (w writer) Match(ctx context.Context, p store.Pattern) ([]rdf.Quad, error) {
	return w.data.match(p), nil
}

func (w writer) NamedGraphs(ctx context.Context) ([]rdf.Term, error) {
	return w.data.namedGraphs(), nil
}

func (w writer) ContainsNamedGraph(ctx context.Context, graph rdf.Term) (bool, error) {
	return w.data.contains(graph), nil
}

func (w writer) Insert(ctx context.Context, quads ...rdf.Quad) error {
	for _, q := range quads {
		w.data.insert(w.journal, q)
	}
	return nil
}

func (w writer) Remove(ctx context.Context, quads ...rdf.Quad) error {
	for _, q := range quads {
		w.data.remove(w.journal, q)
	}
	return nil
}

func (w writer) InsertNamedGraph(ctx context.Context, graph rdf.Term) error {
	w.data.insertGraph(w.journal, graph)
	return nil
}

func (w writer) RemoveNamedGraph(ctx context.Context, graph rdf.Term) error {
	return w.data.removeGraph(w.journal, graph)
}

func (w writer) ClearGraph(ctx context.Context, graph rdf.Term) error {
	w.data.clearGraph(w.journal, graph)
	return nil
}

func (w writer) ClearAll(ctx context.Context) error {
	w.data.clearAll(w.journal)
	return nil
}

// memStore wraps the dataset in the global lock.
type memStore struct {
	data *dataset
	sem  sync.Mutex
}

func (s *memStore) do(f func(writer) error) error {
	s.sem.Lock()
	defer s.sem.Unlock()
	return f(writer{data: s.data})
}

func (s *memStore) Match(ctx context.Context, p store.Pattern) (result []rdf.Quad, err error) {
	err = s.do(func(w writer) error {
		result, err = w.Match(ctx, p)
		return err
	})
	return
}

func (s *memStore) NamedGraphs(ctx context.Context) (result []rdf.Term, err error) {
	err = s.do(func(w writer) error {
		result, err = w.NamedGraphs(ctx)
		return err
	})
	return
}

func (s *memStore) ContainsNamedGraph(ctx context.Context, graph rdf.Term) (present bool, err error) {
	err = s.do(func(w writer) error {
		present, err = w.ContainsNamedGraph(ctx, graph)
		return err
	})
	return
}

func (s *memStore) Insert(ctx context.Context, quads ...rdf.Quad) error {
	return s.do(func(w writer) error { return w.Insert(ctx, quads...) })
}

func (s *memStore) Remove(ctx context.Context, quads ...rdf.Quad) error {
	return s.do(func(w writer) error { return w.Remove(ctx, quads...) })
}

func (s *memStore) InsertNamedGraph(ctx context.Context, graph rdf.Term) error {
	return s.do(func(w writer) error { return w.InsertNamedGraph(ctx, graph) })
}

func (s *memStore) RemoveNamedGraph(ctx context.Context, graph rdf.Term) error {
	return s.do(func(w writer) error { return w.RemoveNamedGraph(ctx, graph) })
}

func (s *memStore) ClearGraph(ctx context.Context, graph rdf.Term) error {
	return s.do(func(w writer) error { return w.ClearGraph(ctx, graph) })
}

func (s *memStore) ClearAll(ctx context.Context) error {
	return s.do(func(w writer) error { return w.ClearAll(ctx) })
}

// Atomic holds the global lock for the duration of f, and replays
// the journal backwards if f fails or panics.
func (s *memStore) Atomic(ctx context.Context, f func(store.Writer) error) (err error) {
	s.sem.Lock()
	defer s.sem.Unlock()

	var j journal
	committed := false
	defer func() {
		if committed {
			return
		}
		for i := len(j) - 1; i >= 0; i-- {
			j[i](s.data)
		}
	}()
	err = f(writer{data: s.data, journal: &j})
	if err == nil {
		err = ctx.Err()
	}
	committed = err == nil
	return err
}

func (s *memStore) Close() error {
	return nil
}

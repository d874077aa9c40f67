// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package badgerstore provides a persistent store.Store on top of the
// Badger embedded key-value database.
//
// Every quad is written under two keys, one ordered graph first and
// one ordered subject first, so that patterns binding either the graph
// or the subject become prefix scans.  Terms are stored in their
// N-Triples form, which never contains a NUL byte, so NUL separates
// the components of a key.  Named graphs have their own keys so that
// empty graphs persist.  Badger transactions provide Atomic.
package badgerstore

import (
	"bytes"
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/rdfio"
	"github.com/diffeo/go-graphstore/store"
	"github.com/pkg/errors"
)

const sep = "\x00"

var (
	graphPrefix = []byte("g" + sep)
	gspoPrefix  = []byte("q" + sep)
	spogPrefix  = []byte("s" + sep)
)

// Open opens or creates a store in a directory.  An empty directory
// name creates a store that lives only in memory.
func Open(dir string) (store.Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening badger store %q", dir)
	}
	return &badgerStore{db: db}, nil
}

func graphKey(graph rdf.Term) []byte {
	return append(append([]byte{}, graphPrefix...), graph.String()...)
}

func gspoKey(q rdf.Quad) []byte {
	return []byte(string(gspoPrefix) + q.Graph.String() + sep + q.Subject.String() + sep + q.Predicate.String() + sep + q.Object.String())
}

func spogKey(q rdf.Quad) []byte {
	return []byte(string(spogPrefix) + q.Subject.String() + sep + q.Predicate.String() + sep + q.Object.String() + sep + q.Graph.String())
}

// addKey queues the terms of a graph-first or subject-first key.
func addKey(tr *rdfio.TermReader, key []byte) error {
	var (
		parts [][]byte
		gspo  bool
	)
	switch {
	case bytes.HasPrefix(key, gspoPrefix):
		parts, gspo = bytes.Split(key[len(gspoPrefix):], []byte(sep)), true
	case bytes.HasPrefix(key, spogPrefix):
		parts = bytes.Split(key[len(spogPrefix):], []byte(sep))
	}
	if len(parts) != 4 {
		return errors.Errorf("corrupt quad key %q", key)
	}
	if gspo {
		tr.Add(string(parts[0]), string(parts[1]), string(parts[2]), string(parts[3]))
	} else {
		tr.Add(string(parts[3]), string(parts[0]), string(parts[1]), string(parts[2]))
	}
	return nil
}

// txnWriter implements store.Writer inside one badger transaction.
type txnWriter struct {
	txn *badger.Txn
}

// scan calls f with a copy of every key with a prefix.
func (w txnWriter) scan(prefix []byte, f func(key []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := w.txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := f(it.Item().KeyCopy(nil)); err != nil {
			return err
		}
	}
	return nil
}

func (w txnWriter) exists(key []byte) (bool, error) {
	_, err := w.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "reading badger store")
	}
	return true, nil
}

func (w txnWriter) Match(ctx context.Context, p store.Pattern) ([]rdf.Quad, error) {
	var prefix []byte
	switch {
	case p.Graph != nil:
		prefix = []byte(string(gspoPrefix) + p.Graph.String() + sep)
		if p.Subject != nil {
			prefix = append(prefix, p.Subject.String()+sep...)
		}
	case p.Subject != nil:
		prefix = []byte(string(spogPrefix) + p.Subject.String() + sep)
	default:
		prefix = gspoPrefix
	}
	var tr rdfio.TermReader
	err := w.scan(prefix, func(key []byte) error {
		return addKey(&tr, key)
	})
	if err != nil {
		return nil, err
	}
	all, err := tr.Quads()
	if err != nil {
		return nil, errors.Wrap(err, "corrupt quad key")
	}
	var quads []rdf.Quad
	for _, q := range all {
		if p.Matches(q) {
			quads = append(quads, q)
		}
	}
	rdf.SortQuads(quads)
	return quads, nil
}

func (w txnWriter) NamedGraphs(ctx context.Context) ([]rdf.Term, error) {
	var tr rdfio.TermReader
	err := w.scan(graphPrefix, func(key []byte) error {
		tr.AddGraph(string(key[len(graphPrefix):]))
		return nil
	})
	if err != nil {
		return nil, err
	}
	graphs, err := tr.Graphs()
	if err != nil {
		return nil, errors.Wrap(err, "corrupt graph key")
	}
	sort.Slice(graphs, func(i, j int) bool {
		return graphs[i].String() < graphs[j].String()
	})
	return graphs, nil
}

func (w txnWriter) ContainsNamedGraph(ctx context.Context, graph rdf.Term) (bool, error) {
	if graph.IsDefaultGraph() {
		return true, nil
	}
	return w.exists(graphKey(graph))
}

func (w txnWriter) Insert(ctx context.Context, quads ...rdf.Quad) error {
	for _, q := range quads {
		if !q.Graph.IsDefaultGraph() {
			if err := w.InsertNamedGraph(ctx, q.Graph); err != nil {
				return err
			}
		}
		if err := w.txn.Set(gspoKey(q), nil); err != nil {
			return errors.Wrap(err, "writing badger store")
		}
		if err := w.txn.Set(spogKey(q), nil); err != nil {
			return errors.Wrap(err, "writing badger store")
		}
	}
	return nil
}

func (w txnWriter) Remove(ctx context.Context, quads ...rdf.Quad) error {
	for _, q := range quads {
		if err := w.txn.Delete(gspoKey(q)); err != nil {
			return errors.Wrap(err, "writing badger store")
		}
		if err := w.txn.Delete(spogKey(q)); err != nil {
			return errors.Wrap(err, "writing badger store")
		}
	}
	return nil
}

func (w txnWriter) InsertNamedGraph(ctx context.Context, graph rdf.Term) error {
	if graph.IsDefaultGraph() {
		return nil
	}
	return errors.Wrap(w.txn.Set(graphKey(graph), nil), "writing badger store")
}

func (w txnWriter) RemoveNamedGraph(ctx context.Context, graph rdf.Term) error {
	exists, err := w.ContainsNamedGraph(ctx, graph)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNoSuchGraph{Graph: graph}
	}
	if err = w.ClearGraph(ctx, graph); err != nil {
		return err
	}
	return errors.Wrap(w.txn.Delete(graphKey(graph)), "writing badger store")
}

func (w txnWriter) ClearGraph(ctx context.Context, graph rdf.Term) error {
	quads, err := w.Match(ctx, store.InGraph(graph))
	if err != nil {
		return err
	}
	return w.Remove(ctx, quads...)
}

func (w txnWriter) ClearAll(ctx context.Context) error {
	var keys [][]byte
	for _, prefix := range [][]byte{graphPrefix, gspoPrefix, spogPrefix} {
		err := w.scan(prefix, func(key []byte) error {
			keys = append(keys, key)
			return nil
		})
		if err != nil {
			return err
		}
	}
	for _, key := range keys {
		if err := w.txn.Delete(key); err != nil {
			return errors.Wrap(err, "writing badger store")
		}
	}
	return nil
}

// badgerStore runs each top-level call in its own transaction.
type badgerStore struct {
	db *badger.DB
}

func (s *badgerStore) view(f func(txnWriter) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return f(txnWriter{txn: txn})
	})
}

func (s *badgerStore) Match(ctx context.Context, p store.Pattern) (quads []rdf.Quad, err error) {
	err = s.view(func(w txnWriter) error {
		quads, err = w.Match(ctx, p)
		return err
	})
	return
}

func (s *badgerStore) NamedGraphs(ctx context.Context) (graphs []rdf.Term, err error) {
	err = s.view(func(w txnWriter) error {
		graphs, err = w.NamedGraphs(ctx)
		return err
	})
	return
}

func (s *badgerStore) ContainsNamedGraph(ctx context.Context, graph rdf.Term) (exists bool, err error) {
	err = s.view(func(w txnWriter) error {
		exists, err = w.ContainsNamedGraph(ctx, graph)
		return err
	})
	return
}

func (s *badgerStore) Insert(ctx context.Context, quads ...rdf.Quad) error {
	return s.Atomic(ctx, func(w store.Writer) error { return w.Insert(ctx, quads...) })
}

func (s *badgerStore) Remove(ctx context.Context, quads ...rdf.Quad) error {
	return s.Atomic(ctx, func(w store.Writer) error { return w.Remove(ctx, quads...) })
}

func (s *badgerStore) InsertNamedGraph(ctx context.Context, graph rdf.Term) error {
	return s.Atomic(ctx, func(w store.Writer) error { return w.InsertNamedGraph(ctx, graph) })
}

func (s *badgerStore) RemoveNamedGraph(ctx context.Context, graph rdf.Term) error {
	return s.Atomic(ctx, func(w store.Writer) error { return w.RemoveNamedGraph(ctx, graph) })
}

func (s *badgerStore) ClearGraph(ctx context.Context, graph rdf.Term) error {
	return s.Atomic(ctx, func(w store.Writer) error { return w.ClearGraph(ctx, graph) })
}

// ClearAll outside a transaction drops the whole database, which is
// much cheaper than deleting key by key.
func (s *badgerStore) ClearAll(ctx context.Context) error {
	return errors.Wrap(s.db.DropAll(), "clearing badger store")
}

func (s *badgerStore) Atomic(ctx context.Context, f func(store.Writer) error) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := f(txnWriter{txn: txn}); err != nil {
			return err
		}
		return ctx.Err()
	})
	if err == badger.ErrTxnTooBig {
		return errors.Wrap(err, "badger transaction")
	}
	return err
}

func (s *badgerStore) Close() error {
	return errors.Wrap(s.db.Close(), "closing badger store")
}

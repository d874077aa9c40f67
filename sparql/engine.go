// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package sparql implements a small SPARQL 1.1 query and update
// engine over a store.Store.
//
// The supported language covers basic graph patterns, optionally in
// GRAPH blocks, with the SELECT, ASK, CONSTRUCT, and DESCRIBE query
// forms and the data, pattern, and graph management update
// operations.  Parsed queries and updates are cached, keyed by their
// text and base IRI.
package sparql

import (
	"context"
	"strings"

	"github.com/satori/go.uuid"

	"github.com/diffeo/go-graphstore/cache"
	"github.com/diffeo/go-graphstore/store"
)

// Engine runs queries and updates against a single store.
type Engine struct {
	store   store.Store
	queries *cache.LRU
	updates *cache.LRU
}

// NewEngine creates an engine over st, caching up to cacheSize
// parsed queries and as many parsed updates.
func NewEngine(st store.Store, cacheSize int) *Engine {
	return &Engine{
		store:   st,
		queries: cache.NewLRU(cacheSize),
		updates: cache.NewLRU(cacheSize),
	}
}

func cacheKey(text, base string) string {
	return base + "\x00" + text
}

// ParseQuery parses a query, or returns a cached copy.
func (e *Engine) ParseQuery(text, base string) (*Query, error) {
	q, err := e.queries.Get(cacheKey(text, base), func(string) (interface{}, error) {
		return ParseQuery(text, base)
	})
	if err != nil {
		return nil, err
	}
	return q.(*Query), nil
}

// ParseUpdate parses an update, or returns a cached copy.
func (e *Engine) ParseUpdate(text, base string) (*Update, error) {
	u, err := e.updates.Get(cacheKey(text, base), func(string) (interface{}, error) {
		return ParseUpdate(text, base)
	})
	if err != nil {
		return nil, err
	}
	return u.(*Update), nil
}

// CacheStats returns the combined hit and miss counts of the parse
// caches.
func (e *Engine) CacheStats() (hits, misses uint64) {
	qh, qm := e.queries.Stats()
	uh, um := e.updates.Stats()
	return qh + uh, qm + um
}

func newMinter() *blankMinter {
	id := strings.Replace(uuid.NewV4().String(), "-", "", -1)
	return &blankMinter{prefix: "b" + id[:12] + "x"}
}

// Query evaluates a query against a consistent view of the store.
func (e *Engine) Query(ctx context.Context, q *Query) (*Results, error) {
	var results *Results
	err := e.store.Atomic(ctx, func(w store.Writer) error {
		var err error
		results, err = evaluate(ctx, w, q, newMinter())
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Update applies every operation of an update in a single
// transaction.  If any operation fails, none of them take effect.
func (e *Engine) Update(ctx context.Context, u *Update) error {
	return e.store.Atomic(ctx, func(w store.Writer) error {
		x := &executor{ctx: ctx, w: w, minter: newMinter()}
		return x.run(u)
	})
}

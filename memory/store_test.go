// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/diffeo/go-graphstore/memory"
	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/store"
	"github.com/diffeo/go-graphstore/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Suite runs the generic store tests against the memory backend.
type Suite struct {
	storetest.Suite
}

// SetupSuite creates the store.
func (s *Suite) SetupSuite() {
	s.Suite.SetupSuite()
	s.Store = memory.New()
}

// TestStore runs the Store generic tests.
func TestStore(t *testing.T) {
	suite.Run(t, &Suite{})
}

// TestConcurrentInsert checks that the global lock serializes
// concurrent writers.
func TestConcurrentInsert(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	knows := rdf.NewIRI("http://xmlns.com/foaf/0.1/knows")
	g := rdf.NewIRI("http://example.com/g")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subject := rdf.NewBlank(string(rune('a' + i)))
			_ = s.Atomic(ctx, func(w store.Writer) error {
				return w.Insert(ctx, rdf.Quad{Subject: subject, Predicate: knows, Object: subject, Graph: g})
			})
		}(i)
	}
	wg.Wait()

	quads, err := s.Match(ctx, store.InGraph(g))
	assert.NoError(t, err)
	assert.Len(t, quads, 16)
}

// TestAtomicCanceled checks that a canceled context rolls back.
func TestAtomicCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := memory.New()
	g := rdf.NewIRI("http://example.com/g")
	err := s.Atomic(ctx, func(w store.Writer) error {
		cancel()
		return w.InsertNamedGraph(ctx, g)
	})
	assert.Equal(t, context.Canceled, err)
	present, err := s.ContainsNamedGraph(context.Background(), g)
	assert.NoError(t, err)
	assert.False(t, present)
}

// TestAtomicPanic checks that a panic inside f rolls back what f
// wrote and releases the lock.
func TestAtomicPanic(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := rdf.NewIRI("http://example.com/g")
	q := rdf.Quad{
		Subject:   rdf.NewIRI("http://example.com/a"),
		Predicate: rdf.NewIRI("http://example.com/p"),
		Object:    rdf.NewLiteral("x"),
		Graph:     g,
	}
	assert.Panics(t, func() {
		_ = s.Atomic(ctx, func(w store.Writer) error {
			if err := w.Insert(ctx, q); err != nil {
				return err
			}
			panic("write failed")
		})
	})

	quads, err := s.Match(ctx, store.Pattern{})
	require.NoError(t, err)
	assert.Empty(t, quads)
	present, err := s.ContainsNamedGraph(ctx, g)
	require.NoError(t, err)
	assert.False(t, present)
}

// TestRemoveDefaultGraphRollback checks that undoing the removal of
// the default graph restores its triples and nothing else.
func TestRemoveDefaultGraphRollback(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	q := rdf.Quad{
		Subject:   rdf.NewIRI("http://example.com/a"),
		Predicate: rdf.NewIRI("http://example.com/p"),
		Object:    rdf.NewLiteral("x"),
	}
	require.NoError(t, s.Insert(ctx, q))

	failed := errors.New("failed")
	err := s.Atomic(ctx, func(w store.Writer) error {
		if err := w.RemoveNamedGraph(ctx, rdf.DefaultGraph); err != nil {
			return err
		}
		return failed
	})
	assert.Equal(t, failed, err)

	quads, err := s.Match(ctx, store.InGraph(rdf.DefaultGraph))
	require.NoError(t, err)
	assert.Equal(t, []rdf.Quad{q}, quads)
	graphs, err := s.NamedGraphs(ctx)
	require.NoError(t, err)
	assert.Empty(t, graphs)

	require.NoError(t, s.RemoveNamedGraph(ctx, rdf.DefaultGraph))
	graphs, err = s.NamedGraphs(ctx)
	require.NoError(t, err)
	assert.Empty(t, graphs)
	present, err := s.ContainsNamedGraph(ctx, rdf.DefaultGraph)
	require.NoError(t, err)
	assert.True(t, present)
}

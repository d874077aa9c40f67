// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package storetest provides generic functional tests for the Store
// interface.  A typical backend test module needs to wrap Suite to
// create its backend:
//
//     package mybackend
//
//     import (
//             "testing"
//             "github.com/diffeo/go-graphstore/store/storetest"
//             "github.com/stretchr/testify/suite"
//     )
//
//     // Suite is the per-backend generic test suite.
//     type Suite struct{
//             storetest.Suite
//     }
//
//     // SetupSuite does global setup for the test suite.
//     func (s *Suite) SetupSuite() {
//             s.Suite.SetupSuite()
//             s.Store = New()
//     }
//
//     // TestStore runs the Store generic tests.
//     func TestStore(t *testing.T) {
//             suite.Run(t, &Suite{})
//     }
package storetest

import (
	"context"
	"errors"

	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/store"
	"github.com/stretchr/testify/suite"
)

// Suite is the generic Store backend test suite.
type Suite struct {
	suite.Suite

	// Store contains the backend under test.  It is set by
	// importing packages.
	Store store.Store

	// Ctx is the context passed to every store call.
	Ctx context.Context
}

// SetupSuite does one-time initialization for the test suite.
func (s *Suite) SetupSuite() {
	s.Ctx = context.Background()
}

// SetupTest empties the store before each test.
func (s *Suite) SetupTest() {
	s.Require().NoError(s.Store.ClearAll(s.Ctx))
}

// TearDownSuite closes the store.
func (s *Suite) TearDownSuite() {
	if s.Store != nil {
		s.NoError(s.Store.Close())
	}
}

var (
	alice = rdf.NewIRI("http://example.com/alice")
	bob   = rdf.NewIRI("http://example.com/bob")
	carol = rdf.NewIRI("http://example.com/carol")
	knows = rdf.NewIRI("http://xmlns.com/foaf/0.1/knows")
	name  = rdf.NewIRI("http://xmlns.com/foaf/0.1/name")
	g1    = rdf.NewIRI("http://example.com/g1")
	g2    = rdf.NewIRI("http://example.com/g2")
)

func quad(s, p, o, g rdf.Term) rdf.Quad {
	return rdf.Quad{Subject: s, Predicate: p, Object: o, Graph: g}
}

func (s *Suite) insert(quads ...rdf.Quad) {
	s.Require().NoError(s.Store.Insert(s.Ctx, quads...))
}

func (s *Suite) namedGraphs() []rdf.Term {
	graphs, err := s.Store.NamedGraphs(s.Ctx)
	s.Require().NoError(err)
	return graphs
}

func (s *Suite) contains(graph rdf.Term) bool {
	exists, err := s.Store.ContainsNamedGraph(s.Ctx, graph)
	s.Require().NoError(err)
	return exists
}

func (s *Suite) match(p store.Pattern) []rdf.Quad {
	quads, err := s.Store.Match(s.Ctx, p)
	s.Require().NoError(err)
	return quads
}

// TestEmpty checks the state of a new store.
func (s *Suite) TestEmpty() {
	s.Empty(s.namedGraphs())
	s.True(s.contains(rdf.DefaultGraph))
	s.False(s.contains(g1))
	s.Empty(s.match(store.Pattern{}))
}

// TestInsertCreatesGraph checks that inserting a quad into a named
// graph creates it.
func (s *Suite) TestInsertCreatesGraph() {
	s.insert(quad(alice, knows, bob, g1))
	s.True(s.contains(g1))
	s.Equal([]rdf.Term{g1}, s.namedGraphs())

	s.insert(quad(alice, knows, bob, rdf.DefaultGraph))
	s.Equal([]rdf.Term{g1}, s.namedGraphs())
}

// TestInsertDuplicate checks that quads are a set.
func (s *Suite) TestInsertDuplicate() {
	q := quad(alice, knows, bob, g1)
	s.insert(q, q)
	s.insert(q)
	s.Equal([]rdf.Quad{q}, s.match(store.Pattern{}))
}

// TestEmptyNamedGraph checks that a named graph may exist with no
// quads.
func (s *Suite) TestEmptyNamedGraph() {
	s.Require().NoError(s.Store.InsertNamedGraph(s.Ctx, g1))
	s.Require().NoError(s.Store.InsertNamedGraph(s.Ctx, g1))
	s.True(s.contains(g1))
	s.Empty(s.match(store.InGraph(g1)))

	s.insert(quad(alice, knows, bob, g1))
	s.Require().NoError(s.Store.Remove(s.Ctx, quad(alice, knows, bob, g1)))
	s.True(s.contains(g1))
	s.Empty(s.match(store.InGraph(g1)))
}

// TestMatch checks pattern matching and result order.
func (s *Suite) TestMatch() {
	quads := []rdf.Quad{
		quad(bob, knows, carol, g1),
		quad(alice, knows, bob, rdf.DefaultGraph),
		quad(alice, name, rdf.NewLiteral("Alice"), rdf.DefaultGraph),
		quad(alice, knows, carol, g2),
		quad(bob, name, rdf.NewLangLiteral("Bob", "en"), g1),
	}
	s.insert(quads...)

	all := s.match(store.Pattern{})
	expected := append([]rdf.Quad(nil), quads...)
	rdf.SortQuads(expected)
	s.Equal(expected, all)

	s.Equal([]rdf.Quad{quads[1], quads[2]}, s.match(store.InGraph(rdf.DefaultGraph)))

	s.Equal([]rdf.Quad{quads[0], quads[3]}, s.match(store.Pattern{Object: &carol}))
	s.Equal([]rdf.Quad{quads[3]}, s.match(store.Pattern{Object: &carol, Graph: &g2}))
	s.Equal([]rdf.Quad{quads[0], quads[4]}, s.match(store.Pattern{Subject: &bob}))
	s.Len(s.match(store.Pattern{Predicate: &name}), 2)
	s.Empty(s.match(store.Pattern{Subject: &carol}))

	lit := rdf.NewLangLiteral("Bob", "en")
	s.Equal([]rdf.Quad{quads[4]}, s.match(store.Pattern{Object: &lit}))
}

// TestBlankNodes checks that blank nodes round-trip.
func (s *Suite) TestBlankNodes() {
	b := rdf.NewBlank("b0_1")
	q := quad(b, knows, b, g1)
	s.insert(q)
	s.Equal([]rdf.Quad{q}, s.match(store.Pattern{Subject: &b}))
}

// TestRemoveNamedGraph checks removing a graph and its contents.
func (s *Suite) TestRemoveNamedGraph() {
	s.insert(quad(alice, knows, bob, g1), quad(alice, knows, bob, g2))
	s.Require().NoError(s.Store.RemoveNamedGraph(s.Ctx, g1))
	s.False(s.contains(g1))
	s.Equal([]rdf.Term{g2}, s.namedGraphs())
	s.Empty(s.match(store.InGraph(g1)))
	s.Len(s.match(store.Pattern{}), 1)

	err := s.Store.RemoveNamedGraph(s.Ctx, g1)
	s.Equal(store.ErrNoSuchGraph{Graph: g1}, err)
}

// TestClearGraph checks clearing the default and named graphs.
func (s *Suite) TestClearGraph() {
	s.insert(
		quad(alice, knows, bob, rdf.DefaultGraph),
		quad(alice, knows, bob, g1),
	)
	s.Require().NoError(s.Store.ClearGraph(s.Ctx, rdf.DefaultGraph))
	s.Empty(s.match(store.InGraph(rdf.DefaultGraph)))
	s.Len(s.match(store.InGraph(g1)), 1)

	s.Require().NoError(s.Store.ClearGraph(s.Ctx, g1))
	s.Empty(s.match(store.Pattern{}))
	s.True(s.contains(g1))
}

// TestClearAll checks that clearing everything drops named graphs.
func (s *Suite) TestClearAll() {
	s.insert(
		quad(alice, knows, bob, rdf.DefaultGraph),
		quad(alice, knows, bob, g1),
	)
	s.Require().NoError(s.Store.InsertNamedGraph(s.Ctx, g2))
	s.Require().NoError(s.Store.ClearAll(s.Ctx))
	s.Empty(s.namedGraphs())
	s.Empty(s.match(store.Pattern{}))
}

// TestAtomicCommit checks that changes made in a transaction are
// visible inside it and afterwards.
func (s *Suite) TestAtomicCommit() {
	err := s.Store.Atomic(s.Ctx, func(w store.Writer) error {
		if err := w.Insert(s.Ctx, quad(alice, knows, bob, g1)); err != nil {
			return err
		}
		exists, err := w.ContainsNamedGraph(s.Ctx, g1)
		s.NoError(err)
		s.True(exists)
		quads, err := w.Match(s.Ctx, store.InGraph(g1))
		s.NoError(err)
		s.Len(quads, 1)
		return nil
	})
	s.Require().NoError(err)
	s.True(s.contains(g1))
	s.Len(s.match(store.InGraph(g1)), 1)
}

// TestAtomicRollback checks that a failing transaction changes
// nothing.
func (s *Suite) TestAtomicRollback() {
	s.insert(quad(alice, knows, bob, rdf.DefaultGraph))
	failure := errors.New("failure")
	err := s.Store.Atomic(s.Ctx, func(w store.Writer) error {
		if err := w.ClearAll(s.Ctx); err != nil {
			return err
		}
		if err := w.Insert(s.Ctx, quad(alice, knows, carol, g2)); err != nil {
			return err
		}
		return failure
	})
	s.Equal(failure, err)
	s.False(s.contains(g2))
	s.Equal([]rdf.Quad{quad(alice, knows, bob, rdf.DefaultGraph)}, s.match(store.Pattern{}))
}

// TestDumpGraph checks the dump helpers.
func (s *Suite) TestDumpGraph() {
	_, err := store.DumpGraph(s.Ctx, s.Store, g1)
	s.Equal(store.ErrNoSuchGraph{Graph: g1}, err)

	quads, err := store.DumpGraph(s.Ctx, s.Store, rdf.DefaultGraph)
	s.NoError(err)
	s.Empty(quads)

	s.insert(quad(alice, knows, bob, g1), quad(bob, knows, carol, rdf.DefaultGraph))
	quads, err = store.DumpGraph(s.Ctx, s.Store, g1)
	s.NoError(err)
	s.Equal([]rdf.Quad{quad(alice, knows, bob, g1)}, quads)

	quads, err = store.DumpDataset(s.Ctx, s.Store)
	s.NoError(err)
	s.Len(quads, 2)
}

// TestReplaceGraph checks the clear-and-load helper.
func (s *Suite) TestReplaceGraph() {
	created, err := store.ReplaceGraph(s.Ctx, s.Store, g1, []rdf.Quad{quad(alice, knows, bob, rdf.DefaultGraph)})
	s.Require().NoError(err)
	s.True(created)
	s.Equal([]rdf.Quad{quad(alice, knows, bob, g1)}, s.match(store.InGraph(g1)))

	created, err = store.ReplaceGraph(s.Ctx, s.Store, g1, []rdf.Quad{quad(bob, knows, carol, rdf.DefaultGraph)})
	s.Require().NoError(err)
	s.False(created)
	s.Equal([]rdf.Quad{quad(bob, knows, carol, g1)}, s.match(store.InGraph(g1)))
	s.Empty(s.match(store.InGraph(rdf.DefaultGraph)))
}

// TestCreateGraph checks creating a graph that must not exist.
func (s *Suite) TestCreateGraph() {
	s.Require().NoError(store.CreateGraph(s.Ctx, s.Store, g1))
	s.True(s.contains(g1))
	err := store.CreateGraph(s.Ctx, s.Store, g1)
	s.Equal(store.ErrGraphExists{Graph: g1}, err)
}

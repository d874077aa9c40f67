// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package badgerstore_test

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/diffeo/go-graphstore/badgerstore"
	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/store"
	"github.com/diffeo/go-graphstore/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Suite runs the generic store tests against an in-memory badger
// database.
type Suite struct {
	storetest.Suite
}

// SetupSuite opens the store.
func (s *Suite) SetupSuite() {
	s.Suite.SetupSuite()
	st, err := badgerstore.Open("")
	s.Require().NoError(err)
	s.Store = st
}

// TestStore runs the Store generic tests.
func TestStore(t *testing.T) {
	suite.Run(t, &Suite{})
}

// TestPersistence checks that quads and empty graphs survive
// reopening the database.
func TestPersistence(t *testing.T) {
	dir, err := ioutil.TempDir("", "badgerstore")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	ctx := context.Background()
	q := rdf.Quad{
		Subject:   rdf.NewIRI("http://example.com/alice"),
		Predicate: rdf.NewIRI("http://xmlns.com/foaf/0.1/name"),
		Object:    rdf.NewLangLiteral("Alice\x00\n", "en"),
		Graph:     rdf.NewIRI("http://example.com/g1"),
	}
	empty := rdf.NewIRI("http://example.com/empty")

	st, err := badgerstore.Open(dir)
	require.NoError(t, err)
	require.NoError(t, st.Insert(ctx, q))
	require.NoError(t, st.InsertNamedGraph(ctx, empty))
	require.NoError(t, st.Close())

	st, err = badgerstore.Open(dir)
	require.NoError(t, err)
	defer st.Close()
	quads, err := st.Match(ctx, store.Pattern{})
	require.NoError(t, err)
	assert.Equal(t, []rdf.Quad{q}, quads)
	graphs, err := st.NamedGraphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []rdf.Term{empty, q.Graph}, graphs)
}

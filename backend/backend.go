// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package backend provides a standard way to construct a dataset
// store based on command-line flags.
package backend

import (
	"errors"
	"strings"

	"github.com/diffeo/go-graphstore/badgerstore"
	"github.com/diffeo/go-graphstore/memory"
	"github.com/diffeo/go-graphstore/postgres"
	"github.com/diffeo/go-graphstore/store"
)

// Backend describes user-visible parameters to store RDF data.
// This implements the flag.Value interface, and so a typical use is
//
//     func main() {
//         backend := backend.Backend{"memory", ""}
//         flag.Var(&backend, "backend", "impl:address of dataset storage")
//         flag.Parse()
//         st, err := backend.Store()
//     }
type Backend struct {
	// Implementation holds the name of the implementation; for
	// instance, "memory".
	Implementation string

	// Address holds some backend-specific address, such as a
	// database connect string or a directory.
	Address string
}

var implementations = map[string]func(string) (store.Store, error){
	"memory": func(string) (store.Store, error) {
		return memory.New(), nil
	},
	"badger":   badgerstore.Open,
	"postgres": postgres.New,
}

// Store creates a new dataset store.  This generally should be only
// called once.  If the backend has in-process state, such as a
// database connection pool or an in-memory store, calling this
// multiple times will create multiple copies of that state.  In
// particular, if b.Implementation is "memory", multiple calls to this
// will create multiple independent datasets.
func (b *Backend) Store() (store.Store, error) {
	ctor, known := implementations[b.Implementation]
	if !known {
		return nil, errors.New("unknown store backend " + b.Implementation)
	}
	return ctor(b.Address)
}

// String renders a backend description as a string.
func (b *Backend) String() string {
	if b.Address == "" {
		return b.Implementation
	}
	return b.Implementation + ":" + b.Address
}

// Set parses a string into an existing backend description.  The
// string should be of the form "implementation:address", where
// address can be any string.  Set checks to see if the provided
// implementation is any of the known implementations, and returns an
// appropriate error if not.
//
// This is part of the flag.Value interface.  Note that neither
// function attempts to validate the b.Address part of the string or
// attempts to actually make a connection.
func (b *Backend) Set(param string) error {
	parts := strings.SplitN(param, ":", 2)
	if parts[0] == "" {
		return errors.New("must specify a backend type")
	}
	if _, known := implementations[parts[0]]; !known {
		return errors.New("unknown store backend " + parts[0])
	}
	b.Implementation = parts[0]
	b.Address = ""
	if len(parts) == 2 {
		b.Address = parts[1]
	}
	return nil
}

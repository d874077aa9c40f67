// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"bytes"
	"io/ioutil"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffeo/go-graphstore/memory"
	"github.com/diffeo/go-graphstore/restserver"
	"github.com/diffeo/go-graphstore/sparql"
)

// run runs graphctl against a server and returns its output.
func run(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = ioutil.Discard
	err := app.Run(append([]string{"graphctl", "--url", server.URL}, args...))
	return out.String(), err
}

func newServer() *httptest.Server {
	st := memory.New()
	return httptest.NewServer(restserver.NewRouter(st, sparql.NewEngine(st, 16), restserver.Options{}))
}

func TestLoadQueryDelete(t *testing.T) {
	server := newServer()
	defer server.Close()

	dir := t.TempDir()
	data := filepath.Join(dir, "data.ttl")
	require.NoError(t, ioutil.WriteFile(data,
		[]byte("<http://example.org/a> <http://example.org/p> \"hello\" .\n"), 0644))

	out, err := run(t, server, "load", "--graph", "http://example.org/g", data)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/store?graph=http%3A%2F%2Fexample.org%2Fg\n", out)

	out, err = run(t, server, "query", "--accept", "text/csv",
		"--named-graph", "http://example.org/g",
		"SELECT ?o WHERE { GRAPH ?g { ?s ?p ?o } }")
	require.NoError(t, err)
	assert.Equal(t, "o\r\nhello\r\n", out)

	out, err = run(t, server, "get", "--graph", "http://example.org/g")
	require.NoError(t, err)
	assert.Contains(t, out, `"hello"`)

	_, err = run(t, server, "delete")
	assert.Error(t, err)

	_, err = run(t, server, "delete", "--graph", "http://example.org/g")
	require.NoError(t, err)
	_, err = run(t, server, "get", "--graph", "http://example.org/g")
	assert.Error(t, err)
}

func TestLoadMintsGraph(t *testing.T) {
	server := newServer()
	defer server.Close()

	data := filepath.Join(t.TempDir(), "data.nt")
	require.NoError(t, ioutil.WriteFile(data,
		[]byte("<http://example.org/a> <http://example.org/p> <http://example.org/b> .\n"), 0644))
	out, err := run(t, server, "load", data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, server.URL+"/store/"), out)

	out, err = run(t, server, "load", "--replace", "--default", data)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, server, "load", "--default", filepath.Join(t.TempDir(), "data.unknown"))
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "unknown file type")
	}
}

func TestUpdateFile(t *testing.T) {
	server := newServer()
	defer server.Close()

	update := filepath.Join(t.TempDir(), "update.ru")
	require.NoError(t, ioutil.WriteFile(update,
		[]byte("INSERT DATA { <http://example.org/a> <http://example.org/p> 1 }"), 0644))
	_, err := run(t, server, "update", "--file", update)
	require.NoError(t, err)

	out, err := run(t, server, "query", "--accept", "text/csv", "ASK { ?s ?p 1 }")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	_, err = run(t, server, "update", "--file", update, "CLEAR ALL")
	assert.Error(t, err)

	_, err = run(t, server, "update", "NOT SPARQL")
	assert.Error(t, err)

	_, err = run(t, server, "delete", "--all")
	require.NoError(t, err)
	out, err = run(t, server, "get")
	require.NoError(t, err)
	assert.Empty(t, out)
}

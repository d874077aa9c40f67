// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSelect(t *testing.T) {
	assert.Equal(t, "SELECT graph FROM named_graph",
		buildSelect([]string{"graph"}, []string{"named_graph"}, nil))
	assert.Equal(t, "SELECT a, b FROM quad WHERE a=$1 AND b=$2",
		buildSelect([]string{"a", "b"}, []string{"quad"}, []string{"a=$1", "b=$2"}))
}

func TestBuildDelete(t *testing.T) {
	assert.Equal(t, "DELETE FROM quad", buildDelete("quad", nil))
	assert.Equal(t, "DELETE FROM quad WHERE graph=$1",
		buildDelete("quad", []string{"graph=$1"}))
}

func TestFieldList(t *testing.T) {
	var (
		params queryParams
		fields fieldList
	)
	fields.Add(&params, "graph", "<http://example.com/g>")
	fields.Add(&params, "subject", "_:b0")
	assert.Equal(t, queryParams{"<http://example.com/g>", "_:b0"}, params)
	assert.Equal(t, []string{"graph=$1", "subject=$2"}, fields.Conditions())
	assert.Equal(t,
		"INSERT INTO quad(graph, subject) VALUES($1, $2) ON CONFLICT DO NOTHING",
		fields.InsertStatement("quad"))
}

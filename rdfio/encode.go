// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package rdfio

import (
	"bufio"
	"io"

	"github.com/diffeo/go-graphstore/rdf"
	krdf "github.com/knakk/rdf"
)

// Encode writes quads in format f.  Graph formats drop the graph
// component of each quad, so callers should pass the contents of a
// single graph.
func Encode(w io.Writer, f Format, quads []rdf.Quad) error {
	switch f {
	case NTriples, Turtle:
		return encodeTriples(w, f, quads)
	case RDFXML:
		return encodeRDFXML(w, quads)
	case NQuads:
		return encodeNQuads(w, quads)
	case TriG:
		return encodeTriG(w, quads)
	}
	return ErrUnsupportedFormat{Format: f}
}

func encodeTriples(w io.Writer, f Format, quads []rdf.Quad) error {
	enc := krdf.NewTripleEncoder(w, knakkFormats[f])
	for _, q := range quads {
		triple, err := toKnakkTriple(q)
		if err != nil {
			return err
		}
		if err = enc.Encode(triple); err != nil {
			return err
		}
	}
	return enc.Close()
}

// encodeNQuads writes one statement per line.  Our Quad.String() is
// already the canonical N-Quads form, including for default graph
// statements, which knakk's quad encoder cannot express.
func encodeNQuads(w io.Writer, quads []rdf.Quad) error {
	bw := bufio.NewWriter(w)
	for _, q := range quads {
		if _, err := bw.WriteString(q.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// encodeTriG writes default graph statements at top level and each
// named graph as a block, using N-Triples syntax for statements.
func encodeTriG(w io.Writer, quads []rdf.Quad) error {
	bw := bufio.NewWriter(w)
	var (
		order  []rdf.Term
		graphs = make(map[rdf.Term][]rdf.Triple)
	)
	for _, q := range quads {
		if _, seen := graphs[q.Graph]; !seen {
			order = append(order, q.Graph)
		}
		graphs[q.Graph] = append(graphs[q.Graph], q.Triple())
	}
	for _, g := range order {
		indent := ""
		if !g.IsDefaultGraph() {
			bw.WriteString(g.String() + " {\n")
			indent = "  "
		}
		for _, t := range graphs[g] {
			bw.WriteString(indent + t.String() + "\n")
		}
		if !g.IsDefaultGraph() {
			bw.WriteString("}\n")
		}
	}
	return bw.Flush()
}

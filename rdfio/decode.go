// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package rdfio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"strings"
	"unicode"

	"github.com/diffeo/go-graphstore/rdf"
	krdf "github.com/knakk/rdf"
	"github.com/satori/go.uuid"
)

// ErrSyntax is returned when input is not valid for its declared
// format.  Callers that receive input from clients should treat this
// as a client error.
type ErrSyntax struct {
	Format Format
	Err    error
}

func (e ErrSyntax) Error() string {
	return fmt.Sprintf("invalid %v: %v", e.Format, e.Err)
}

// ErrUnsupportedFormat is returned for a Format value this package
// does not know how to read or write.
type ErrUnsupportedFormat struct {
	Format Format
}

func (e ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported format %v", e.Format)
}

// blankScope relabels blank nodes read from one document, so that
// blank nodes from separate loads never collide.
type blankScope struct {
	prefix string
	labels map[string]string
}

func newBlankScope() *blankScope {
	id := strings.Replace(uuid.NewV4().String(), "-", "", -1)
	return &blankScope{prefix: "b" + id[:16], labels: make(map[string]string)}
}

func (s *blankScope) term(t rdf.Term) rdf.Term {
	if !t.IsBlank() {
		return t
	}
	label, ok := s.labels[t.Value]
	if !ok {
		label = fmt.Sprintf("%s_%d", s.prefix, len(s.labels))
		s.labels[t.Value] = label
	}
	return rdf.NewBlank(label)
}

func (s *blankScope) quad(q rdf.Quad) rdf.Quad {
	q.Subject = s.term(q.Subject)
	q.Object = s.term(q.Object)
	q.Graph = s.term(q.Graph)
	return q
}

// Decode reads an entire document in format f.  Relative IRIs are
// resolved against base.  Statements read from a graph format are
// placed into graph; statements read from a dataset format keep the
// graph they name.  Blank node labels are replaced with fresh ones.
func Decode(r io.Reader, f Format, base string, graph rdf.Term) ([]rdf.Quad, error) {
	scope := newBlankScope()
	var (
		quads []rdf.Quad
		err   error
	)
	switch f {
	case NTriples, Turtle, RDFXML:
		quads, err = decodeTriples(r, f, base, graph)
	case NQuads:
		quads, err = decodeQuads(r)
	case TriG:
		var input []byte
		input, err = ioutil.ReadAll(r)
		if err == nil {
			quads, err = decodeTriG(string(input), base)
		}
	default:
		return nil, ErrUnsupportedFormat{Format: f}
	}
	if err != nil {
		if _, isSyntax := err.(ErrSyntax); !isSyntax {
			err = ErrSyntax{Format: f, Err: err}
		}
		return nil, err
	}
	for i := range quads {
		quads[i] = scope.quad(quads[i])
		if !quads[i].Valid() {
			return nil, ErrSyntax{Format: f, Err: fmt.Errorf("invalid statement %v", quads[i])}
		}
	}
	return quads, nil
}

func decodeTriples(r io.Reader, f Format, base string, graph rdf.Term) ([]rdf.Quad, error) {
	if f == Turtle {
		input, err := ioutil.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if err = checkTurtleComplete(string(input)); err != nil {
			return nil, err
		}
		r = bytes.NewReader(input)
	}
	dec := krdf.NewTripleDecoder(r, knakkFormats[f])
	if base != "" && f != NTriples {
		baseIRI, err := krdf.NewIRI(base)
		if err != nil {
			return nil, err
		}
		if err = dec.SetOption(krdf.Base, baseIRI); err != nil {
			return nil, err
		}
	}
	var quads []rdf.Quad
	for {
		triple, err := dec.Decode()
		if err == io.EOF {
			return quads, nil
		}
		if err != nil {
			return nil, err
		}
		q, err := fromKnakkTriple(triple, graph)
		if err != nil {
			return nil, err
		}
		quads = append(quads, q)
	}
}

func decodeQuads(r io.Reader) ([]rdf.Quad, error) {
	dec := krdf.NewQuadDecoder(r, krdf.NQuads)
	// Otherwise statements without a graph land in a blank node
	// context named "_:defaultGraph".
	dec.DefaultGraph = nil
	var quads []rdf.Quad
	for {
		quad, err := dec.Decode()
		if err == io.EOF {
			return quads, nil
		}
		if err != nil {
			return nil, err
		}
		graph, err := fromKnakk(quad.Ctx)
		if err != nil {
			return nil, err
		}
		q, err := fromKnakkTriple(quad.Triple, graph)
		if err != nil {
			return nil, err
		}
		quads = append(quads, q)
	}
}

var (
	errUnclosedList      = errors.New("input ends inside [ ] or ( )")
	errUnclosedStatement = errors.New("input ends before the final '.'")
)

// checkTurtleComplete rejects Turtle that stops in the middle of a
// statement.  knakk's decoder treats end of input as a clean finish
// even inside a property list or collection.
func checkTurtleComplete(src string) error {
	var (
		depth     int
		open      bool
		directive bool
	)
	for i := 0; i < len(src); {
		c := src[i]
		switch c {
		case ' ', '\t', '\r', '\n':
			i++
			continue
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		case '<':
			end := strings.IndexByte(src[i:], '>')
			if end < 0 {
				return errUnterminated
			}
			i += end + 1
			if directive && depth == 0 {
				// PREFIX and BASE end with their IRI
				open, directive = false, false
			} else {
				open = true
			}
			continue
		case '"', '\'':
			quote := string(c)
			if strings.HasPrefix(src[i:], quote+quote+quote) {
				quote += quote + quote
			}
			j := i + len(quote)
			for j < len(src) && !strings.HasPrefix(src[j:], quote) {
				if src[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(src) {
				return errUnterminated
			}
			i = j + len(quote)
			open = true
			continue
		case '[', '(':
			depth++
		case ']', ')':
			if depth > 0 {
				depth--
			}
		case '.':
			if depth == 0 && (i+1 == len(src) || !isNameByte(src[i+1])) {
				open, directive = false, false
				i++
				continue
			}
		default:
			if !open && depth == 0 {
				word := i
				for word < len(src) && unicode.IsLetter(rune(src[word])) {
					word++
				}
				kw := src[i:word]
				if (strings.EqualFold(kw, "PREFIX") || strings.EqualFold(kw, "BASE")) &&
					word < len(src) && !isNameByte(src[word]) {
					directive = true
				}
			}
		}
		open = true
		i++
	}
	if depth > 0 {
		return errUnclosedList
	}
	if open {
		return errUnclosedStatement
	}
	return nil
}

// isNameByte reports whether c can continue a prefixed name or number,
// so that a '.' before it is not the end of a statement.
func isNameByte(c byte) bool {
	return c == '_' || c == '-' || c == ':' || c == '%' || c >= 0x80 ||
		('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package rdfio

// TriG is Turtle with graph blocks.  knakk/rdf has no TriG reader, so
// this splits a document into its directives and graph blocks and
// feeds each block, prefixed with the directives seen so far, to the
// Turtle decoder.

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/diffeo/go-graphstore/rdf"
)

var errUnterminated = errors.New("unterminated block")

type trigReader struct {
	src      string
	pos      int
	base     string
	header   strings.Builder
	prefixes map[string]string
	anon     int
}

func decodeTriG(src, base string) ([]rdf.Quad, error) {
	tr := &trigReader{src: src, base: base, prefixes: make(map[string]string)}
	var quads []rdf.Quad
	for {
		tr.skipSpace()
		if tr.pos >= len(tr.src) {
			return quads, nil
		}
		var (
			graph rdf.Term
			body  string
			err   error
			block = true
		)
		switch {
		case tr.keyword("@prefix"), tr.keyword("PREFIX"):
			err = tr.prefixDirective()
			block = false
		case tr.keyword("@base"), tr.keyword("BASE"):
			err = tr.baseDirective()
			block = false
		case tr.src[tr.pos] == '{':
			body, err = tr.braces()
		case tr.keyword("GRAPH"):
			tr.pos += len("GRAPH")
			tr.skipSpace()
			if graph, err = tr.label(); err == nil {
				tr.skipSpace()
				body, err = tr.braces()
			}
		default:
			start := tr.pos
			graph, err = tr.label()
			tr.skipSpace()
			if err == nil && tr.pos < len(tr.src) && tr.src[tr.pos] == '{' {
				body, err = tr.braces()
			} else {
				// A plain triples statement in the default graph
				tr.pos = start
				graph = rdf.DefaultGraph
				body, err = tr.statement()
			}
		}
		if err != nil {
			return nil, err
		}
		if !block {
			continue
		}
		// The last statement in a block may omit its '.'
		if trimmed := strings.TrimSpace(body); trimmed != "" && !strings.HasSuffix(trimmed, ".") {
			body += "\n."
		}
		text := tr.header.String() + body + "\n"
		more, err := decodeTriples(strings.NewReader(text), Turtle, tr.base, graph)
		if err != nil {
			return nil, err
		}
		quads = append(quads, more...)
	}
}

// keyword checks for a case-insensitive keyword at the current
// position, followed by a delimiter.
func (tr *trigReader) keyword(kw string) bool {
	end := tr.pos + len(kw)
	if end > len(tr.src) || !strings.EqualFold(tr.src[tr.pos:end], kw) {
		return false
	}
	if end == len(tr.src) {
		return true
	}
	c := tr.src[end]
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '<' || c == '{'
}

func (tr *trigReader) skipSpace() {
	for tr.pos < len(tr.src) {
		switch tr.src[tr.pos] {
		case ' ', '\t', '\n', '\r':
			tr.pos++
		case '#':
			for tr.pos < len(tr.src) && tr.src[tr.pos] != '\n' {
				tr.pos++
			}
		default:
			return
		}
	}
}

// iri reads an <IRIREF> at the current position and returns its
// unescaped content.
func (tr *trigReader) iri() (string, error) {
	if tr.pos >= len(tr.src) || tr.src[tr.pos] != '<' {
		return "", fmt.Errorf("expected IRI at offset %d", tr.pos)
	}
	end := strings.IndexByte(tr.src[tr.pos:], '>')
	if end < 0 {
		return "", fmt.Errorf("unterminated IRI at offset %d", tr.pos)
	}
	raw := tr.src[tr.pos+1 : tr.pos+end]
	tr.pos += end + 1
	return rdf.Unescape(raw)
}

func (tr *trigReader) resolve(ref string) (string, error) {
	if tr.base == "" {
		return ref, nil
	}
	baseURL, err := url.Parse(tr.base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

func (tr *trigReader) prefixDirective() error {
	sparqlStyle := tr.src[tr.pos] != '@'
	if sparqlStyle {
		tr.pos += len("PREFIX")
	} else {
		tr.pos += len("@prefix")
	}
	tr.skipSpace()
	colon := strings.IndexByte(tr.src[tr.pos:], ':')
	if colon < 0 {
		return fmt.Errorf("bad prefix declaration at offset %d", tr.pos)
	}
	name := strings.TrimSpace(tr.src[tr.pos : tr.pos+colon])
	tr.pos += colon + 1
	tr.skipSpace()
	ns, err := tr.iri()
	if err != nil {
		return err
	}
	if ns, err = tr.resolve(ns); err != nil {
		return err
	}
	if !sparqlStyle {
		if err = tr.expect('.'); err != nil {
			return err
		}
	}
	tr.prefixes[name] = ns
	fmt.Fprintf(&tr.header, "@prefix %s: %s .\n", name, rdf.NewIRI(ns))
	return nil
}

func (tr *trigReader) baseDirective() error {
	sparqlStyle := tr.src[tr.pos] != '@'
	if sparqlStyle {
		tr.pos += len("BASE")
	} else {
		tr.pos += len("@base")
	}
	tr.skipSpace()
	ref, err := tr.iri()
	if err != nil {
		return err
	}
	if tr.base, err = tr.resolve(ref); err != nil {
		return err
	}
	if !sparqlStyle {
		return tr.expect('.')
	}
	return nil
}

func (tr *trigReader) expect(c byte) error {
	tr.skipSpace()
	if tr.pos >= len(tr.src) || tr.src[tr.pos] != c {
		return fmt.Errorf("expected %q at offset %d", c, tr.pos)
	}
	tr.pos++
	return nil
}

// label reads a graph label: an IRI, a prefixed name, a blank node
// label, or [].
func (tr *trigReader) label() (rdf.Term, error) {
	if tr.pos >= len(tr.src) {
		return rdf.Term{}, io.ErrUnexpectedEOF
	}
	switch {
	case tr.src[tr.pos] == '<':
		ref, err := tr.iri()
		if err != nil {
			return rdf.Term{}, err
		}
		iri, err := tr.resolve(ref)
		return rdf.NewIRI(iri), err
	case strings.HasPrefix(tr.src[tr.pos:], "[]"):
		tr.pos += 2
		tr.anon++
		return rdf.NewBlank(fmt.Sprintf("trig%d", tr.anon)), nil
	}
	start := tr.pos
	for tr.pos < len(tr.src) && !strings.ContainsRune(" \t\r\n{", rune(tr.src[tr.pos])) {
		tr.pos++
	}
	word := tr.src[start:tr.pos]
	if strings.HasPrefix(word, "_:") && len(word) > 2 {
		return rdf.NewBlank(word[2:]), nil
	}
	colon := strings.IndexByte(word, ':')
	if colon < 0 {
		return rdf.Term{}, fmt.Errorf("expected graph label at offset %d", start)
	}
	ns, ok := tr.prefixes[word[:colon]]
	if !ok {
		return rdf.Term{}, fmt.Errorf("undeclared prefix %q", word[:colon])
	}
	return rdf.NewIRI(ns + word[colon+1:]), nil
}

// skipLexical advances past a string, IRI, or comment starting at the
// current position, returning false if there is none.
func (tr *trigReader) skipLexical() (bool, error) {
	switch c := tr.src[tr.pos]; c {
	case '<':
		end := strings.IndexByte(tr.src[tr.pos:], '>')
		if end < 0 {
			return false, errUnterminated
		}
		tr.pos += end + 1
		return true, nil
	case '#':
		for tr.pos < len(tr.src) && tr.src[tr.pos] != '\n' {
			tr.pos++
		}
		return true, nil
	case '"', '\'':
		quote := string(c)
		if strings.HasPrefix(tr.src[tr.pos:], quote+quote+quote) {
			quote = quote + quote + quote
		}
		i := tr.pos + len(quote)
		for i < len(tr.src) {
			if tr.src[i] == '\\' {
				i += 2
				continue
			}
			if strings.HasPrefix(tr.src[i:], quote) {
				tr.pos = i + len(quote)
				return true, nil
			}
			i++
		}
		return false, errUnterminated
	}
	return false, nil
}

// braces reads a {...} block and returns its content.
func (tr *trigReader) braces() (string, error) {
	if tr.pos >= len(tr.src) || tr.src[tr.pos] != '{' {
		return "", fmt.Errorf("expected '{' at offset %d", tr.pos)
	}
	tr.pos++
	start := tr.pos
	for tr.pos < len(tr.src) {
		skipped, err := tr.skipLexical()
		if err != nil {
			return "", err
		}
		if skipped {
			continue
		}
		if tr.src[tr.pos] == '}' {
			body := tr.src[start:tr.pos]
			tr.pos++
			return body, nil
		}
		tr.pos++
	}
	return "", errUnterminated
}

// statement reads a top-level triples statement through its final '.'.
func (tr *trigReader) statement() (string, error) {
	start := tr.pos
	for tr.pos < len(tr.src) {
		skipped, err := tr.skipLexical()
		if err != nil {
			return "", err
		}
		if skipped {
			continue
		}
		if tr.src[tr.pos] == '.' {
			next := tr.pos + 1
			if next >= len(tr.src) || !strings.ContainsRune("0123456789", rune(tr.src[next])) {
				tr.pos = next
				return tr.src[start:tr.pos], nil
			}
		}
		tr.pos++
	}
	return "", errUnterminated
}

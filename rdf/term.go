// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package rdf defines the RDF data model shared by the codecs, the
// storage backends, and the SPARQL engine.
//
// A Term is a small comparable value, so it can be used directly as a
// map key; the same goes for Triple and Quad.  The zero Term names the
// default graph of a dataset and is never a valid subject, predicate,
// or object.
package rdf

import (
	"fmt"
	"strings"
)

// Well-known vocabulary.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFType       = RDFNamespace + "type"
	RDFLangString = RDFNamespace + "langString"

	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
	XSDString    = XSDNamespace + "string"
	XSDBoolean   = XSDNamespace + "boolean"
	XSDInteger   = XSDNamespace + "integer"
	XSDDecimal   = XSDNamespace + "decimal"
	XSDDouble    = XSDNamespace + "double"
)

// TermKind identifies the variety of a Term.
type TermKind uint8

const (
	// KindNone is the kind of the zero Term, which names the
	// default graph.
	KindNone TermKind = iota

	// KindIRI is an absolute IRI.
	KindIRI

	// KindBlank is a blank node; Value holds its label.
	KindBlank

	// KindLiteral is a literal; Value holds its lexical form.
	KindLiteral
)

// Term is an RDF term.
type Term struct {
	Kind TermKind

	// Value is the IRI, blank node label, or literal lexical form.
	Value string

	// Datatype is the datatype IRI of a literal.  Language-tagged
	// literals leave this empty.
	Datatype string

	// Language is the lower-cased language tag of a literal.
	Language string
}

// DefaultGraph is the graph name of the default graph.
var DefaultGraph = Term{}

// NewIRI creates an IRI term.
func NewIRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// NewBlank creates a blank node term with the given label.
func NewBlank(label string) Term {
	return Term{Kind: KindBlank, Value: label}
}

// NewLiteral creates a simple xsd:string literal.
func NewLiteral(value string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: XSDString}
}

// NewLangLiteral creates a language-tagged literal.
func NewLangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Language: strings.ToLower(lang)}
}

// NewTypedLiteral creates a literal with an explicit datatype.  An
// empty datatype, or rdf:langString without a language, is treated as
// xsd:string.
func NewTypedLiteral(value, datatype string) Term {
	if datatype == "" || datatype == RDFLangString {
		datatype = XSDString
	}
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// IsDefaultGraph returns true for the zero Term.
func (t Term) IsDefaultGraph() bool { return t.Kind == KindNone }

// IsIRI returns true if t is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsBlank returns true if t is a blank node.
func (t Term) IsBlank() bool { return t.Kind == KindBlank }

// IsLiteral returns true if t is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// String returns the N-Triples form of the term.  The default graph
// renders as the empty string.  IRIs are written as they are; see
// CheckIRI.  Literals escape every control character, so the result
// never contains a NUL byte or a line break.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := `"` + escapeString(t.Value) + `"`
		if t.Language != "" {
			return s + "@" + t.Language
		}
		if t.Datatype != "" && t.Datatype != XSDString {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return ""
	}
}

func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

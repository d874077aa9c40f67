// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package rdfio

// This file converts between our rdf model and github.com/knakk/rdf,
// which does the actual parsing of N-Triples, N-Quads, Turtle, and
// RDF/XML and the writing of N-Triples and Turtle.

import (
	"fmt"
	"strings"

	"github.com/diffeo/go-graphstore/rdf"
	krdf "github.com/knakk/rdf"
)

var knakkFormats = map[Format]krdf.Format{
	NTriples: krdf.NTriples,
	Turtle:   krdf.Turtle,
	RDFXML:   krdf.RDFXML,
	NQuads:   krdf.NQuads,
}

func fromKnakk(t krdf.Term) (rdf.Term, error) {
	if t == nil {
		return rdf.DefaultGraph, nil
	}
	switch t.Type() {
	case krdf.TermIRI:
		return rdf.NewIRI(t.String()), nil
	case krdf.TermBlank:
		return rdf.NewBlank(strings.TrimPrefix(t.String(), "_:")), nil
	case krdf.TermLiteral:
		lit, ok := t.(krdf.Literal)
		if !ok {
			return rdf.Term{}, fmt.Errorf("unexpected literal type %T", t)
		}
		if lit.Lang() != "" {
			return rdf.NewLangLiteral(lit.String(), lit.Lang()), nil
		}
		return rdf.NewTypedLiteral(lit.String(), lit.DataType.String()), nil
	}
	return rdf.Term{}, fmt.Errorf("unexpected term %v", t)
}

func fromKnakkTriple(t krdf.Triple, graph rdf.Term) (rdf.Quad, error) {
	var (
		q   rdf.Quad
		err error
	)
	q.Graph = graph
	if q.Subject, err = fromKnakk(t.Subj); err != nil {
		return q, err
	}
	if q.Predicate, err = fromKnakk(t.Pred); err != nil {
		return q, err
	}
	q.Object, err = fromKnakk(t.Obj)
	return q, err
}

func toKnakk(t rdf.Term) (krdf.Term, error) {
	switch t.Kind {
	case rdf.KindIRI:
		iri, err := krdf.NewIRI(t.Value)
		if err != nil {
			return nil, err
		}
		return iri, nil
	case rdf.KindBlank:
		blank, err := krdf.NewBlank(t.Value)
		if err != nil {
			return nil, err
		}
		return blank, nil
	case rdf.KindLiteral:
		if t.Language != "" {
			lit, err := krdf.NewLangLiteral(t.Value, t.Language)
			if err != nil {
				return nil, err
			}
			return lit, nil
		}
		dt, err := krdf.NewIRI(t.Datatype)
		if err != nil {
			return nil, err
		}
		return krdf.NewTypedLiteral(t.Value, dt), nil
	}
	return nil, fmt.Errorf("cannot serialize term %v", t)
}

func toKnakkTriple(q rdf.Quad) (krdf.Triple, error) {
	var triple krdf.Triple
	s, err := toKnakk(q.Subject)
	if err != nil {
		return triple, err
	}
	p, err := toKnakk(q.Predicate)
	if err != nil {
		return triple, err
	}
	o, err := toKnakk(q.Object)
	if err != nil {
		return triple, err
	}
	subj, ok1 := s.(krdf.Subject)
	pred, ok2 := p.(krdf.Predicate)
	obj, ok3 := o.(krdf.Object)
	if !ok1 || !ok2 || !ok3 {
		return triple, fmt.Errorf("invalid statement %v", q)
	}
	triple.Subj = subj
	triple.Pred = pred
	triple.Obj = obj
	return triple, nil
}

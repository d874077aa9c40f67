// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package sparql

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/diffeo/go-graphstore/rdf"
)

// termMode controls what may appear in a pattern.
type termMode int

const (
	// modePattern is a WHERE clause: variables allowed, blank
	// nodes act as variables
	modePattern termMode = iota

	// modeTemplate is a CONSTRUCT or INSERT template: variables
	// allowed, blank nodes are fresh for each solution
	modeTemplate

	// modeDeleteTemplate is a DELETE template: no blank nodes
	modeDeleteTemplate

	// modeData is INSERT DATA: no variables
	modeData

	// modeDeleteData is DELETE DATA: no variables or blank nodes
	modeDeleteData
)

func (m termMode) allowsVars() bool {
	return m != modeData && m != modeDeleteData
}

func (m termMode) allowsBlanks() bool {
	return m != modeDeleteTemplate && m != modeDeleteData
}

type parser struct {
	tokens   []token
	pos      int
	base     string
	prefixes map[string]string
	anon     int
}

func newParser(src, base string) (*parser, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	return &parser{tokens: tokens, base: base, prefixes: make(map[string]string)}, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return syntaxErrorf(t.pos, format, args...)
}

func (p *parser) unexpected(t token) error {
	return p.errorf(t, "unexpected %s", t.describe())
}

func (p *parser) acceptPunct(c string) bool {
	if p.peek().is(tokPunct, c) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectPunct(c string) error {
	if t := p.next(); !t.is(tokPunct, c) {
		return p.errorf(t, "expected '%s' but found %s", c, t.describe())
	}
	return nil
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.peek().is(tokKeyword, kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if t := p.next(); !t.is(tokKeyword, kw) {
		return p.errorf(t, "expected %s but found %s", kw, t.describe())
	}
	return nil
}

func (p *parser) expectEOF() error {
	if t := p.peek(); t.kind != tokEOF {
		return p.errorf(t, "unexpected trailing input at %s", t.describe())
	}
	return nil
}

var schemeRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)

// resolve turns a possibly relative IRI reference into an absolute
// IRI against the current base.
func (p *parser) resolve(t token, ref string) (string, error) {
	if rdf.CheckIRI(ref) != nil && ref != "" {
		return "", p.errorf(t, "bad IRI %q", ref)
	}
	if schemeRE.MatchString(ref) || p.base == "" {
		return ref, nil
	}
	base, err := url.Parse(p.base)
	if err != nil {
		return "", p.errorf(t, "bad base IRI %q", p.base)
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", p.errorf(t, "bad IRI %q", ref)
	}
	iri := base.ResolveReference(rel).String()
	if err = rdf.CheckIRI(iri); err != nil {
		return "", p.errorf(t, "bad IRI %q", ref)
	}
	return iri, nil
}

// expand turns a prefixed name into an IRI.
func (p *parser) expand(t token) (string, error) {
	colon := strings.IndexByte(t.text, ':')
	prefix, local := t.text[:colon], t.text[colon+1:]
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", p.errorf(t, "undeclared prefix %q", prefix)
	}
	if strings.Contains(local, `\`) {
		var b strings.Builder
		for i := 0; i < len(local); i++ {
			if local[i] == '\\' && i+1 < len(local) {
				i++
			}
			b.WriteByte(local[i])
		}
		local = b.String()
	}
	return ns + local, nil
}

func (p *parser) prologue() error {
	for {
		switch {
		case p.acceptKeyword("BASE"):
			t := p.next()
			if t.kind != tokIRI {
				return p.errorf(t, "expected IRI after BASE")
			}
			iri, err := p.resolve(t, t.text)
			if err != nil {
				return err
			}
			p.base = iri
		case p.acceptKeyword("PREFIX"):
			t := p.next()
			if t.kind != tokPName || !strings.HasSuffix(t.text, ":") {
				return p.errorf(t, "expected prefix name after PREFIX")
			}
			it := p.next()
			if it.kind != tokIRI {
				return p.errorf(it, "expected IRI after PREFIX %s", t.text)
			}
			iri, err := p.resolve(it, it.text)
			if err != nil {
				return err
			}
			p.prefixes[strings.TrimSuffix(t.text, ":")] = iri
		default:
			return nil
		}
	}
}

// iri reads an IRI or prefixed name.
func (p *parser) iri() (rdf.Term, error) {
	t := p.next()
	switch t.kind {
	case tokIRI:
		iri, err := p.resolve(t, t.text)
		return rdf.NewIRI(iri), err
	case tokPName:
		iri, err := p.expand(t)
		return rdf.NewIRI(iri), err
	}
	return rdf.Term{}, p.errorf(t, "expected IRI but found %s", t.describe())
}

func (p *parser) isIRIStart() bool {
	k := p.peek().kind
	return k == tokIRI || k == tokPName
}

// varOrIRI reads a variable or IRI, as in GRAPH or DESCRIBE.
func (p *parser) varOrIRI(mode termMode) (node, error) {
	if t := p.peek(); t.kind == tokVar {
		if !mode.allowsVars() {
			return node{}, p.errorf(t, "variables are not allowed here")
		}
		p.next()
		return varNode(t.text), nil
	}
	iri, err := p.iri()
	return termNode(iri), err
}

func (p *parser) freshBlank(mode termMode) node {
	p.anon++
	label := fmt.Sprintf("#anon%d", p.anon)
	if mode == modePattern {
		return varNode("_:" + label)
	}
	return termNode(rdf.NewBlank(label))
}

// term reads a variable, IRI, blank node, or literal.
func (p *parser) term(mode termMode) (node, error) {
	t := p.peek()
	switch t.kind {
	case tokVar:
		return p.varOrIRI(mode)
	case tokIRI, tokPName:
		return p.varOrIRI(mode)
	case tokBlank:
		p.next()
		if !mode.allowsBlanks() {
			return node{}, p.errorf(t, "blank nodes are not allowed here")
		}
		if mode == modePattern {
			return varNode("_:" + t.text), nil
		}
		return termNode(rdf.NewBlank(t.text)), nil
	case tokString:
		p.next()
		switch next := p.peek(); next.kind {
		case tokLang:
			p.next()
			return termNode(rdf.NewLangLiteral(t.text, next.text)), nil
		case tokCarets:
			p.next()
			dt, err := p.iri()
			if err != nil {
				return node{}, err
			}
			return termNode(rdf.NewTypedLiteral(t.text, dt.Value)), nil
		}
		return termNode(rdf.NewLiteral(t.text)), nil
	case tokInteger:
		p.next()
		return termNode(rdf.NewTypedLiteral(t.text, rdf.XSDInteger)), nil
	case tokDecimal:
		p.next()
		return termNode(rdf.NewTypedLiteral(t.text, rdf.XSDDecimal)), nil
	case tokDouble:
		p.next()
		return termNode(rdf.NewTypedLiteral(t.text, rdf.XSDDouble)), nil
	case tokKeyword:
		if t.text == "TRUE" || t.text == "FALSE" {
			p.next()
			return termNode(rdf.NewTypedLiteral(strings.ToLower(t.text), rdf.XSDBoolean)), nil
		}
	case tokPunct:
		if t.text == "[" && p.tokens[p.pos+1].is(tokPunct, "]") {
			p.next()
			p.next()
			if !mode.allowsBlanks() {
				return node{}, p.errorf(t, "blank nodes are not allowed here")
			}
			return p.freshBlank(mode), nil
		}
	}
	return node{}, p.unexpected(t)
}

// quadBlock collects patterns for one { ... } block.
type quadBlock struct {
	mode      termMode
	graph     node
	allowNest bool
	out       *[]quadPattern
}

func (b quadBlock) add(s, pr, o node) {
	*b.out = append(*b.out, quadPattern{S: s, P: pr, O: o, G: b.graph})
}

// block reads '{' ... '}' into b.  GRAPH blocks are allowed only
// when b.allowNest is set, and may not themselves nest.
func (p *parser) block(b quadBlock) error {
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for {
		t := p.peek()
		switch {
		case t.is(tokPunct, "}"):
			p.next()
			return nil
		case t.is(tokPunct, "."):
			p.next()
		case t.is(tokPunct, "{"):
			if b.mode != modePattern {
				return p.unexpected(t)
			}
			if err := p.block(b); err != nil {
				return err
			}
		case t.is(tokKeyword, "GRAPH"):
			if !b.allowNest {
				return p.errorf(t, "nested GRAPH is not supported")
			}
			p.next()
			graph, err := p.varOrIRI(b.mode)
			if err != nil {
				return err
			}
			inner := b
			inner.graph = graph
			inner.allowNest = false
			if err := p.block(inner); err != nil {
				return err
			}
		case t.kind == tokKeyword && t.text != "TRUE" && t.text != "FALSE" && t.text != "a":
			return p.errorf(t, "%s is not supported", t.text)
		default:
			if err := p.triples(b); err != nil {
				return err
			}
			if t := p.peek(); !t.is(tokPunct, ".") && !t.is(tokPunct, "}") {
				return p.errorf(t, "expected '.' or '}' but found %s", t.describe())
			}
		}
	}
}

// triples reads one subject with its property list.
func (p *parser) triples(b quadBlock) error {
	if p.peek().is(tokPunct, "[") && !p.tokens[p.pos+1].is(tokPunct, "]") {
		subject, err := p.propertyListNode(b)
		if err != nil {
			return err
		}
		// "[ :p :o ] ." on its own is complete
		if t := p.peek(); t.is(tokPunct, ".") || t.is(tokPunct, "}") {
			return nil
		}
		return p.propertyList(b, subject)
	}
	t := p.peek()
	subject, err := p.term(b.mode)
	if err != nil {
		return err
	}
	if !subject.isVar() && subject.Term.IsLiteral() {
		return p.errorf(t, "a literal cannot be a subject")
	}
	return p.propertyList(b, subject)
}

// propertyListNode reads "[ predicate object ... ]" and returns the
// blank node it describes.
func (p *parser) propertyListNode(b quadBlock) (node, error) {
	t := p.next() // [
	if !b.mode.allowsBlanks() {
		return node{}, p.errorf(t, "blank nodes are not allowed here")
	}
	subject := p.freshBlank(b.mode)
	if err := p.propertyList(b, subject); err != nil {
		return node{}, err
	}
	return subject, p.expectPunct("]")
}

func (p *parser) propertyList(b quadBlock, subject node) error {
	for {
		t := p.peek()
		var verb node
		if t.is(tokKeyword, "a") {
			p.next()
			verb = termNode(rdf.NewIRI(rdf.RDFType))
		} else if t.kind == tokVar || t.kind == tokIRI || t.kind == tokPName {
			var err error
			if verb, err = p.varOrIRI(b.mode); err != nil {
				return err
			}
		} else {
			return p.errorf(t, "expected predicate but found %s", t.describe())
		}
		for {
			var (
				object node
				err    error
			)
			if p.peek().is(tokPunct, "[") && !p.tokens[p.pos+1].is(tokPunct, "]") {
				object, err = p.propertyListNode(b)
			} else {
				object, err = p.term(b.mode)
			}
			if err != nil {
				return err
			}
			b.add(subject, verb, object)
			if !p.acceptPunct(",") {
				break
			}
		}
		if !p.acceptPunct(";") {
			return nil
		}
		// a trailing ';' is allowed
		for p.acceptPunct(";") {
		}
		if t := p.peek(); t.is(tokPunct, ".") || t.is(tokPunct, "}") || t.is(tokPunct, "]") {
			return nil
		}
	}
}

func (p *parser) where(q *[]quadPattern) error {
	p.acceptKeyword("WHERE")
	return p.block(quadBlock{mode: modePattern, allowNest: true, out: q})
}

func (p *parser) datasetClauses(from, named *[]rdf.Term) error {
	for p.acceptKeyword("FROM") {
		isNamed := p.acceptKeyword("NAMED")
		iri, err := p.iri()
		if err != nil {
			return err
		}
		if isNamed {
			*named = append(*named, iri)
		} else {
			*from = append(*from, iri)
		}
	}
	return nil
}

var unsupportedModifiers = map[string]bool{
	"GROUP":  true,
	"HAVING": true,
	"ORDER":  true,
	"VALUES": true,
}

func (p *parser) modifiers(q *Query) error {
	q.limit = -1
	for {
		var target *int
		t := p.peek()
		switch {
		case p.acceptKeyword("LIMIT"):
			target = &q.limit
		case p.acceptKeyword("OFFSET"):
			target = &q.offset
		case t.kind == tokKeyword && unsupportedModifiers[t.text]:
			return p.errorf(t, "%s is not supported", t.text)
		default:
			return nil
		}
		n := p.next()
		if n.kind != tokInteger {
			return p.errorf(n, "expected integer but found %s", n.describe())
		}
		v, err := strconv.Atoi(n.text)
		if err != nil || v < 0 {
			return p.errorf(n, "bad count %s", n.text)
		}
		*target = v
	}
}

// ParseQuery parses a query string.  Relative IRIs are resolved
// against base, unless the query has its own BASE.
func ParseQuery(src, base string) (*Query, error) {
	p, err := newParser(src, base)
	if err != nil {
		return nil, err
	}
	if err = p.prologue(); err != nil {
		return nil, err
	}
	q := &Query{Base: base}
	t := p.next()
	switch {
	case t.is(tokKeyword, "SELECT"):
		q.Form = Select
		if !p.acceptKeyword("DISTINCT") {
			p.acceptKeyword("REDUCED")
		} else {
			q.distinct = true
		}
		if p.acceptPunct("*") {
			q.star = true
		} else {
			for p.peek().kind == tokVar {
				q.vars = append(q.vars, p.next().text)
			}
			if len(q.vars) == 0 {
				return nil, p.errorf(p.peek(), "expected variables or '*' after SELECT")
			}
		}
		if err = p.datasetClauses(&q.from, &q.named); err != nil {
			return nil, err
		}
		if err = p.where(&q.where); err != nil {
			return nil, err
		}

	case t.is(tokKeyword, "CONSTRUCT"):
		q.Form = Construct
		if p.peek().is(tokPunct, "{") {
			err = p.block(quadBlock{mode: modeTemplate, out: &q.template})
			if err == nil {
				err = p.datasetClauses(&q.from, &q.named)
			}
			if err == nil {
				err = p.where(&q.where)
			}
			if err != nil {
				return nil, err
			}
		} else {
			if err = p.datasetClauses(&q.from, &q.named); err != nil {
				return nil, err
			}
			if err = p.expectKeyword("WHERE"); err != nil {
				return nil, err
			}
			wt := p.peek()
			if err = p.block(quadBlock{mode: modePattern, allowNest: true, out: &q.where}); err != nil {
				return nil, err
			}
			for _, qp := range q.where {
				if !qp.G.isDefault() {
					return nil, p.errorf(wt, "CONSTRUCT WHERE cannot use GRAPH")
				}
			}
			q.template = q.where
		}

	case t.is(tokKeyword, "DESCRIBE"):
		q.Form = Describe
		if p.acceptPunct("*") {
			q.star = true
		} else {
			for p.peek().kind == tokVar || p.isIRIStart() {
				n, err := p.varOrIRI(modePattern)
				if err != nil {
					return nil, err
				}
				q.describe = append(q.describe, n)
			}
			if len(q.describe) == 0 {
				return nil, p.errorf(p.peek(), "expected resources or '*' after DESCRIBE")
			}
		}
		if err = p.datasetClauses(&q.from, &q.named); err != nil {
			return nil, err
		}
		if p.peek().is(tokKeyword, "WHERE") || p.peek().is(tokPunct, "{") {
			if err = p.where(&q.where); err != nil {
				return nil, err
			}
		}

	case t.is(tokKeyword, "ASK"):
		q.Form = Ask
		if err = p.datasetClauses(&q.from, &q.named); err != nil {
			return nil, err
		}
		if err = p.where(&q.where); err != nil {
			return nil, err
		}

	default:
		return nil, p.errorf(t, "expected SELECT, CONSTRUCT, DESCRIBE, or ASK but found %s", t.describe())
	}
	if err = p.modifiers(q); err != nil {
		return nil, err
	}
	if err = p.expectEOF(); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseUpdate parses an update string.  Relative IRIs are resolved
// against base, unless the update has its own BASE.
func ParseUpdate(src, base string) (*Update, error) {
	p, err := newParser(src, base)
	if err != nil {
		return nil, err
	}
	u := &Update{Base: base}
	for {
		if err = p.prologue(); err != nil {
			return nil, err
		}
		if p.peek().kind == tokEOF {
			return u, nil
		}
		op, err := p.operation()
		if err != nil {
			return nil, err
		}
		u.operations = append(u.operations, op)
		if !p.acceptPunct(";") {
			if err = p.expectEOF(); err != nil {
				return nil, err
			}
			return u, nil
		}
	}
}

func (p *parser) graphRef(allowNamedAll bool) (graphRef, error) {
	t := p.peek()
	switch {
	case p.acceptKeyword("GRAPH"):
		iri, err := p.iri()
		return graphRef{kind: "GRAPH", graph: iri}, err
	case p.acceptKeyword("DEFAULT"):
		return graphRef{kind: "DEFAULT"}, nil
	case allowNamedAll && p.acceptKeyword("NAMED"):
		return graphRef{kind: "NAMED"}, nil
	case allowNamedAll && p.acceptKeyword("ALL"):
		return graphRef{kind: "ALL"}, nil
	}
	return graphRef{}, p.errorf(t, "expected graph reference but found %s", t.describe())
}

// graphOrDefault reads the operand of ADD, MOVE, or COPY.
func (p *parser) graphOrDefault() (rdf.Term, error) {
	if p.acceptKeyword("DEFAULT") {
		return rdf.DefaultGraph, nil
	}
	p.acceptKeyword("GRAPH")
	return p.iri()
}

func dataQuads(patterns []quadPattern) []rdf.Quad {
	quads := make([]rdf.Quad, len(patterns))
	for i, qp := range patterns {
		quads[i] = rdf.Quad{Subject: qp.S.Term, Predicate: qp.P.Term, Object: qp.O.Term, Graph: qp.G.Term}
	}
	return quads
}

func (p *parser) operation() (operation, error) {
	t := p.next()
	if t.kind != tokKeyword {
		return nil, p.unexpected(t)
	}
	switch t.text {
	case "LOAD":
		return nil, p.errorf(t, "LOAD is not supported")

	case "CLEAR", "DROP":
		silent := p.acceptKeyword("SILENT")
		target, err := p.graphRef(true)
		if err != nil {
			return nil, err
		}
		return &manage{verb: t.text, silent: silent, target: target}, nil

	case "CREATE":
		silent := p.acceptKeyword("SILENT")
		if err := p.expectKeyword("GRAPH"); err != nil {
			return nil, err
		}
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		return &manage{verb: t.text, silent: silent, target: graphRef{kind: "GRAPH", graph: iri}}, nil

	case "ADD", "MOVE", "COPY":
		op := &transfer{verb: t.text, silent: p.acceptKeyword("SILENT")}
		var err error
		if op.from, err = p.graphOrDefault(); err != nil {
			return nil, err
		}
		if err = p.expectKeyword("TO"); err != nil {
			return nil, err
		}
		if op.to, err = p.graphOrDefault(); err != nil {
			return nil, err
		}
		return op, nil

	case "INSERT":
		if p.acceptKeyword("DATA") {
			var patterns []quadPattern
			if err := p.block(quadBlock{mode: modeData, allowNest: true, out: &patterns}); err != nil {
				return nil, err
			}
			return &insertData{quads: dataQuads(patterns)}, nil
		}
		return p.modify(rdf.Term{}, false, false)

	case "DELETE":
		if p.acceptKeyword("DATA") {
			var patterns []quadPattern
			if err := p.block(quadBlock{mode: modeDeleteData, allowNest: true, out: &patterns}); err != nil {
				return nil, err
			}
			return &deleteData{quads: dataQuads(patterns)}, nil
		}
		if p.acceptKeyword("WHERE") {
			m := &modify{}
			if err := p.block(quadBlock{mode: modeDeleteTemplate, allowNest: true, out: &m.where}); err != nil {
				return nil, err
			}
			m.deletes = m.where
			return m, nil
		}
		return p.modify(rdf.Term{}, false, true)

	case "WITH":
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		switch {
		case p.acceptKeyword("DELETE"):
			return p.modify(iri, true, true)
		case p.acceptKeyword("INSERT"):
			return p.modify(iri, true, false)
		}
		return nil, p.errorf(p.peek(), "expected DELETE or INSERT after WITH")
	}
	return nil, p.errorf(t, "expected update operation but found %s", t.describe())
}

// modify reads the rest of a DELETE/INSERT operation, after its
// first DELETE or INSERT keyword.
func (p *parser) modify(with rdf.Term, hasWith, deleting bool) (operation, error) {
	m := &modify{with: with, hasWith: hasWith}
	inserting := !deleting
	if deleting {
		if err := p.block(quadBlock{mode: modeDeleteTemplate, allowNest: true, out: &m.deletes}); err != nil {
			return nil, err
		}
		inserting = p.acceptKeyword("INSERT")
	}
	if inserting {
		if err := p.block(quadBlock{mode: modeTemplate, allowNest: true, out: &m.inserts}); err != nil {
			return nil, err
		}
	}
	for p.acceptKeyword("USING") {
		isNamed := p.acceptKeyword("NAMED")
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		if isNamed {
			m.usingNamed = append(m.usingNamed, iri)
		} else {
			m.using = append(m.using, iri)
		}
	}
	if err := p.expectKeyword("WHERE"); err != nil {
		return nil, err
	}
	if err := p.block(quadBlock{mode: modePattern, allowNest: true, out: &m.where}); err != nil {
		return nil, err
	}
	return m, nil
}

// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package sparql

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/diffeo/go-graphstore/rdf"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokBlank
	tokVar
	tokString
	tokLang
	tokCarets
	tokInteger
	tokDecimal
	tokDouble
	tokKeyword
	tokPunct
)

type token struct {
	kind tokenKind
	pos  int

	// text is the upper-cased keyword, the punctuation character,
	// the unescaped string or IRI content, the variable name, the
	// blank node label, the prefixed name, or the number as
	// written.
	text string
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokIRI:
		return "<" + t.text + ">"
	case tokVar:
		return "?" + t.text
	case tokString:
		return "string"
	}
	return "'" + t.text + "'"
}

// lex splits a query or update string into tokens.
func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for {
		// skip whitespace and comments
		for i < len(src) {
			c := src[i]
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
				i++
			} else if c == '#' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			} else {
				break
			}
		}
		if i >= len(src) {
			return append(tokens, token{kind: tokEOF, pos: i}), nil
		}
		start := i
		c := src[i]
		switch {
		case c == '<':
			end := strings.IndexAny(src[i+1:], "<> \t\r\n\"{}|^`")
			if end < 0 || src[i+1+end] != '>' {
				return nil, syntaxErrorf(start, "unterminated IRI")
			}
			iri, err := rdf.Unescape(src[i+1 : i+1+end])
			if err != nil {
				return nil, syntaxErrorf(start, "%v", err)
			}
			tokens = append(tokens, token{kind: tokIRI, pos: start, text: iri})
			i += end + 2
		case c == '?' || c == '$':
			j := i + 1
			for j < len(src) && isVarChar(src, j) {
				_, size := utf8.DecodeRuneInString(src[j:])
				j += size
			}
			if j == i+1 {
				return nil, syntaxErrorf(start, "empty variable name")
			}
			tokens = append(tokens, token{kind: tokVar, pos: start, text: src[i+1 : j]})
			i = j
		case c == '_' && i+1 < len(src) && src[i+1] == ':':
			j := scanLocal(src, i+2)
			if j == i+2 {
				return nil, syntaxErrorf(start, "empty blank node label")
			}
			tokens = append(tokens, token{kind: tokBlank, pos: start, text: src[i+2 : j]})
			i = j
		case c == '"' || c == '\'':
			value, end, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, pos: start, text: value})
			i = end
		case c == '@':
			j := i + 1
			for j < len(src) && (isASCIILetter(src[j]) || src[j] == '-' || (j > i+1 && isASCIIDigit(src[j]))) {
				j++
			}
			if j == i+1 {
				return nil, syntaxErrorf(start, "empty language tag")
			}
			tokens = append(tokens, token{kind: tokLang, pos: start, text: src[i+1 : j]})
			i = j
		case c == '^' && i+1 < len(src) && src[i+1] == '^':
			tokens = append(tokens, token{kind: tokCarets, pos: start, text: "^^"})
			i += 2
		case isASCIIDigit(c) || ((c == '+' || c == '-' || c == '.') && i+1 < len(src) && (isASCIIDigit(src[i+1]) || src[i+1] == '.')):
			tok, end := scanNumber(src, i)
			if end == i {
				tokens = append(tokens, token{kind: tokPunct, pos: start, text: string(c)})
				i++
				continue
			}
			tokens = append(tokens, tok)
			i = end
		case strings.IndexByte("{}.;,()[]*", c) >= 0:
			tokens = append(tokens, token{kind: tokPunct, pos: start, text: string(c)})
			i++
		case c == ':' || isNameStart(src, i):
			j := i
			for j < len(src) && isNameChar(src, j, false) {
				_, size := utf8.DecodeRuneInString(src[j:])
				j += size
			}
			// a prefix may contain dots, but not end with one
			for j > i && src[j-1] == '.' {
				j--
			}
			if j < len(src) && src[j] == ':' {
				end := scanLocal(src, j+1)
				tokens = append(tokens, token{kind: tokPName, pos: start, text: src[i:end]})
				i = end
				continue
			}
			word := src[i:j]
			if word == "a" {
				tokens = append(tokens, token{kind: tokKeyword, pos: start, text: "a"})
			} else {
				tokens = append(tokens, token{kind: tokKeyword, pos: start, text: strings.ToUpper(word)})
			}
			i = j
		default:
			r, _ := utf8.DecodeRuneInString(src[i:])
			return nil, syntaxErrorf(start, "unexpected character %q", r)
		}
	}
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNameStart(src string, i int) bool {
	r, _ := utf8.DecodeRuneInString(src[i:])
	return unicode.IsLetter(r)
}

func isVarChar(src string, i int) bool {
	r, _ := utf8.DecodeRuneInString(src[i:])
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isNameChar reports whether src[i] can continue a name.  Local
// names additionally allow colons.
func isNameChar(src string, i int, local bool) bool {
	c := src[i]
	if c < utf8.RuneSelf {
		return isASCIILetter(c) || isASCIIDigit(c) || c == '_' || c == '-' || c == '.' || (local && c == ':')
	}
	r, _ := utf8.DecodeRuneInString(src[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scanLocal returns the end of a local name or blank node label
// starting at i.  Names may not end with '.'.
func scanLocal(src string, i int) int {
	j := i
	for j < len(src) {
		if src[j] == '%' && j+2 < len(src) {
			j += 3
			continue
		}
		if src[j] == '\\' && j+1 < len(src) {
			j += 2
			continue
		}
		if !isNameChar(src, j, true) {
			break
		}
		_, size := utf8.DecodeRuneInString(src[j:])
		j += size
	}
	for j > i && src[j-1] == '.' {
		j--
	}
	return j
}

func scanString(src string, i int) (string, int, error) {
	quote := src[i : i+1]
	long := strings.HasPrefix(src[i:], quote+quote+quote)
	if long {
		quote = quote + quote + quote
	}
	j := i + len(quote)
	for j < len(src) {
		switch {
		case src[j] == '\\':
			j += 2
			continue
		case !long && (src[j] == '\n' || src[j] == '\r'):
			return "", 0, syntaxErrorf(i, "newline in string")
		case strings.HasPrefix(src[j:], quote):
			// a long string may end in up to two extra quotes
			for long && j+len(quote) < len(src) && src[j+len(quote)] == quote[0] {
				j++
			}
			value, err := rdf.Unescape(src[i+len(quote) : j])
			if err != nil {
				return "", 0, syntaxErrorf(i, "%v", err)
			}
			return value, j + len(quote), nil
		}
		j++
	}
	return "", 0, syntaxErrorf(i, "unterminated string")
}

// scanNumber reads an integer, decimal, or double.  Returns end == i
// if there is no number here after all.
func scanNumber(src string, i int) (token, int) {
	j := i
	if src[j] == '+' || src[j] == '-' {
		j++
	}
	digits := func() int {
		n := 0
		for j < len(src) && isASCIIDigit(src[j]) {
			j++
			n++
		}
		return n
	}
	kind := tokInteger
	intDigits := digits()
	fracDigits := 0
	if j+1 < len(src) && src[j] == '.' && isASCIIDigit(src[j+1]) {
		j++
		fracDigits = digits()
		kind = tokDecimal
	}
	if intDigits == 0 && fracDigits == 0 {
		return token{}, i
	}
	if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
		k := j
		j++
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if digits() == 0 {
			j = k
		} else {
			kind = tokDouble
		}
	}
	return token{kind: kind, pos: i, text: src[i:j]}, j
}

// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	krdf "github.com/knakk/rdf"
)

// CheckIRI returns an error if iri is empty or contains a character
// that no IRI may hold, such as a space or '<'.  Stores keep terms in
// their N-Triples form, so every IRI must survive a round trip
// through it.
func CheckIRI(iri string) error {
	_, err := krdf.NewIRI(iri)
	return err
}

// Unescape decodes the string escapes shared by N-Triples, Turtle, and
// SPARQL: \t \b \n \r \f \" \' \\ and \uXXXX / \UXXXXXXXX.
func Unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("dangling escape in %q", s)
		}
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		case 'u', 'U':
			n := 4
			if s[i] == 'U' {
				n = 8
			}
			if i+1+n > len(s) {
				return "", fmt.Errorf("short unicode escape in %q", s)
			}
			code, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32)
			if err != nil || !utf8.ValidRune(rune(code)) {
				return "", fmt.Errorf("bad unicode escape in %q", s)
			}
			b.WriteRune(rune(code))
			i += n
		default:
			return "", fmt.Errorf("unknown escape \\%c in %q", s[i], s)
		}
	}
	return b.String(), nil
}

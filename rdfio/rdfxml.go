// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package rdfio

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/diffeo/go-graphstore/rdf"
)

// splitPredicate divides a predicate IRI into a namespace and an XML
// local name.  RDF/XML cannot express predicates whose IRI does not
// end in a valid NCName.
func splitPredicate(iri string) (string, string, error) {
	i := strings.LastIndexAny(iri, "#/:")
	if i < 0 || i == len(iri)-1 {
		return "", "", fmt.Errorf("predicate %q cannot be written as RDF/XML", iri)
	}
	local := iri[i+1:]
	for j, r := range local {
		ok := r == '_' || unicode.IsLetter(r)
		if j > 0 {
			ok = ok || r == '-' || r == '.' || unicode.IsDigit(r)
		}
		if !ok {
			return "", "", fmt.Errorf("predicate %q cannot be written as RDF/XML", iri)
		}
	}
	return iri[:i+1], local, nil
}

func xmlEscape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

func encodeRDFXML(w io.Writer, quads []rdf.Quad) error {
	type element struct {
		prefix, local string
		object        rdf.Term
	}
	var (
		namespaces = map[string]string{rdf.RDFNamespace: "rdf"}
		nsOrder    []string
		subjects   []rdf.Term
		elements   = make(map[rdf.Term][]element)
	)
	for _, q := range quads {
		ns, local, err := splitPredicate(q.Predicate.Value)
		if err != nil {
			return err
		}
		prefix, known := namespaces[ns]
		if !known {
			prefix = fmt.Sprintf("ns%d", len(nsOrder))
			namespaces[ns] = prefix
			nsOrder = append(nsOrder, ns)
		}
		if _, seen := elements[q.Subject]; !seen {
			subjects = append(subjects, q.Subject)
		}
		elements[q.Subject] = append(elements[q.Subject], element{prefix, local, q.Object})
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(xml.Header)
	bw.WriteString(`<rdf:RDF xmlns:rdf="` + rdf.RDFNamespace + `"`)
	for _, ns := range nsOrder {
		fmt.Fprintf(bw, "\n         xmlns:%s=\"%s\"", namespaces[ns], xmlEscape(ns))
	}
	bw.WriteString(">\n")
	for _, s := range subjects {
		if s.IsBlank() {
			fmt.Fprintf(bw, "  <rdf:Description rdf:nodeID=\"%s\">\n", xmlEscape(s.Value))
		} else {
			fmt.Fprintf(bw, "  <rdf:Description rdf:about=\"%s\">\n", xmlEscape(s.Value))
		}
		for _, e := range elements[s] {
			name := e.prefix + ":" + e.local
			switch {
			case e.object.IsIRI():
				fmt.Fprintf(bw, "    <%s rdf:resource=\"%s\"/>\n", name, xmlEscape(e.object.Value))
			case e.object.IsBlank():
				fmt.Fprintf(bw, "    <%s rdf:nodeID=\"%s\"/>\n", name, xmlEscape(e.object.Value))
			case e.object.Language != "":
				fmt.Fprintf(bw, "    <%s xml:lang=\"%s\">%s</%s>\n", name, xmlEscape(e.object.Language), xmlEscape(e.object.Value), name)
			case e.object.Datatype != "" && e.object.Datatype != rdf.XSDString:
				fmt.Fprintf(bw, "    <%s rdf:datatype=\"%s\">%s</%s>\n", name, xmlEscape(e.object.Datatype), xmlEscape(e.object.Value), name)
			default:
				fmt.Fprintf(bw, "    <%s>%s</%s>\n", name, xmlEscape(e.object.Value), name)
			}
		}
		bw.WriteString("  </rdf:Description>\n")
	}
	bw.WriteString("</rdf:RDF>\n")
	return bw.Flush()
}

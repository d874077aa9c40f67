// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package rdfio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/diffeo/go-graphstore/rdf"
	"github.com/ugorji/go/codec"
)

// Solution is one row of a SELECT result, mapping variable names
// (without the leading ?) to bound terms.  Unbound variables are
// absent.
type Solution map[string]rdf.Term

const resultsNamespace = "http://www.w3.org/2005/sparql-results#"

// WriteSolutions writes a SELECT result in format f.
func WriteSolutions(w io.Writer, f ResultsFormat, vars []string, rows []Solution) error {
	switch f {
	case ResultsXML:
		return writeXMLSolutions(w, vars, rows)
	case ResultsJSON:
		return writeJSONSolutions(w, vars, rows)
	case ResultsCSV:
		return writeCSVSolutions(w, vars, rows)
	case ResultsTSV:
		return writeTSVSolutions(w, vars, rows)
	}
	return fmt.Errorf("unsupported results format %v", f)
}

// WriteBoolean writes an ASK result in format f.  CSV and TSV have
// no boolean form; they get a bare true or false.
func WriteBoolean(w io.Writer, f ResultsFormat, b bool) error {
	switch f {
	case ResultsXML:
		bw := bufio.NewWriter(w)
		bw.WriteString(`<?xml version="1.0"?>` + "\n")
		bw.WriteString(`<sparql xmlns="` + resultsNamespace + `">` + "\n")
		bw.WriteString("  <head/>\n")
		fmt.Fprintf(bw, "  <boolean>%v</boolean>\n", b)
		bw.WriteString("</sparql>\n")
		return bw.Flush()
	case ResultsJSON:
		doc := jsonBoolean{Head: jsonHead{Vars: []string{}}, Boolean: b}
		return codec.NewEncoder(w, &codec.JsonHandle{}).Encode(doc)
	case ResultsCSV, ResultsTSV:
		_, err := fmt.Fprintf(w, "%v\n", b)
		return err
	}
	return fmt.Errorf("unsupported results format %v", f)
}

func writeXMLSolutions(w io.Writer, vars []string, rows []Solution) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(`<?xml version="1.0"?>` + "\n")
	bw.WriteString(`<sparql xmlns="` + resultsNamespace + `">` + "\n")
	bw.WriteString("  <head>\n")
	for _, v := range vars {
		fmt.Fprintf(bw, "    <variable name=\"%s\"/>\n", xmlEscape(v))
	}
	bw.WriteString("  </head>\n")
	bw.WriteString("  <results>\n")
	for _, row := range rows {
		bw.WriteString("    <result>\n")
		for _, v := range vars {
			t, bound := row[v]
			if !bound {
				continue
			}
			fmt.Fprintf(bw, "      <binding name=\"%s\">", xmlEscape(v))
			switch {
			case t.IsIRI():
				fmt.Fprintf(bw, "<uri>%s</uri>", xmlEscape(t.Value))
			case t.IsBlank():
				fmt.Fprintf(bw, "<bnode>%s</bnode>", xmlEscape(t.Value))
			case t.Language != "":
				fmt.Fprintf(bw, "<literal xml:lang=\"%s\">%s</literal>", xmlEscape(t.Language), xmlEscape(t.Value))
			case t.Datatype != "" && t.Datatype != rdf.XSDString:
				fmt.Fprintf(bw, "<literal datatype=\"%s\">%s</literal>", xmlEscape(t.Datatype), xmlEscape(t.Value))
			default:
				fmt.Fprintf(bw, "<literal>%s</literal>", xmlEscape(t.Value))
			}
			bw.WriteString("</binding>\n")
		}
		bw.WriteString("    </result>\n")
	}
	bw.WriteString("  </results>\n")
	bw.WriteString("</sparql>\n")
	return bw.Flush()
}

type jsonHead struct {
	Vars []string `json:"vars"`
}

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

type jsonResults struct {
	Bindings []map[string]jsonTerm `json:"bindings"`
}

type jsonSolutions struct {
	Head    jsonHead    `json:"head"`
	Results jsonResults `json:"results"`
}

type jsonBoolean struct {
	Head    jsonHead `json:"head"`
	Boolean bool     `json:"boolean"`
}

func toJSONTerm(t rdf.Term) jsonTerm {
	switch {
	case t.IsIRI():
		return jsonTerm{Type: "uri", Value: t.Value}
	case t.IsBlank():
		return jsonTerm{Type: "bnode", Value: t.Value}
	case t.Language != "":
		return jsonTerm{Type: "literal", Value: t.Value, Lang: t.Language}
	case t.Datatype != "" && t.Datatype != rdf.XSDString:
		return jsonTerm{Type: "literal", Value: t.Value, Datatype: t.Datatype}
	}
	return jsonTerm{Type: "literal", Value: t.Value}
}

func writeJSONSolutions(w io.Writer, vars []string, rows []Solution) error {
	doc := jsonSolutions{
		Head:    jsonHead{Vars: append([]string{}, vars...)},
		Results: jsonResults{Bindings: make([]map[string]jsonTerm, 0, len(rows))},
	}
	for _, row := range rows {
		binding := make(map[string]jsonTerm, len(row))
		for v, t := range row {
			binding[v] = toJSONTerm(t)
		}
		doc.Results.Bindings = append(doc.Results.Bindings, binding)
	}
	return codec.NewEncoder(w, &codec.JsonHandle{}).Encode(doc)
}

func writeCSVSolutions(w io.Writer, vars []string, rows []Solution) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(vars); err != nil {
		return err
	}
	record := make([]string, len(vars))
	for _, row := range rows {
		for i, v := range vars {
			t, bound := row[v]
			switch {
			case !bound:
				record[i] = ""
			case t.IsBlank():
				record[i] = "_:" + t.Value
			default:
				record[i] = t.Value
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeTSVSolutions(w io.Writer, vars []string, rows []Solution) error {
	bw := bufio.NewWriter(w)
	header := make([]string, len(vars))
	for i, v := range vars {
		header[i] = "?" + v
	}
	bw.WriteString(strings.Join(header, "\t") + "\n")
	record := make([]string, len(vars))
	for _, row := range rows {
		for i, v := range vars {
			if t, bound := row[v]; bound {
				record[i] = t.String()
			} else {
				record[i] = ""
			}
		}
		bw.WriteString(strings.Join(record, "\t") + "\n")
	}
	return bw.Flush()
}

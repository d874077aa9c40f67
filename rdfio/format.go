// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package rdfio reads and writes RDF graphs, RDF datasets, and SPARQL
// query results.
//
// Formats are identified by media type.  Only the essence of a media
// type is considered: "text/turtle; charset=utf-8" and "text/turtle"
// name the same format.
package rdfio

import (
	"path/filepath"
	"sort"
	"strings"
)

// Format is an RDF graph or dataset serialization.
type Format int

const (
	// NTriples is the line-based graph format.
	NTriples Format = iota + 1

	// Turtle is the terse graph format.
	Turtle

	// RDFXML is the XML graph format.
	RDFXML

	// NQuads is the line-based dataset format.
	NQuads

	// TriG is the Turtle-based dataset format.
	TriG
)

type formatInfo struct {
	name      string
	mediaType string
	extension string
	dataset   bool
}

var formatInfos = map[Format]formatInfo{
	NTriples: {"N-Triples", "application/n-triples", ".nt", false},
	Turtle:   {"Turtle", "text/turtle", ".ttl", false},
	RDFXML:   {"RDF/XML", "application/rdf+xml", ".rdf", false},
	NQuads:   {"N-Quads", "application/n-quads", ".nq", true},
	TriG:     {"TriG", "application/trig", ".trig", true},
}

// GraphFormats lists the graph formats in server preference order.
var GraphFormats = []Format{NTriples, Turtle, RDFXML}

// DatasetFormats lists the dataset formats in server preference order.
var DatasetFormats = []Format{NQuads, TriG}

var formatsByMediaType = map[string]Format{
	"application/n-triples": NTriples,
	"text/plain":            NTriples,
	"text/turtle":           Turtle,
	"application/turtle":    Turtle,
	"application/x-turtle":  Turtle,
	"application/rdf+xml":   RDFXML,
	"application/xml":       RDFXML,
	"text/xml":              RDFXML,
	"application/n-quads":   NQuads,
	"text/x-nquads":         NQuads,
	"text/nquads":           NQuads,
	"application/trig":      TriG,
	"application/x-trig":    TriG,
}

// String returns the human-readable name of the format.
func (f Format) String() string {
	if info, ok := formatInfos[f]; ok {
		return info.name
	}
	return "unknown format"
}

// MediaType returns the canonical media type of the format.
func (f Format) MediaType() string {
	return formatInfos[f].mediaType
}

// IsDataset returns true if the format carries named graphs.
func (f Format) IsDataset() bool {
	return formatInfos[f].dataset
}

// Essence strips parameters from a media type and lower-cases it.
func Essence(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// FormatForMediaType finds the graph or dataset format for a media
// type.
func FormatForMediaType(mediaType string) (Format, bool) {
	f, ok := formatsByMediaType[Essence(mediaType)]
	return f, ok
}

// GraphFormatForMediaType finds a graph (triples-only) format.
func GraphFormatForMediaType(mediaType string) (Format, bool) {
	f, ok := FormatForMediaType(mediaType)
	if !ok || f.IsDataset() {
		return 0, false
	}
	return f, true
}

// DatasetFormatForMediaType finds a dataset (quads) format.
func DatasetFormatForMediaType(mediaType string) (Format, bool) {
	f, ok := FormatForMediaType(mediaType)
	if !ok || !f.IsDataset() {
		return 0, false
	}
	return f, true
}

// FormatForFilename guesses a format from a file extension.
func FormatForFilename(name string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	for f, info := range formatInfos {
		if info.extension == ext {
			return f, true
		}
	}
	return 0, false
}

// MediaTypes returns the canonical media types of formats, in order.
func MediaTypes(formats []Format) []string {
	result := make([]string, len(formats))
	for i, f := range formats {
		result[i] = f.MediaType()
	}
	return result
}

// AllMediaTypes returns the canonical media types of formats, in
// order, followed by their aliases in sorted order.
func AllMediaTypes(formats []Format) []string {
	result := MediaTypes(formats)
	var aliases []string
	for mt, f := range formatsByMediaType {
		for _, want := range formats {
			if f == want && mt != f.MediaType() {
				aliases = append(aliases, mt)
			}
		}
	}
	sort.Strings(aliases)
	return append(result, aliases...)
}

// ResultsFormat is a SPARQL query results serialization.
type ResultsFormat int

const (
	// ResultsXML is the SPARQL Query Results XML Format.
	ResultsXML ResultsFormat = iota + 1

	// ResultsJSON is the SPARQL 1.1 Query Results JSON Format.
	ResultsJSON

	// ResultsCSV is the SPARQL 1.1 Query Results CSV Format.
	ResultsCSV

	// ResultsTSV is the SPARQL 1.1 Query Results TSV Format.
	ResultsTSV
)

// ResultsFormats lists the results formats in server preference order.
var ResultsFormats = []ResultsFormat{ResultsXML, ResultsJSON, ResultsCSV, ResultsTSV}

var resultsMediaTypes = map[ResultsFormat]string{
	ResultsXML:  "application/sparql-results+xml",
	ResultsJSON: "application/sparql-results+json",
	ResultsCSV:  "text/csv",
	ResultsTSV:  "text/tab-separated-values",
}

var resultsByMediaType = map[string]ResultsFormat{
	"application/sparql-results+xml":  ResultsXML,
	"application/sparql-results+json": ResultsJSON,
	"application/json":                ResultsJSON,
	"text/json":                       ResultsJSON,
	"text/csv":                        ResultsCSV,
	"text/tab-separated-values":       ResultsTSV,
	"text/tsv":                        ResultsTSV,
}

// MediaType returns the canonical media type of the results format.
func (f ResultsFormat) MediaType() string {
	return resultsMediaTypes[f]
}

// String returns the canonical media type.
func (f ResultsFormat) String() string {
	return f.MediaType()
}

// ResultsFormatForMediaType finds the results format for a media type.
func ResultsFormatForMediaType(mediaType string) (ResultsFormat, bool) {
	f, ok := resultsByMediaType[Essence(mediaType)]
	return f, ok
}

// AllResultsMediaTypes returns the canonical media types of all
// results formats, in preference order, followed by their aliases in
// sorted order.
func AllResultsMediaTypes() []string {
	result := ResultsMediaTypes()
	var aliases []string
	for mt, f := range resultsByMediaType {
		if mt != f.MediaType() {
			aliases = append(aliases, mt)
		}
	}
	sort.Strings(aliases)
	return append(result, aliases...)
}

// ResultsMediaTypes returns the canonical media types of all results
// formats, in preference order.
func ResultsMediaTypes() []string {
	result := make([]string, len(ResultsFormats))
	for i, f := range ResultsFormats {
		result[i] = f.MediaType()
	}
	return result
}

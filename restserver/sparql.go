// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"bytes"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/diffeo/go-graphstore/rdf"
	"github.com/diffeo/go-graphstore/rdfio"
	"github.com/diffeo/go-graphstore/restdata"
	"github.com/diffeo/go-graphstore/sparql"
)

// paramKeys names the parameters of one kind of SPARQL request.
type paramKeys struct {
	// Text is the query or update string.
	Text string

	// Default and Named restrict the dataset.
	Default string
	Named   string

	// MediaType is the Content-Type of a POSTed raw string.
	MediaType string
}

var (
	queryKeys = paramKeys{
		Text:      "query",
		Default:   "default-graph-uri",
		Named:     "named-graph-uri",
		MediaType: restdata.SPARQLQueryMediaType,
	}
	updateKeys = paramKeys{
		Text:      "update",
		Default:   "using-graph-uri",
		Named:     "using-named-graph-uri",
		MediaType: restdata.SPARQLUpdateMediaType,
	}
)

// sparqlRequest is a query or update string with the dataset
// parameters that came with it.
type sparqlRequest struct {
	Text    string
	HasText bool
	Default []rdf.Term
	Named   []rdf.Term
}

// addPairs walks URL-encoded key/value pairs in order.  If
// textAllowed is false, the text parameter has already come from
// elsewhere and may not appear again.
func (sr *sparqlRequest) addPairs(req *http.Request, raw string, keys paramKeys, textAllowed bool) error {
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value := pair, ""
		if eq := strings.IndexByte(pair, '='); eq >= 0 {
			key, value = pair[:eq], pair[eq+1:]
		}
		key, err := url.QueryUnescape(key)
		if err == nil {
			value, err = url.QueryUnescape(value)
		}
		if err != nil {
			return restdata.Errorf(restdata.BadParameter, "Invalid parameter encoding in %q", pair)
		}
		switch key {
		case keys.Text:
			if sr.HasText || !textAllowed {
				return restdata.Errorf(restdata.MultipleParameters, "Multiple %s parameters", keys.Text)
			}
			sr.Text, sr.HasText = value, true
		case keys.Default, keys.Named:
			graph, err := resolveIRI(req, value)
			if err != nil {
				return err
			}
			if key == keys.Default {
				sr.Default = append(sr.Default, graph)
			} else {
				sr.Named = append(sr.Named, graph)
			}
		default:
			return restdata.Errorf(restdata.UnexpectedParameter, "Unexpected parameter %q", key)
		}
	}
	return nil
}

// extractSPARQL gets the query or update string and dataset
// parameters from a GET query string, a raw POST body, or a POSTed
// form.
func extractSPARQL(req *http.Request, keys paramKeys) (*sparqlRequest, error) {
	sr := &sparqlRequest{}
	var err error
	if req.Method != http.MethodPost {
		err = sr.addPairs(req, req.URL.RawQuery, keys, true)
	} else {
		var mediaType string
		var body []byte
		mediaType, err = contentType(req)
		if err == nil {
			switch mediaType {
			case keys.MediaType, restdata.FormMediaType:
				body, err = readBody(req)
			default:
				err = restdata.Errorf(restdata.UnsupportedMediaType, "Unsupported media type %q", mediaType)
			}
		}
		if err == nil && mediaType == keys.MediaType {
			sr.Text, sr.HasText = string(body), true
			err = sr.addPairs(req, req.URL.RawQuery, keys, false)
		} else if err == nil {
			err = sr.addPairs(req, string(body), keys, true)
		}
	}
	if err == nil && !sr.HasText {
		err = restdata.Errorf(restdata.MissingParameter, "Missing %s parameter", keys.Text)
	}
	if err != nil {
		return nil, err
	}
	return sr, nil
}

// sparqlError classifies an error from the engine.
func sparqlError(err error) error {
	switch cause := errors.Cause(err).(type) {
	case sparql.SyntaxError:
		return restdata.Error{Kind: restdata.BadQuery, Err: cause}
	case sparql.EvalError:
		return restdata.Error{Kind: restdata.EvaluationFailed, Err: cause}
	case sparql.ErrUsingConflict:
		return restdata.Error{Kind: restdata.DatasetConflict, Err: cause}
	case restdata.Error:
		return cause
	}
	return restdata.Wrap(restdata.Internal, err)
}

// Query runs a SPARQL query and returns its results in a negotiated
// format.
func (api *restAPI) Query(resp http.ResponseWriter, req *http.Request) error {
	sr, err := extractSPARQL(req, queryKeys)
	if err != nil {
		return err
	}
	q, err := api.Engine.ParseQuery(sr.Text, absoluteURL(req, req.URL.EscapedPath()))
	if err != nil {
		return sparqlError(err)
	}
	q = q.WithDataset(sr.Default, sr.Named)

	// Negotiate before doing any work; the query form determines
	// which formats apply.
	var (
		graphFormat   rdfio.Format
		resultsFormat rdfio.ResultsFormat
		mediaType     string
	)
	if q.Form == sparql.Construct || q.Form == sparql.Describe {
		if mediaType, err = negotiateRequest(req, rdfio.AllMediaTypes(rdfio.GraphFormats)); err != nil {
			return err
		}
		graphFormat, _ = rdfio.GraphFormatForMediaType(mediaType)
		mediaType = graphFormat.MediaType()
	} else {
		if mediaType, err = negotiateRequest(req, rdfio.AllResultsMediaTypes()); err != nil {
			return err
		}
		resultsFormat, _ = rdfio.ResultsFormatForMediaType(mediaType)
		mediaType = resultsFormat.MediaType()
	}

	results, err := api.Engine.Query(req.Context(), q)
	if err != nil {
		return sparqlError(err)
	}
	var body bytes.Buffer
	switch results.Kind {
	case sparql.GraphResult:
		err = rdfio.Encode(&body, graphFormat, results.Graph)
	case sparql.BooleanResult:
		err = rdfio.WriteBoolean(&body, resultsFormat, results.Boolean)
	default:
		err = rdfio.WriteSolutions(&body, resultsFormat, results.Vars, results.Solutions)
	}
	if err != nil {
		return restdata.Wrap(restdata.Internal, err)
	}
	writeBody(resp, http.StatusOK, mediaType, &body)
	return nil
}

// Update runs a SPARQL update.
func (api *restAPI) Update(resp http.ResponseWriter, req *http.Request) error {
	sr, err := extractSPARQL(req, updateKeys)
	if err != nil {
		return err
	}
	u, err := api.Engine.ParseUpdate(sr.Text, absoluteURL(req, req.URL.EscapedPath()))
	if err != nil {
		return sparqlError(err)
	}
	if u, err = u.WithUsing(sr.Default, sr.Named); err != nil {
		return sparqlError(err)
	}
	if err = api.Engine.Update(req.Context(), u); err != nil {
		return sparqlError(err)
	}
	resp.WriteHeader(http.StatusNoContent)
	return nil
}

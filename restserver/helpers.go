// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

// This file contains various HTTP-related helpers.

import (
	"bytes"
	"io/ioutil"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/diffeo/go-graphstore/restdata"
)

type urlBuilder struct {
	Router *mux.Router
	Error  error
}

func buildURLs(router *mux.Router) *urlBuilder {
	return &urlBuilder{Router: router}
}

func (u *urlBuilder) Route(route string) *mux.Route {
	if u.Error != nil {
		return nil
	}
	r := u.Router.Get(route)
	if r == nil {
		u.Error = restdata.Errorf(restdata.Internal, "No such route %q", route)
	}
	return r
}

// URL writes the path of a route with no parameters.
func (u *urlBuilder) URL(out *string, route string) *urlBuilder {
	r := u.Route(route)
	if u.Error == nil {
		url, err := r.URL()
		if err != nil {
			u.Error = restdata.Wrap(restdata.Internal, err)
		} else {
			*out = url.EscapedPath()
		}
	}
	return u
}

// Query writes the path of a route followed by a literal query
// string.
func (u *urlBuilder) Query(out *string, route, query string) *urlBuilder {
	var path string
	if u.URL(&path, route).Error == nil {
		*out = path + "?" + query
	}
	return u
}

// Template writes the path of a route followed by an RFC 6570
// form-style query expansion for param.
func (u *urlBuilder) Template(out *string, route, param string) *urlBuilder {
	var path string
	if u.URL(&path, route).Error == nil {
		*out = path + "{?" + param + "}"
	}
	return u
}

// contentType returns the essence of the request's Content-Type:
// header.
func contentType(req *http.Request) (string, error) {
	header := req.Header.Get("Content-Type")
	if header == "" {
		return "", restdata.Errorf(restdata.MissingContentType, "No Content-Type given")
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", restdata.Errorf(restdata.BadContentType, "Invalid Content-Type %q", header)
	}
	return mediaType, nil
}

// readBody reads the entire request body.
func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	body, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return nil, restdata.Error{Kind: restdata.BadBody, Err: err}
	}
	return body, nil
}

// writeBody sends a complete successful response.
func writeBody(resp http.ResponseWriter, status int, mediaType string, body *bytes.Buffer) {
	resp.Header().Set("Content-Type", mediaType)
	resp.WriteHeader(status)
	// The status line is already out, so there is nothing useful
	// to do with a write error here.
	_, _ = body.WriteTo(resp)
}

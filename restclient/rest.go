// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

// This file provides generic REST client code.

import (
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/jtacoma/uritemplates"

	"github.com/diffeo/go-graphstore/restdata"
)

// resource is any object that has a URL.
type resource struct {
	URL    *url.URL
	Client *http.Client
}

// Template expands an RFC 6570 URI template with vars, and returns
// the result taken relative to the resource's URL.
func (r *resource) Template(template string, vars map[string]interface{}) (*url.URL, error) {
	tmpl, err := uritemplates.Parse(template)
	if err != nil {
		return nil, err
	}
	expanded, err := tmpl.Expand(vars)
	if err != nil {
		return nil, err
	}
	return r.URL.Parse(expanded)
}

// request is one outgoing HTTP request.
type request struct {
	Method string
	URL    *url.URL

	// ContentType describes Body, if there is one.
	ContentType string
	Body        io.Reader

	// Accept, if non-empty, is sent as the Accept: header.
	Accept string
}

// Response is a successful response from the server.
type Response struct {
	// StatusCode is the HTTP status code, always 2xx.
	StatusCode int

	// ContentType is the media type of Body, without parameters
	// if the server sent none.
	ContentType string

	// Location is the Location: header, set when a request
	// created a new graph.
	Location string

	// Body is the complete response body.
	Body []byte
}

// Do performs some HTTP action.  If the server returns anything
// other than a 2xx status, the error is a restdata.ErrorResponse
// carrying the server's message.
func (r *resource) Do(ctx context.Context, in request) (result *Response, err error) {
	req, err := http.NewRequestWithContext(ctx, in.Method, in.URL.String(), in.Body)
	if err != nil {
		return nil, err
	}
	if in.Body != nil {
		req.Header.Set("Content-Type", in.ContentType)
	}
	if in.Accept != "" {
		req.Header.Set("Accept", in.Accept)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = firstError(err, resp.Body.Close())
	}()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err = checkHTTPStatus(resp, body); err != nil {
		return nil, err
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Location:    resp.Header.Get("Location"),
		Body:        body,
	}, nil
}

// checkHTTPStatus examines an HTTP response and returns an error if
// it is not successful.
func checkHTTPStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return restdata.ErrorResponse{
		Status:  resp.StatusCode,
		Message: strings.TrimSpace(string(body)),
	}
}

func firstError(e1, e2 error) error {
	if e1 != nil {
		return e1
	}
	return e2
}

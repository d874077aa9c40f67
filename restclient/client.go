// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restclient provides an HTTP client for the SPARQL protocol
// and graph store server in the "restserver" package.
//
// The server in github.com/diffeo/go-graphstore/cmd/graphstored can
// run a compatible server.  Call New() with the base URL of that
// service; for instance,
//
//     c, err := restclient.New("http://localhost:5980/")
package restclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/diffeo/go-graphstore/restdata"
)

// Client talks to a graph store server.  The URLs of the individual
// endpoints come from the server's root document.
type Client struct {
	resource
	Representation restdata.RootData
}

// New creates a client for the server at baseURL, using
// http.DefaultClient.
func New(baseURL string) (*Client, error) {
	return NewWithClient(baseURL, http.DefaultClient)
}

// NewWithClient creates a client for the server at baseURL that
// sends its requests through httpClient.
func NewWithClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{resource: resource{URL: u, Client: httpClient}}
	if err = c.Refresh(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh retrieves the root document again.
func (c *Client) Refresh(ctx context.Context) error {
	resp, err := c.Do(ctx, request{
		Method: http.MethodGet,
		URL:    c.URL,
		Accept: restdata.JSONMediaType,
	})
	if err != nil {
		return err
	}
	root := restdata.RootData{}
	err = restdata.Decode(resp.ContentType, bytes.NewReader(resp.Body), &root)
	if err != nil {
		return err
	}
	c.Representation = root
	return nil
}

// Dataset lists graph IRIs that restrict a query or update.  For a
// query, Default graphs are merged into the default graph and Named
// graphs are the only named graphs visible.  For an update they are
// the USING and USING NAMED graphs.
type Dataset struct {
	Default []string
	Named   []string
}

func (ds Dataset) params(defaultKey, namedKey string) string {
	values := url.Values{}
	for _, g := range ds.Default {
		values.Add(defaultKey, g)
	}
	for _, g := range ds.Named {
		values.Add(namedKey, g)
	}
	return values.Encode()
}

// Target selects part of the dataset for a graph store request.  The
// zero value is the whole store.
type Target struct {
	// Graph is the IRI of a named graph.
	Graph string

	// Default selects the default graph.
	Default bool
}

// DefaultGraph is the target for the default graph.
var DefaultGraph = Target{Default: true}

// NamedGraph returns the target for the named graph with an IRI.
func NamedGraph(iri string) Target {
	return Target{Graph: iri}
}

func (c *Client) endpoint(ref, params string) (*url.URL, error) {
	u, err := c.URL.Parse(ref)
	if err != nil {
		return nil, err
	}
	if params != "" {
		u.RawQuery = params
	}
	return u, nil
}

func (c *Client) targetURL(t Target) (*url.URL, error) {
	switch {
	case t.Graph != "":
		return c.Template(c.Representation.GraphURL, map[string]interface{}{"graph": t.Graph})
	case t.Default:
		return c.URL.Parse(c.Representation.DefaultGraphURL)
	}
	return c.URL.Parse(c.Representation.StoreURL)
}

// Query runs a SPARQL query.  accept is sent as the Accept: header;
// if it is empty the server picks a format.  The response holds the
// serialized results.
func (c *Client) Query(ctx context.Context, query, accept string, ds Dataset) (*Response, error) {
	u, err := c.endpoint(c.Representation.QueryURL, ds.params("default-graph-uri", "named-graph-uri"))
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, request{
		Method:      http.MethodPost,
		URL:         u,
		ContentType: restdata.SPARQLQueryMediaType,
		Body:        bytes.NewBufferString(query),
		Accept:      accept,
	})
}

// Update runs a SPARQL update.
func (c *Client) Update(ctx context.Context, update string, ds Dataset) error {
	u, err := c.endpoint(c.Representation.UpdateURL, ds.params("using-graph-uri", "using-named-graph-uri"))
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, request{
		Method:      http.MethodPost,
		URL:         u,
		ContentType: restdata.SPARQLUpdateMediaType,
		Body:        bytes.NewBufferString(update),
	})
	return err
}

// GetGraph retrieves a graph, or the whole dataset.
func (c *Client) GetGraph(ctx context.Context, t Target, accept string) (*Response, error) {
	u, err := c.targetURL(t)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, request{Method: http.MethodGet, URL: u, Accept: accept})
}

// PutGraph replaces the contents of a graph with body, which is in
// the format contentType names.  Returns true if the graph was
// created.
func (c *Client) PutGraph(ctx context.Context, t Target, contentType string, body io.Reader) (bool, error) {
	u, err := c.targetURL(t)
	if err != nil {
		return false, err
	}
	resp, err := c.Do(ctx, request{
		Method:      http.MethodPut,
		URL:         u,
		ContentType: contentType,
		Body:        body,
	})
	if err != nil {
		return false, err
	}
	return resp.StatusCode == http.StatusCreated, nil
}

// PostGraph merges body into a graph or the dataset.  If this
// created a graph, returns the URL of the new graph.
func (c *Client) PostGraph(ctx context.Context, t Target, contentType string, body io.Reader) (string, error) {
	u, err := c.targetURL(t)
	if err != nil {
		return "", err
	}
	resp, err := c.Do(ctx, request{
		Method:      http.MethodPost,
		URL:         u,
		ContentType: contentType,
		Body:        body,
	})
	if err != nil {
		return "", err
	}
	return resp.Location, nil
}

// DeleteGraph removes a named graph, or empties the default graph or
// the whole store.
func (c *Client) DeleteGraph(ctx context.Context, t Target) error {
	u, err := c.targetURL(t)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, request{Method: http.MethodDelete, URL: u})
	return err
}

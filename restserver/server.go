// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/diffeo/go-graphstore/restdata"
	"github.com/diffeo/go-graphstore/sparql"
	"github.com/diffeo/go-graphstore/store"
)

// Options holds optional settings for the server.
type Options struct {
	// Logger receives reports of server-side failures.  If nil,
	// the standard logrus logger is used.
	Logger *logrus.Logger

	// MaxBodyBytes limits the size of request bodies.  Zero
	// means no limit.
	MaxBodyBytes int64
}

// NewRouter creates a new HTTP handler that processes all protocol
// requests.  All resources are under the URL path root, e.g.
// /store.  For more control over this setup, create a mux.Router and
// call PopulateRouter instead.
func NewRouter(st store.Store, engine *sparql.Engine, opts Options) http.Handler {
	r := mux.NewRouter()
	PopulateRouter(r, st, engine, opts)
	return r
}

// PopulateRouter adds the protocol routes to an existing
// github.com/gorilla/mux router object.  This can be used, for
// instance, to place the interface under a subpath:
//
//     r := mux.NewRouter()
//     s := r.PathPrefix("/rdf").Subrouter()
//     st := memory.New()
//     PopulateRouter(s, st, sparql.NewEngine(st, 100), Options{})
func PopulateRouter(r *mux.Router, st store.Store, engine *sparql.Engine, opts Options) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	api := &restAPI{Store: st, Engine: engine, Router: r, Options: opts}
	api.PopulateRouter(r)
}

// restAPI holds the persistent state for the REST API.
type restAPI struct {
	Store   store.Store
	Engine  *sparql.Engine
	Router  *mux.Router
	Options Options
}

// PopulateRouter adds all URL paths to a router.
func (api *restAPI) PopulateRouter(r *mux.Router) {
	r.Path("/").Name("root").Handler(&resourceHandler{
		API: api,
		Get: api.RootDocument,
	})
	r.Path("/query").Name("query").Handler(&resourceHandler{
		API:  api,
		Get:  api.Query,
		Post: api.Query,
	})
	r.Path("/update").Name("update").Handler(&resourceHandler{
		API:  api,
		Post: api.Update,
	})
	r.Path("/store").Name("store").Handler(api.graphStoreHandler(false))
	r.Path("/store/{path:.+}").Name("graph").Handler(api.graphStoreHandler(true))
}

var rootTemplate = template.Must(template.New("root").Parse(`<!DOCTYPE html>
<html>
<head><title>Graph Store</title></head>
<body>
<h1>Graph Store</h1>
<ul>
<li>SPARQL query: <a href="{{.QueryURL}}">{{.QueryURL}}</a></li>
<li>SPARQL update: {{.UpdateURL}}</li>
<li>Graph store: <a href="{{.StoreURL}}">{{.StoreURL}}</a></li>
<li>Named graphs: {{.GraphURL}}</li>
<li>Default graph: <a href="{{.DefaultGraphURL}}">{{.DefaultGraphURL}}</a></li>
</ul>
</body>
</html>
`))

// RootDocument describes the other endpoints, as HTML or JSON.
func (api *restAPI) RootDocument(resp http.ResponseWriter, req *http.Request) error {
	mediaType, err := negotiateRequest(req, []string{restdata.HTMLMediaType, restdata.JSONMediaType})
	if err != nil {
		return err
	}
	root := restdata.RootData{}
	err = buildURLs(api.Router).
		URL(&root.QueryURL, "query").
		URL(&root.UpdateURL, "update").
		URL(&root.StoreURL, "store").
		Template(&root.GraphURL, "store", "graph").
		Query(&root.DefaultGraphURL, "store", "default").
		Error
	if err != nil {
		return err
	}
	var body bytes.Buffer
	if mediaType == restdata.JSONMediaType {
		err = restdata.Encode(&body, root)
	} else {
		err = rootTemplate.Execute(&body, root)
		mediaType = "text/html; charset=utf-8"
	}
	if err != nil {
		return restdata.Wrap(restdata.Internal, err)
	}
	writeBody(resp, http.StatusOK, mediaType, &body)
	return nil
}

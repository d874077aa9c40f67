// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

// This file contains a REST skeleton framework.
//
// Each resource names a handler function per HTTP method.  Handlers
// negotiate their own response types, since the set of acceptable
// types depends on the operation, and either write a complete
// response or return an error.  Errors, including panics, are turned
// into text/plain responses here, with the status code coming from
// restdata.ErrorStatus.

import (
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/diffeo/go-graphstore/restdata"
)

// handlerFunc handles one HTTP method on one resource.  It either
// writes a complete response and returns nil, or writes nothing and
// returns an error.
type handlerFunc func(resp http.ResponseWriter, req *http.Request) error

type resourceHandler struct {
	API *restAPI

	// Get, if non-nil, returns a representation of the resource.
	// It also serves HEAD requests, with the body discarded.
	Get handlerFunc

	// Put, if non-nil, replaces the resource.
	Put handlerFunc

	// Post, if non-nil, takes some arbitrary action.
	Post handlerFunc

	// Delete, if non-nil, deletes the resource.
	Delete handlerFunc
}

// allow lists the methods this resource supports.
func (h *resourceHandler) allow() string {
	var methods []string
	if h.Get != nil {
		methods = append(methods, http.MethodGet, http.MethodHead)
	}
	if h.Put != nil {
		methods = append(methods, http.MethodPut)
	}
	if h.Post != nil {
		methods = append(methods, http.MethodPost)
	}
	if h.Delete != nil {
		methods = append(methods, http.MethodDelete)
	}
	return strings.Join(methods, ", ")
}

// headWriter discards the response body of a HEAD request.
type headWriter struct {
	http.ResponseWriter
}

func (w headWriter) Write(b []byte) (int, error) {
	return len(b), nil
}

func (h *resourceHandler) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	// Recover from panics by sending an HTTP error.
	defer func() {
		if recovered := recover(); recovered != nil {
			err, stack := restdata.FromPanic(recovered)
			h.API.logger(req).WithField("stack", stack).Error(err.Error())
			writeError(resp, err)
		}
	}()

	if h.API.Options.MaxBodyBytes > 0 && req.Body != nil {
		req.Body = http.MaxBytesReader(resp, req.Body, h.API.Options.MaxBodyBytes)
	}

	var handler handlerFunc
	switch req.Method {
	case http.MethodGet:
		handler = h.Get
	case http.MethodHead:
		handler = h.Get
		resp = headWriter{resp}
	case http.MethodPut:
		handler = h.Put
	case http.MethodPost:
		handler = h.Post
	case http.MethodDelete:
		handler = h.Delete
	}

	var err error
	if handler == nil {
		resp.Header().Set("Allow", h.allow())
		err = restdata.Errorf(restdata.MethodNotAllowed, "Method %v not allowed", req.Method)
	} else {
		err = handler(resp, req)
	}
	if err != nil {
		h.API.fail(resp, req, err)
	}
}

// fail reports an error to the client, logging server-side failures.
func (api *restAPI) fail(resp http.ResponseWriter, req *http.Request, err error) {
	if _, hasStatus := err.(restdata.ErrorStatus); !hasStatus {
		err = restdata.Wrap(restdata.Internal, err)
	}
	status := restdata.StatusOf(err)
	if status >= http.StatusInternalServerError {
		api.logger(req).WithFields(logrus.Fields{
			"status": status,
			"error":  err.Error(),
		}).Error("request failed")
	}
	writeError(resp, err)
}

// writeError sends an error response with a plain text body.
func writeError(resp http.ResponseWriter, err error) {
	resp.Header().Set("Content-Type", restdata.TextMediaType)
	resp.Header().Set("X-Content-Type-Options", "nosniff")
	resp.WriteHeader(restdata.StatusOf(err))
	_, _ = io.WriteString(resp, err.Error()+"\n")
}

func (api *restAPI) logger(req *http.Request) *logrus.Entry {
	return api.Options.Logger.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
	})
}

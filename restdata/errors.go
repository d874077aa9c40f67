// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"fmt"
	"net/http"
	"runtime"
)

// ErrorStatus describes errors that correspond to specific HTTP status
// codes.
type ErrorStatus interface {
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrorKind identifies one of the failures the server reports.
type ErrorKind int

// The complete set of error kinds.
const (
	// ConflictingParameters: both graph and default were given.
	ConflictingParameters ErrorKind = iota + 1

	// MissingParameter: no query or update was given.
	MissingParameter

	// UnexpectedParameter: a form or query string has a key the
	// operation does not recognize.
	UnexpectedParameter

	// MultipleParameters: a query or update was given twice.
	MultipleParameters

	// BadParameter: a parameter value cannot be used.
	BadParameter

	// MissingContentType: a request with a body has no
	// Content-Type: header.
	MissingContentType

	// BadContentType: the Content-Type: header cannot be parsed.
	BadContentType

	// BadAccept: the Accept: header cannot be parsed.
	BadAccept

	// BadBody: the request body cannot be read or parsed.
	BadBody

	// BadQuery: the query or update string is malformed.
	BadQuery

	// EvaluationFailed: a well-formed query or update could not
	// be carried out.
	EvaluationFailed

	// DatasetConflict: an update names its own dataset and also
	// received dataset parameters.
	DatasetConflict

	// NoTarget: PUT was sent to the whole store.
	NoTarget

	// NoSuchGraph: the named graph does not exist.
	NoSuchGraph

	// MethodNotAllowed: the route does not support the method.
	MethodNotAllowed

	// NotAcceptable: no supported media type satisfies Accept:.
	NotAcceptable

	// UnsupportedMediaType: the request body is in a format the
	// operation cannot read.
	UnsupportedMediaType

	// Internal: storage, I/O, or programming failure.
	Internal
)

var kindNames = map[ErrorKind]string{
	ConflictingParameters: "conflicting parameters",
	MissingParameter:      "missing parameter",
	UnexpectedParameter:   "unexpected parameter",
	MultipleParameters:    "multiple parameters",
	BadParameter:          "bad parameter",
	MissingContentType:    "missing content type",
	BadContentType:        "bad content type",
	BadAccept:             "bad accept header",
	BadBody:               "bad request body",
	BadQuery:              "malformed query",
	EvaluationFailed:      "evaluation failed",
	DatasetConflict:       "dataset conflict",
	NoTarget:              "no target graph",
	NoSuchGraph:           "no such graph",
	MethodNotAllowed:      "method not allowed",
	NotAcceptable:         "not acceptable",
	UnsupportedMediaType:  "unsupported media type",
	Internal:              "internal error",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// HTTPStatus returns the status code for errors of this kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case NoSuchGraph:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case NotAcceptable:
		return http.StatusNotAcceptable
	case UnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case Internal:
		return http.StatusInternalServerError
	}
	if _, known := kindNames[k]; known {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error is the error type the server reports.  Err, if set, is the
// underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

// HTTPStatus returns the status code for the error's kind.
func (e Error) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// Unwrap returns the underlying error, if any.
func (e Error) Unwrap() error {
	return e.Err
}

// Errorf creates an Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) Error {
	return Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error whose message is that of err.  Returns nil
// if err is nil.
func Wrap(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return Error{Kind: kind, Err: err}
}

// StatusOf returns the HTTP status for any error: its own if it
// implements ErrorStatus, otherwise 500.
func StatusOf(err error) int {
	if es, ok := err.(ErrorStatus); ok {
		return es.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// FromPanic builds an Internal error from a recovered panic value.
// The returned stack trace is for logging, not for the client.
// Typical use is:
//
//     defer func() {
//         if obj := recover(); obj != nil {
//             err, stack := restdata.FromPanic(obj)
//             // log stack, write err out
//         }
//     }()
func FromPanic(obj interface{}) (Error, string) {
	e := Error{Kind: Internal}
	if recoveredError, isError := obj.(error); isError {
		e.Message = "panic: " + recoveredError.Error()
	} else {
		e.Message = fmt.Sprintf("panic: %+v", obj)
	}
	var stack [4096]byte
	n := runtime.Stack(stack[:], false)
	return e, string(stack[:n])
}

// ErrorResponse is an error as received by a client: the status code
// and text body of a failed response.
type ErrorResponse struct {
	Status  int
	Message string
}

func (e ErrorResponse) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// HTTPStatus returns the status code the server sent.
func (e ErrorResponse) HTTPStatus() int {
	return e.Status
}

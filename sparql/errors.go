// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package sparql

import "fmt"

// SyntaxError is returned when a query or update string cannot be
// parsed.  Pos is the byte offset of the problem in the input.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

func syntaxErrorf(pos int, format string, args ...interface{}) error {
	return SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// EvalError is returned when a well-formed query or update cannot be
// carried out against the current dataset, for instance creating a
// graph that already exists.  Storage failures are returned as they
// are, not as EvalError.
type EvalError struct {
	Err error
}

func (e EvalError) Error() string {
	return e.Err.Error()
}

// ErrUsingConflict is returned from Update.WithUsing when the update
// already names its own dataset.
type ErrUsingConflict struct{}

func (ErrUsingConflict) Error() string {
	return "update has its own USING, USING NAMED, or WITH clause and also dataset parameters"
}

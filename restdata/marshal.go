// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"io"
	"mime"

	"github.com/ugorji/go/codec"
)

// Decode tries to decode a restdata object from a reader, such as an
// HTTP request or response.  out must be a pointer type.
func Decode(contentType string, r io.Reader, out interface{}) error {
	if contentType == "" {
		return Errorf(MissingContentType, "No Content-Type given")
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return Error{Kind: BadContentType, Err: err}
	}
	switch mediaType {
	case "text/json", JSONMediaType:
	default:
		return Errorf(UnsupportedMediaType, "Unsupported media type %q", mediaType)
	}
	json := &codec.JsonHandle{}
	decoder := codec.NewDecoder(r, json)
	if err = decoder.Decode(out); err != nil {
		return Error{Kind: BadBody, Err: err}
	}
	return nil
}

// Encode writes a restdata object as JSON.
func Encode(w io.Writer, in interface{}) error {
	json := &codec.JsonHandle{}
	encoder := codec.NewEncoder(w, json)
	return encoder.Encode(in)
}

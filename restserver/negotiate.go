// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/diffeo/go-graphstore/restdata"
)

// qualityItem is one media range from an Accept: header.
type qualityItem struct {
	mediaType string
	params    int
	q         float64
}

// specificity ranks media ranges: a concrete type with parameters
// beats a concrete type, which beats type/*, which beats */*.
func (qi qualityItem) specificity() int {
	switch {
	case qi.mediaType == "*/*":
		return 0
	case strings.HasSuffix(qi.mediaType, "/*"):
		return 1
	case qi.params > 0:
		return 3
	}
	return 2
}

// matches returns the first supported media type this range
// selects, or "".
func (qi qualityItem) matches(supported []string) string {
	if qi.mediaType == "*/*" {
		return supported[0]
	}
	if strings.HasSuffix(qi.mediaType, "/*") {
		prefix := strings.TrimSuffix(qi.mediaType, "*")
		for _, mt := range supported {
			if strings.HasPrefix(strings.ToLower(mt), prefix) {
				return mt
			}
		}
		return ""
	}
	for _, mt := range supported {
		if strings.EqualFold(mt, qi.mediaType) {
			return mt
		}
	}
	return ""
}

// parseAccept reads every media range from every Accept: header
// value, in order.
func parseAccept(values []string) ([]qualityItem, error) {
	var items []qualityItem
	for _, value := range values {
		for _, mediaRange := range strings.Split(value, ",") {
			mediaRange = strings.TrimSpace(mediaRange)
			if mediaRange == "" {
				continue
			}
			mediaType, params, err := mime.ParseMediaType(mediaRange)
			if err != nil {
				return nil, restdata.Errorf(restdata.BadAccept, "Invalid Accept: header %q", value)
			}
			slash := strings.IndexByte(mediaType, '/')
			if slash <= 0 || slash == len(mediaType)-1 || (mediaType[:slash] == "*" && mediaType != "*/*") {
				return nil, restdata.Errorf(restdata.BadAccept, "Invalid media range %q", mediaRange)
			}
			item := qualityItem{mediaType: mediaType, q: 1.0, params: len(params)}
			if qStr, haveQ := params["q"]; haveQ {
				item.params--
				item.q, err = strconv.ParseFloat(qStr, 64)
				if err != nil || item.q < 0.0 || item.q > 1.0 {
					return nil, restdata.Errorf(restdata.BadAccept, "Invalid quality %q", qStr)
				}
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// negotiate picks the best of the supported media types for the
// Accept: header values, following RFC 7231 section 5.3.2.  With no
// usable preferences, the first supported type wins.
func negotiate(acceptValues []string, supported []string) (string, error) {
	items, err := parseAccept(acceptValues)
	if err != nil {
		return "", err
	}
	acceptable := items[:0]
	for _, item := range items {
		if item.q > 0 {
			acceptable = append(acceptable, item)
		}
	}
	if len(acceptable) == 0 {
		return supported[0], nil
	}
	sort.SliceStable(acceptable, func(i, j int) bool {
		if acceptable[i].q != acceptable[j].q {
			return acceptable[i].q > acceptable[j].q
		}
		return acceptable[i].specificity() > acceptable[j].specificity()
	})
	for _, item := range acceptable {
		if mt := item.matches(supported); mt != "" {
			return mt, nil
		}
	}
	return "", restdata.Errorf(restdata.NotAcceptable, "No acceptable representation for response")
}

// negotiateRequest negotiates using the request's Accept: headers.
func negotiateRequest(req *http.Request, supported []string) (string, error) {
	return negotiate(req.Header["Accept"], supported)
}

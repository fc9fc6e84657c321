// Package endpoint extracts a normalized endpoint model from source files.
package endpoint

import (
	"fmt"
	"strings"
)

// Endpoint is a single addressable route. Immutable after extraction;
// detectors consume it read-only.
type Endpoint struct {
	Path     string   `json:"path"`
	Methods  []string `json:"methods"` // non-empty, sorted
	File     string   `json:"file"`
	Line     int      `json:"line"`
	RouteRaw string   `json:"-"` // original registration line, for naming heuristics
}

// Location returns the file:line source location string.
func (e Endpoint) Location() string {
	return fmt.Sprintf("%s:%d", e.File, e.Line)
}

// HasMethod reports whether the endpoint carries the given HTTP verb.
func (e Endpoint) HasMethod(verb string) bool {
	for _, m := range e.Methods {
		if m == verb {
			return true
		}
	}
	return false
}

// Segments returns the path split into segments, empty segments removed.
func (e Endpoint) Segments() []string {
	var segs []string
	for _, s := range strings.Split(e.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// IsParamSegment reports whether a path segment is a parameter
// placeholder rather than a literal resource name.
func IsParamSegment(seg string) bool {
	if seg == "" {
		return false
	}
	switch {
	case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
		return true
	case strings.HasPrefix(seg, "<") && strings.HasSuffix(seg, ">"):
		return true
	case strings.HasPrefix(seg, ":"):
		return true
	case strings.HasPrefix(seg, "("):
		// regex group segments from re_path-style routes
		return true
	}
	return false
}

// LiteralSegments returns the path segments with parameter placeholders
// stripped.
func (e Endpoint) LiteralSegments() []string {
	var segs []string
	for _, s := range e.Segments() {
		if !IsParamSegment(s) {
			segs = append(segs, s)
		}
	}
	return segs
}

// Package graph compiles the workspace model into the graphs the rule
// engines query.
//
// # Feature Graph
//
// Nodes are (package, feature) pairs plus one synthetic activated node per
// package, stored in an arena and addressed by NodeID. Edges carry their
// strength (weak or strong) and the kind of the dependency they cross.
//
// # Package Graph
//
// A coarser depends-on graph over package names, used for tracing why one
// package depends on another.
//
// # Lifecycle
//
// Both graphs are built once per command and never mutated afterwards; every
// query is read-only.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Sentinel errors for graph queries.
var (
	// ErrUnknownPackage is returned when a query names a package that is
	// not part of the workspace.
	ErrUnknownPackage = errors.New("unknown package")

	// ErrUnknownFeature is returned when a query names a feature that no
	// package declares.
	ErrUnknownFeature = errors.New("unknown feature")
)

// QueryError is a user-facing error for a query that names something absent
// from the workspace.
type QueryError struct {
	Name        string
	Err         error
	Suggestions []string
}

func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%v: %q", e.Err, e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(quoteAll(e.Suggestions), " or "))
	}
	return msg
}

func (e *QueryError) Unwrap() error { return e.Err }

const maxSuggestions = 3

// NewQueryError builds a QueryError with the closest fuzzy matches among
// candidates.
func NewQueryError(err error, name string, candidates []string) *QueryError {
	qe := &QueryError{Name: name, Err: err}
	for _, m := range fuzzy.Find(name, candidates) {
		qe.Suggestions = append(qe.Suggestions, m.Str)
		if len(qe.Suggestions) == maxSuggestions {
			break
		}
	}
	return qe
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

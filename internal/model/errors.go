package model

import (
	"errors"
	"strings"
)

// Sentinel errors for workspace modeling failures.
var (
	ErrDuplicatePackage    = errors.New("duplicate package")
	ErrDuplicateFeature    = errors.New("duplicate feature")
	ErrUnknownDependency   = errors.New("unknown dependency")
	ErrUnknownFeature      = errors.New("unknown feature")
	ErrMalformedActivation = errors.New("malformed activation")
)

// ModelError is a fatal inconsistency in the workspace description. It aborts
// the command before any rule runs.
type ModelError struct {
	Package string
	Feature string
	Entry   string
	Err     error
}

func (e *ModelError) Error() string {
	var b strings.Builder
	b.WriteString("workspace model: ")
	if e.Package != "" {
		b.WriteString("package " + quote(e.Package))
		if e.Feature != "" {
			b.WriteString(" feature " + quote(e.Feature))
		}
		if e.Entry != "" {
			b.WriteString(" entry " + quote(e.Entry))
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ModelError) Unwrap() error { return e.Err }

func quote(s string) string { return "'" + s + "'" }

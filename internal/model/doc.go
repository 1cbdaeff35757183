// Package model is the typed, in-memory view of a workspace: its packages,
// their dependencies, and the features they declare.
//
// A Workspace is built once per invocation from a Snapshot of raw records
// supplied by the loader. Activation strings are parsed into the closed
// Activation variant during construction and every dependency reference is
// resolved through its rename, so downstream consumers never re-parse text.
package model

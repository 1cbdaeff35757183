// Package workspace discovers and loads the manifests of a workspace, builds
// the snapshot the model consumes, and writes planned feature edits back.
// Member manifests are read concurrently; everything after loading is
// sequential.
package workspace

// Package lint implements the rule engines that run against a compiled
// feature graph.
//
// Every engine is read-only with respect to the graph. Engines that can fix
// what they find record their edits in a rewrite.EditMap, which the caller
// plans and applies once all engines have run.
package lint

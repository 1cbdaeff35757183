// Package rewrite turns proposed activation-list edits into canonical,
// deterministically ordered lists and renders them back to manifest text.
// Comments bound to an entry travel with it through sorting and
// deduplication.
package rewrite

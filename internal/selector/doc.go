// Package selector decides whether a tagged test unit belongs to a run.
//
// A selection combines an include list, an exclude list and an optional
// boolean expression written in Go build-constraint syntax, for example
// "large && !flaky || medium". Tags are matched as build-constraint
// identifiers, so every valid tag can appear in an expression.
package selector

// Package filter turns user filter selections into a core.FilterSpec.
//
// Selections carries one optional field per filter; a nil field adds no
// predicate. Raw form values that use display sentinels ("All", a zero
// follower count, the slider's maximum year) are translated by
// Vocabulary.Selections before they reach the Builder, so the Builder never
// sees a sentinel.
//
// When no predicate is produced, Build returns a nil spec, which every index
// backend reads as "no filtering".
package filter

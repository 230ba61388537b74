// Package textparse is the shared extraction toolkit: pure functions that
// parse one static document snapshot (or a fragment of one) into candidate
// entities. Nothing here touches the live automation surface.
//
// Platform markup is non-uniform, so extraction is modeled as a chain of
// independent, individually-failable matchers over generic containers —
// label→value maps and row-cell lists — rather than a rigid schema. Every
// matcher returns an optional result; callers decide what a miss means.
package textparse

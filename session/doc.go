// Package session implements the multi-tier persistence chain for session
// state: a model, a versioned bundle codec, pluggable tier backends, and the
// ordered Store that loads from the fastest valid tier and heals the tiers
// above it.
//
// # Design
//
// Every tier implements [Backend]: a single-bundle get/set/delete surface.
// [Store] iterates backends in priority order on load, adopting the first
// complete, unexpired bundle. A bundle adopted from a lower tier is
// immediately re-persisted to the primary tier. Saves and clears fan out to
// all tiers, each behind its own failure boundary; one broken tier never
// aborts the others.
//
// # What this package must NOT do
//
//   - Import sessionkit or any sibling package.
//   - Treat an empty chain result as an error: no session found is a normal
//     outcome.
//   - Require cross-tier agreement. Tiers are independent fallbacks; a crash
//     between two tier writes is acceptable by design of the load order.
package session

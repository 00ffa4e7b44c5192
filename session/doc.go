// Package session stores per-provider conversation history keyed by an opaque
// session identifier. Each provider owns exactly one Store; histories are
// created lazily on first access, cleared (emptied, not removed) on demand and
// live for the lifetime of the process.
//
// The Store hands out defensive copies so callers can never mutate internal
// state, and completed turns are appended atomically under the store lock so
// concurrent requests for the same session cannot lose each other's updates.
package session

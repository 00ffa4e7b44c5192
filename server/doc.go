// Package server exposes the playground over HTTP. The API mirrors one
// provider-agnostic surface: generate and stream endpoints that run the full
// reply/action cycle, plus model, action, history and settings lookups.
//
// Evaluation endpoints live under /api/evaluation: run a question set across
// selected models, persist the outcome, list past runs and export CSV.
//
// Conversations are keyed by a session_id cookie minted on first contact.
// The stream endpoint speaks server-sent events: the session id first, then
// the raw reply fragments, then one "[Action Result]" event per successful
// action the reply requested.
package server

// Package provider defines the contract shared by all generative-text
// backends and the supporting pieces (cost accounting, model catalogs,
// per-session history) the concrete adapters build on.
//
// Concrete backends live in the subpackages openai, anthropic, grok and
// ollama. All of them embed Base, which carries the session history store,
// the action registry used to build the capability system prompt, and the
// one-time initialization guard.
package provider

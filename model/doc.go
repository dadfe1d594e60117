// Package model defines the provider-agnostic abstractions and concrete
// helpers for translating between a generic chat-generation request and a
// vendor chat-completion API.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//     (nil callback selects the non-streaming path)
//   - Normalize tool / function call representation (ToolDefinition and the
//     core tool-request/response parts)
//   - Describe model capabilities statically (Info, Supports) so plugins can
//     gate feature negotiation per model
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package and register themselves in a Registry so callers remain decoupled
// from vendor SDKs.
package model

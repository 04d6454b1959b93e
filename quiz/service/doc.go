// Package service exposes the quiz engine as a single operation surface
// shared by every transport (REST, WebSocket wiring, MCP tools, CLI).
//
// The QuizService interface wraps the session controller, the question
// repository, the settings store, and the channel transcript into
// caller-facing operations whose results carry ready-to-display messages.
// Sentinel errors from the lower layers pass through unchanged so transports
// can map them to status codes.
package service

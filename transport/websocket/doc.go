// Package websocket provides the live feed transport for quiz channels.
//
// The websocket package implements:
//   - Real-time fan-out of quiz messages per channel key
//   - Channel-aware WebSocket connections
//   - Connection lifecycle management with ping/pong keepalive
//   - A presenter decorator that mirrors every posted or edited quiz message
//     to the channel's watchers
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by dedicated
// goroutines that manage reading, writing, and cleanup.
//
// Message Protocol:
//
// Events are JSON-encoded:
//
//	{"channel_key": "room-1", "event": "message_posted", "message": {...}}
//
// Watchers are read-only; incoming frames are discarded and only keep the
// connection alive.
//
// Channel Integration:
//
// Clients specify the channel to watch via query parameter (?channel=room-1)
// when establishing the connection. Events are broadcast only to clients
// watching the same channel.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//
//	channel := websocket.NewPresenter(presenter.NewMemory(), hub)
//	// hand channel to the session controller
//
// Concurrency:
//
// The hub and client handlers are designed for concurrent operation.
// Multiple clients can connect, disconnect, and receive events
// simultaneously without blocking each other.
package websocket

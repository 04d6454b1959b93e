// Package api provides the HTTP REST surface over the quiz service.
//
// The api package implements:
//   - RESTful endpoints for per-channel quiz control
//   - Question set listing and reloading
//   - Global settings management
//   - Channel transcript retrieval
//   - WebSocket upgrade handling for the live feed
//
// Endpoints:
//
// Question Sets:
//   - GET  /api/quizzes - List available question sets
//   - POST /api/quizzes/reload - Rescan the quiz directory
//
// Settings:
//   - GET /api/settings - Current global settings
//   - PUT /api/settings - Partial settings update
//
// Sessions:
//   - GET /api/sessions - Snapshot of every tracked session
//
// Channel Operations:
//   - POST /api/channels/{key}/start - Start a quiz ({"quiz": "name"})
//   - POST /api/channels/{key}/stop - Stop the channel's quiz
//   - POST /api/channels/{key}/pause - Pause the countdown
//   - POST /api/channels/{key}/resume - Resume the countdown
//   - GET  /api/channels/{key}/status - Progress, timer, recent errors
//   - GET  /api/channels/{key}/messages - Channel transcript
//
// Live Feed:
//   - GET /ws?channel={key} - WebSocket feed of posted and edited messages
//
// Error Handling:
//
// Errors are returned as JSON with a status code derived from the domain
// error: 409 for an already-running channel, 404 for unknown channels or
// quizzes, 400 for invalid settings or empty selections:
//
//	{
//	  "error": "quiz already running in channel: room-1"
//	}
package api

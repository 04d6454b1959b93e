// Package mcp provides the Model Context Protocol surface for QuizWire.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for quiz operations
//   - A thin proxy over the REST API
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - list_quizzes: List the available question sets
//   - start_quiz: Start a quiz in a channel
//   - stop_quiz: Stop the channel's quiz
//   - pause_quiz: Pause the current countdown
//   - resume_quiz: Resume a paused countdown
//   - quiz_status: Progress, timer state, and recent errors
//   - channel_messages: Read the channel transcript
//   - list_sessions: List sessions across all channels
//   - get_settings: Get the global quiz settings
//   - set_settings: Adjust the global quiz settings
//
// Proxy Design:
//
// The client holds no quiz state. Every tool call is translated into an
// HTTP request against the REST API, so MCP and REST callers always see
// the same sessions, settings, and transcripts.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

// Package handler implements the HTTP API of the schematic server.
//
// # Handlers
//
// SceneHandler exposes the live scene: the current frame, reloads and
// viewing context switches, pan/zoom input, connection edits and drags,
// node moves and deletions, and snapshot import/export.
//
// Middleware provides panic recovery, CORS and request logging with
// Prometheus request metrics.
//
// # API Design
//
// Handlers follow REST conventions:
// - GET for retrieval
// - POST for creation and commands
// - PUT for updates
// - DELETE for removal
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 201,
// 202, 204). Error responses return JSON with {error, details} structure.
//
// # Server-Sent Events
//
// Render frames and service events are streamed from /events by the hub
// package; this package only routes to it.
package handler

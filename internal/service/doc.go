// Package service implements the host side of the schematic engine.
//
// This package coordinates between the HTTP handlers, the repository and the
// live scene, implementing validation, persistence and event publishing.
//
// # Services
//
// SceneService owns one scene.Manager. It loads the stored schematic into the
// scene for the current viewing context, persists edits (connections, node
// moves and deletions) before applying them to the scene, and imports and
// exports snapshot documents.
//
// CatalogResolver and SnapshotResolver answer the scene's variant and socket
// metadata lookups from the repository or from an in-memory catalog.
//
// # Event System
//
// The service publishes events via EventBus after every successful change.
// cmd/server forwards them to connected clients over Server-Sent Events.
package service

// Package domain defines the core types for the schematic diagram engine.
//
// This package holds the abstract schematic a scene is built from, along with
// the identities and descriptors the scene engine uses to address it.
//
// # Schematic
//
// Schematic is an ordered set of NodeRecord and ConnectionRecord values as
// supplied by the host application. Node records carry one PositionRecord per
// viewing context they appear in.
//
// ViewingContext selects which position of a node is active: a schematic
// kind plus an optional deployment node. A node without a position for the
// current context is simply not part of that view.
//
// # Identities
//
// SocketIdentity addresses a socket within a live scene as "nodeID.socketID".
// ConnectionIdentity is derived from an ordered pair of socket identities and
// is what uniqueness of connections is checked against.
//
// # Variants
//
// VariantDescriptor describes what a node looks like and which sockets it
// offers. SocketMetadata carries the provider information used to color
// connections. Catalog is an in-memory set of variants for offline use.
//
// # Design Principles
//
// - Plain value types, no rendering or storage dependencies
// - Deterministic identities so the same schematic always builds the same scene
package domain

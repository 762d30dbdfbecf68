// Package repository defines the data access interface for schematics.
//
// The store holds two things: the variant catalog that tells the scene how
// to draw each kind of node, and the stored schematic (nodes, their
// per-context positions and connections) that scenes are loaded from.
//
// # SQLite Implementation
//
// The sqlite subpackage implements Repository on modernc.org/sqlite with WAL
// mode. It handles:
//
// - Variants and their sockets, kept in declaration order
// - Nodes with one position row per viewing context
// - Connections keyed by their derived identity
// - Transactional imports that replace the stored schematic
//
// Node and connection order is preserved through an ordinal column, since
// scenes materialize records in sequence.
//
// # Testing
//
// The sqlite repository is tested against in-memory databases.
package repository

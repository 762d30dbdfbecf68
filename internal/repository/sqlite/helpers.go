package sqlite

import (
	"database/sql"

	"schematic/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToFloat returns 0 for NULL
func nullToFloat(nf sql.NullFloat64) float64 {
	if nf.Valid {
		return nf.Float64
	}
	return 0
}

// floatToNull stores zero as NULL so "unset" survives a round trip
func floatToNull(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a column to one of the scanned tables:
// 1. Add the field to the row struct (below)
// 2. APPEND it to scanArgs() and to the matching columns constant
// 3. Map it in toDomain()
// 4. Add a migration in sqlite.go migrate() using addColumnIfNotExists()
//
// CRITICAL: column order must match between the columns constant and
// scanArgs().

// ============================================================================
// Variant Row Scanner
// ============================================================================

const variantColumns = `id, name, color, width, height`

type variantRow struct {
	id     string
	name   string
	color  sql.NullString
	width  sql.NullFloat64
	height sql.NullFloat64
}

func (r *variantRow) scanArgs() []interface{} {
	return []interface{}{&r.id, &r.name, &r.color, &r.width, &r.height}
}

func (r *variantRow) toDomain() *domain.VariantDescriptor {
	return &domain.VariantDescriptor{
		ID:      r.id,
		Name:    r.name,
		Color:   nullToString(r.color),
		Width:   nullToFloat(r.width),
		Height:  nullToFloat(r.height),
		Sockets: make([]domain.SocketDescriptor, 0),
	}
}

// ============================================================================
// Socket Row Scanner
// ============================================================================

const socketColumns = `variant_id, socket_id, name, kind, arity, provider, color, offset_x, offset_y`

type socketRow struct {
	variantID string
	socketID  string
	name      sql.NullString
	kind      string
	arity     sql.NullString
	provider  sql.NullString
	color     sql.NullString
	offsetX   float64
	offsetY   float64
}

func (r *socketRow) scanArgs() []interface{} {
	return []interface{}{
		&r.variantID, &r.socketID, &r.name, &r.kind, &r.arity,
		&r.provider, &r.color, &r.offsetX, &r.offsetY,
	}
}

func (r *socketRow) toDomain() domain.SocketDescriptor {
	return domain.SocketDescriptor{
		ID:       r.socketID,
		Name:     nullToString(r.name),
		Kind:     domain.SocketKind(r.kind),
		Arity:    domain.SocketArity(nullToString(r.arity)),
		Provider: nullToString(r.provider),
		Color:    nullToString(r.color),
		OffsetX:  r.offsetX,
		OffsetY:  r.offsetY,
	}
}

// ============================================================================
// Position Row Scanner
// ============================================================================

const positionColumns = `node_id, schematic_kind, deployment_node_id, x, y, width, height`

type positionRow struct {
	nodeID       string
	kind         string
	deploymentID string
	x, y         float64
	width        sql.NullFloat64
	height       sql.NullFloat64
}

func (r *positionRow) scanArgs() []interface{} {
	return []interface{}{&r.nodeID, &r.kind, &r.deploymentID, &r.x, &r.y, &r.width, &r.height}
}

func (r *positionRow) toDomain() domain.PositionRecord {
	return domain.PositionRecord{
		SchematicKind:    domain.SchematicKind(r.kind),
		DeploymentNodeID: r.deploymentID,
		X:                r.x,
		Y:                r.y,
		Width:            nullToFloat(r.width),
		Height:           nullToFloat(r.height),
	}
}

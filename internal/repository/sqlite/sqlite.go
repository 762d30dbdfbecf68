package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schematic/internal/domain"
	"schematic/internal/geometry"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite repository. ":memory:" opens a private in-memory
// database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database otherwise
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS variants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT,
		width REAL,
		height REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS variant_sockets (
		variant_id TEXT NOT NULL,
		socket_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		name TEXT,
		kind TEXT NOT NULL,
		arity TEXT,
		provider TEXT,
		color TEXT,
		offset_x REAL NOT NULL DEFAULT 0,
		offset_y REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (variant_id, socket_id),
		FOREIGN KEY (variant_id) REFERENCES variants(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		variant_id TEXT NOT NULL,
		label TEXT,
		ordinal INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS node_positions (
		node_id TEXT NOT NULL,
		schematic_kind TEXT NOT NULL,
		deployment_node_id TEXT NOT NULL DEFAULT '',
		ordinal INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		width REAL,
		height REAL,
		PRIMARY KEY (node_id, schematic_kind, deployment_node_id),
		FOREIGN KEY (node_id) REFERENCES nodes(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS connections (
		id TEXT PRIMARY KEY,
		source_node TEXT NOT NULL,
		source_socket TEXT NOT NULL,
		dest_node TEXT NOT NULL,
		dest_socket TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_variant ON nodes(variant_id);
	CREATE INDEX IF NOT EXISTS idx_connections_source ON connections(source_node);
	CREATE INDEX IF NOT EXISTS idx_connections_dest ON connections(dest_node);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	// Columns added after the first schema
	return r.addColumnIfNotExists("nodes", "label", "TEXT")
}

// addColumnIfNotExists adds a column to an existing table
func (r *Repository) addColumnIfNotExists(table, column, definition string) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

// ============================================================================
// Catalog
// ============================================================================

// GetVariant retrieves a variant and its sockets
func (r *Repository) GetVariant(ctx context.Context, id string) (*domain.VariantDescriptor, error) {
	var row variantRow
	err := r.db.QueryRowContext(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE id = ?`, id,
	).Scan(row.scanArgs()...)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query variant: %w", err)
	}

	v := row.toDomain()
	sockets, err := r.socketsFor(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	v.Sockets = sockets
	return v, nil
}

func (r *Repository) socketsFor(ctx context.Context, q querier, variantID string) ([]domain.SocketDescriptor, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+socketColumns+` FROM variant_sockets WHERE variant_id = ? ORDER BY ordinal`, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sockets: %w", err)
	}
	defer rows.Close()

	sockets := make([]domain.SocketDescriptor, 0)
	for rows.Next() {
		var row socketRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan socket: %w", err)
		}
		sockets = append(sockets, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sockets: %w", err)
	}
	return sockets, nil
}

// ListVariants returns every variant ordered by ID
func (r *Repository) ListVariants(ctx context.Context) ([]*domain.VariantDescriptor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+variantColumns+` FROM variants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []*domain.VariantDescriptor
	byID := make(map[string]*domain.VariantDescriptor)
	for rows.Next() {
		var row variantRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		v := row.toDomain()
		variants = append(variants, v)
		byID[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}
	rows.Close()

	socketRows, err := r.db.QueryContext(ctx,
		`SELECT `+socketColumns+` FROM variant_sockets ORDER BY variant_id, ordinal`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sockets: %w", err)
	}
	defer socketRows.Close()

	for socketRows.Next() {
		var row socketRow
		if err := socketRows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan socket: %w", err)
		}
		if v := byID[row.variantID]; v != nil {
			v.Sockets = append(v.Sockets, row.toDomain())
		}
	}
	if err := socketRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sockets: %w", err)
	}
	return variants, nil
}

// UpsertVariant inserts or replaces a variant and its sockets
func (r *Repository) UpsertVariant(ctx context.Context, v *domain.VariantDescriptor) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("invalid variant: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertVariant(ctx, tx, v); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func upsertVariant(ctx context.Context, q querier, v *domain.VariantDescriptor) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO variants (id, name, color, width, height, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			width = excluded.width,
			height = excluded.height,
			updated_at = CURRENT_TIMESTAMP
	`, v.ID, v.Name, stringToNull(v.Color), floatToNull(v.Width), floatToNull(v.Height))
	if err != nil {
		return fmt.Errorf("failed to upsert variant %s: %w", v.ID, err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM variant_sockets WHERE variant_id = ?`, v.ID); err != nil {
		return fmt.Errorf("failed to clear sockets of %s: %w", v.ID, err)
	}
	for i, s := range v.Sockets {
		_, err := q.ExecContext(ctx, `
			INSERT INTO variant_sockets (variant_id, socket_id, ordinal, name, kind, arity, provider, color, offset_x, offset_y)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, v.ID, s.ID, i, stringToNull(s.Name), string(s.Kind), stringToNull(string(s.Arity)),
			stringToNull(s.Provider), stringToNull(s.Color), s.OffsetX, s.OffsetY)
		if err != nil {
			return fmt.Errorf("failed to insert socket %s.%s: %w", v.ID, s.ID, err)
		}
	}
	return nil
}

// DeleteVariant removes a variant and its sockets. Nodes using it are kept
// and fail to resolve on the next load.
func (r *Repository) DeleteVariant(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM variants WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}
	return nil
}

// GetSocketMetadata resolves the provider of a socket through its node's
// variant
func (r *Repository) GetSocketMetadata(ctx context.Context, id domain.SocketIdentity) (*domain.SocketMetadata, error) {
	var provider, color sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT s.provider, s.color
		FROM nodes n
		JOIN variant_sockets s ON s.variant_id = n.variant_id
		WHERE n.id = ? AND s.socket_id = ?
	`, id.NodeID(), id.SocketID()).Scan(&provider, &color)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query socket %s: %w", id, err)
	}
	return &domain.SocketMetadata{
		Provider:      nullToString(provider),
		ProviderColor: nullToString(color),
	}, nil
}

// ImportCatalog upserts every variant of the catalog in one transaction
func (r *Repository) ImportCatalog(ctx context.Context, catalog *domain.Catalog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, v := range catalog.Variants {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid variant: %w", err)
		}
		if err := upsertVariant(ctx, tx, v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ============================================================================
// Schematic
// ============================================================================

// GetSchematic loads the stored schematic in insertion order
func (r *Repository) GetSchematic(ctx context.Context) (*domain.Schematic, error) {
	s := domain.NewSchematic()

	rows, err := r.db.QueryContext(ctx, `SELECT id, variant_id, label FROM nodes ORDER BY ordinal`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var (
			id, variantID string
			label         sql.NullString
		)
		if err := rows.Scan(&id, &variantID, &label); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		node := domain.NewNodeRecord(id, variantID)
		node.Label = nullToString(label)
		index[id] = len(s.Nodes)
		s.AddNode(*node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	rows.Close()

	posRows, err := r.db.QueryContext(ctx,
		`SELECT `+positionColumns+` FROM node_positions ORDER BY node_id, ordinal`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer posRows.Close()

	for posRows.Next() {
		var row positionRow
		if err := posRows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if i, ok := index[row.nodeID]; ok {
			s.Nodes[i].Positions = append(s.Nodes[i].Positions, row.toDomain())
		}
	}
	if err := posRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	posRows.Close()

	connRows, err := r.db.QueryContext(ctx, `
		SELECT source_node, source_socket, dest_node, dest_socket
		FROM connections ORDER BY ordinal
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer connRows.Close()

	for connRows.Next() {
		var srcNode, srcSocket, dstNode, dstSocket string
		if err := connRows.Scan(&srcNode, &srcSocket, &dstNode, &dstSocket); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		s.AddConnection(*domain.NewConnectionRecord(srcNode, srcSocket, dstNode, dstSocket))
	}
	if err := connRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return s, nil
}

// GetNode retrieves a single node with its positions
func (r *Repository) GetNode(ctx context.Context, id string) (*domain.NodeRecord, error) {
	var (
		variantID string
		label     sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT variant_id, label FROM nodes WHERE id = ?`, id,
	).Scan(&variantID, &label)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query node: %w", err)
	}

	node := domain.NewNodeRecord(id, variantID)
	node.Label = nullToString(label)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+positionColumns+` FROM node_positions WHERE node_id = ? ORDER BY ordinal`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row positionRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		node.Positions = append(node.Positions, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return node, nil
}

// UpsertNode inserts or updates a node and replaces its positions. New
// nodes are appended after every existing node.
func (r *Repository) UpsertNode(ctx context.Context, node *domain.NodeRecord) error {
	if err := node.Validate(); err != nil {
		return fmt.Errorf("invalid node: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertNode(ctx, tx, node, -1); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// upsertNode writes a node at ordinal, or at the end when ordinal is negative
func upsertNode(ctx context.Context, q querier, node *domain.NodeRecord, ordinal int) error {
	if node.ID == "" {
		return fmt.Errorf("node ID is required")
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO nodes (id, variant_id, label, ordinal, updated_at)
		VALUES (?, ?, ?, CASE WHEN ? >= 0 THEN ? ELSE (SELECT COALESCE(MAX(ordinal), -1) + 1 FROM nodes) END, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			variant_id = excluded.variant_id,
			label = excluded.label,
			updated_at = CURRENT_TIMESTAMP
	`, node.ID, node.SchemaVariantID, stringToNull(node.Label), ordinal, ordinal)
	if err != nil {
		return fmt.Errorf("failed to upsert node %s: %w", node.ID, err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM node_positions WHERE node_id = ?`, node.ID); err != nil {
		return fmt.Errorf("failed to clear positions of %s: %w", node.ID, err)
	}
	for i, p := range node.Positions {
		_, err := q.ExecContext(ctx, `
			INSERT INTO node_positions (node_id, schematic_kind, deployment_node_id, ordinal, x, y, width, height)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(node_id, schematic_kind, deployment_node_id) DO UPDATE SET
				x = excluded.x,
				y = excluded.y,
				width = excluded.width,
				height = excluded.height
		`, node.ID, string(p.SchematicKind), p.DeploymentNodeID, i, p.X, p.Y,
			floatToNull(p.Width), floatToNull(p.Height))
		if err != nil {
			return fmt.Errorf("failed to insert position of %s: %w", node.ID, err)
		}
	}
	return nil
}

// DeleteNode removes a node, its positions and every connection touching it
func (r *Repository) DeleteNode(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Positions go by CASCADE; connections have no foreign key so that
	// dangling records can be stored
	if _, err := tx.ExecContext(ctx, `DELETE FROM connections WHERE source_node = ? OR dest_node = ?`, id, id); err != nil {
		return fmt.Errorf("failed to delete connections of %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpsertConnection stores a connection under its derived identity
func (r *Repository) UpsertConnection(ctx context.Context, conn *domain.ConnectionRecord) error {
	return upsertConnection(ctx, r.db, conn, -1)
}

func upsertConnection(ctx context.Context, q querier, conn *domain.ConnectionRecord, ordinal int) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO connections (id, source_node, source_socket, dest_node, dest_socket, ordinal)
		VALUES (?, ?, ?, ?, ?, CASE WHEN ? >= 0 THEN ? ELSE (SELECT COALESCE(MAX(ordinal), -1) + 1 FROM connections) END)
		ON CONFLICT(id) DO NOTHING
	`, string(conn.Identity()), conn.Source.NodeID, conn.Source.SocketID,
		conn.Destination.NodeID, conn.Destination.SocketID, ordinal, ordinal)
	if err != nil {
		return fmt.Errorf("failed to upsert connection: %w", err)
	}
	return nil
}

// DeleteConnection removes a connection
func (r *Repository) DeleteConnection(ctx context.Context, id domain.ConnectionIdentity) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM connections WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

// SavePositions updates node positions within one viewing context. Unknown
// node IDs are ignored.
func (r *Repository) SavePositions(ctx context.Context, vc domain.ViewingContext, positions map[string]geometry.Point) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO node_positions (node_id, schematic_kind, deployment_node_id, ordinal, x, y)
		SELECT ?, ?, ?, (SELECT COALESCE(MAX(ordinal), -1) + 1 FROM node_positions WHERE node_id = ?), ?, ?
		WHERE EXISTS (SELECT 1 FROM nodes WHERE id = ?)
		ON CONFLICT(node_id, schematic_kind, deployment_node_id) DO UPDATE SET
			x = excluded.x,
			y = excluded.y
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for id, p := range positions {
		if _, err := stmt.ExecContext(ctx, id, string(vc.Kind), vc.DeploymentNodeID, id, p.X, p.Y, id); err != nil {
			return fmt.Errorf("failed to update position for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ImportSchematic replaces the stored schematic with s in one transaction
func (r *Repository) ImportSchematic(ctx context.Context, s *domain.Schematic) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid schematic: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM connections`); err != nil {
		return fmt.Errorf("failed to clear connections: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
		return fmt.Errorf("failed to clear nodes: %w", err)
	}

	for i := range s.Nodes {
		if err := upsertNode(ctx, tx, &s.Nodes[i], i); err != nil {
			return err
		}
	}
	for i := range s.Connections {
		if err := upsertConnection(ctx, tx, &s.Connections[i], i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Package pgx implements the graph store on PostgreSQL. Nodes and edges
// live in two tables keyed by their graph identities; upserts make
// re-imports idempotent.
package pgx

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/twingraph/pkg/logger"
	"github.com/OFFIS-RIT/twingraph/pkg/store"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
	Ping(ctx context.Context) error
}

// GraphDBStorage implements store.GraphStore on PostgreSQL.
type GraphDBStorage struct {
	conn pgxIConn
}

// NewGraphDBStorage connects a new storage instance using the provided
// configuration. Credentials from the config override those embedded in
// the URI.
func NewGraphDBStorage(ctx context.Context, cfg store.Config) (*GraphDBStorage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("invalid graph store URI: %w", err)
	}
	if cfg.User != "" {
		poolCfg.ConnConfig.User = cfg.User
	}
	if cfg.Password != "" {
		poolCfg.ConnConfig.Password = cfg.Password
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to graph store: %w", err)
	}

	return &GraphDBStorage{conn: pool}, nil
}

// NewGraphDBStorageWithConnection creates a storage instance on an existing
// connection, typically for sharing a pool across components.
func NewGraphDBStorageWithConnection(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}

// Ping reports whether the store answers.
func (s *GraphDBStorage) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// MigrateSchema applies the embedded schema migrations. Running it against
// an up-to-date store is a no-op.
func MigrateSchema(cfg store.Config) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URI)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate graph schema: %w", err)
	}

	logger.Info("[Store] Graph schema up to date")
	return nil
}

// Index statements are applied separately from migrations so callers can
// re-ensure them at any time.
var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS graph_nodes_labels_idx ON graph_nodes USING GIN (labels)`,
	`CREATE INDEX IF NOT EXISTS graph_nodes_quality_idx ON graph_nodes ((properties->>'qualityLevel'))`,
	`CREATE INDEX IF NOT EXISTS graph_edges_rel_type_idx ON graph_edges (rel_type)`,
	`CREATE INDEX IF NOT EXISTS graph_edges_to_idx ON graph_edges (to_id)`,
}

// EnsureIndexes idempotently creates the supporting indexes on node labels
// and edge lookups. The node id index is the table's primary key.
func (s *GraphDBStorage) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range indexStatements {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure index: %w", err)
		}
	}
	logger.Debug("[Store] Indexes ensured", "count", len(indexStatements))
	return nil
}

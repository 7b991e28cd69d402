// Package pgx implements the analytics query layer on the PostgreSQL
// graph tables.
package pgx

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/twingraph/pkg/query"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgxv5.TxOptions) (pgxv5.Tx, error)
}

// AnalyticsDBClient implements query.AnalyticsClient on PostgreSQL.
type AnalyticsDBClient struct {
	conn pgxIConn
}

// NewAnalyticsDBClient creates a client on an existing connection or pool.
func NewAnalyticsDBClient(conn pgxIConn) *AnalyticsDBClient {
	return &AnalyticsDBClient{conn: conn}
}

const qualityDistributionSQL = `
SELECT COALESCE(properties->>'qualityLevel', 'UNKNOWN') AS level, COUNT(*) AS count
FROM graph_nodes
GROUP BY level
ORDER BY count DESC, level`

func (c *AnalyticsDBClient) QualityDistribution(ctx context.Context) ([]query.QualityBucket, error) {
	rows, err := c.conn.Query(ctx, qualityDistributionSQL)
	if err != nil {
		return nil, &query.ExecutionError{Query: qualityDistributionSQL, Err: err}
	}
	defer rows.Close()

	var buckets []query.QualityBucket
	for rows.Next() {
		var b query.QualityBucket
		if err := rows.Scan(&b.Level, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan quality bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

const complianceSummarySQL = `
SELECT
    COUNT(*) AS total,
    COUNT(*) FILTER (WHERE COALESCE(properties->>'identity', '') <> '') AS with_identity,
    COUNT(*) FILTER (WHERE COALESCE(properties->>'description', '') <> '') AS with_description,
    COUNT(*) FILTER (WHERE properties->>'qualityLevel' = 'HIGH') AS high_quality
FROM graph_nodes`

func (c *AnalyticsDBClient) ComplianceSummary(ctx context.Context) (*query.ComplianceSummary, error) {
	var s query.ComplianceSummary
	err := c.conn.QueryRow(ctx, complianceSummarySQL).Scan(
		&s.TotalEntities,
		&s.WithIdentity,
		&s.WithDescription,
		&s.HighQuality,
	)
	if err != nil {
		return nil, &query.ExecutionError{Query: complianceSummarySQL, Err: err}
	}
	s.CompliancePct = compliancePct(s.TotalEntities, s.HighQuality)
	return &s, nil
}

const typeDistributionSQL = `
SELECT label, COUNT(*) AS count
FROM graph_nodes, unnest(labels) AS label
GROUP BY label
ORDER BY count DESC, label`

func (c *AnalyticsDBClient) TypeDistribution(ctx context.Context) ([]query.LabelCount, error) {
	rows, err := c.conn.Query(ctx, typeDistributionSQL)
	if err != nil {
		return nil, &query.ExecutionError{Query: typeDistributionSQL, Err: err}
	}
	defer rows.Close()

	var counts []query.LabelCount
	for rows.Next() {
		var lc query.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts = append(counts, lc)
	}
	return counts, rows.Err()
}

// relatedSQL walks the edge table in both directions up to the hop bound.
// Each node keeps its shortest distance; the start node itself is excluded.
const relatedSQL = `
WITH RECURSIVE walk (id, distance) AS (
    SELECT $1::text, 0
    UNION ALL
    SELECT CASE WHEN e.from_id = w.id THEN e.to_id ELSE e.from_id END, w.distance + 1
    FROM walk w
    JOIN graph_edges e ON e.from_id = w.id OR e.to_id = w.id
    WHERE w.distance < $2
)
SELECT n.id, n.labels, COALESCE(n.properties->>'shortName', '') AS short_name, MIN(w.distance)::int AS distance
FROM walk w
JOIN graph_nodes n ON n.id = w.id
WHERE w.id <> $1
GROUP BY n.id, n.labels, short_name
ORDER BY distance, n.id`

func (c *AnalyticsDBClient) Related(ctx context.Context, nodeID string, maxHops int) ([]query.RelatedEntity, error) {
	if maxHops < 1 {
		maxHops = 1
	}

	rows, err := c.conn.Query(ctx, relatedSQL, nodeID, maxHops)
	if err != nil {
		return nil, &query.ExecutionError{Query: relatedSQL, Err: err}
	}
	defer rows.Close()

	var related []query.RelatedEntity
	for rows.Next() {
		var r query.RelatedEntity
		if err := rows.Scan(&r.ID, &r.Labels, &r.ShortName, &r.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan related entity: %w", err)
		}
		related = append(related, r)
	}
	return related, rows.Err()
}

const searchSQL = `
SELECT id, labels,
       COALESCE(properties->>'shortName', '') AS short_name,
       COALESCE(properties->>'description', '') AS description
FROM graph_nodes
WHERE properties->>'shortName' ILIKE '%' || $1 || '%'
   OR properties->>'description' ILIKE '%' || $1 || '%'
   OR id ILIKE '%' || $1 || '%'
ORDER BY id
LIMIT $2`

func (c *AnalyticsDBClient) Search(ctx context.Context, term string, limit int) ([]query.SearchHit, error) {
	if limit < 1 {
		limit = 25
	}

	rows, err := c.conn.Query(ctx, searchSQL, term, limit)
	if err != nil {
		return nil, &query.ExecutionError{Query: searchSQL, Err: err}
	}
	defer rows.Close()

	var hits []query.SearchHit
	for rows.Next() {
		var h query.SearchHit
		if err := rows.Scan(&h.ID, &h.Labels, &h.ShortName, &h.Description); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Execute runs an ad-hoc query inside a read-only transaction so callers
// cannot mutate the graph through this surface.
func (c *AnalyticsDBClient) Execute(ctx context.Context, queryText string, args ...any) ([]map[string]any, error) {
	tx, err := c.conn.BeginTx(ctx, pgxv5.TxOptions{AccessMode: pgxv5.ReadOnly})
	if err != nil {
		return nil, &query.ExecutionError{Query: queryText, Err: err}
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, queryText, args...)
	if err != nil {
		return nil, &query.ExecutionError{Query: queryText, Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var results []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, &query.ExecutionError{Query: queryText, Err: err}
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &query.ExecutionError{Query: queryText, Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &query.ExecutionError{Query: queryText, Err: err}
	}
	return results, nil
}

func compliancePct(total, high int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(high) / float64(total) * 100
}

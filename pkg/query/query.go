// Package query is the read-only analytics facade over the imported graph.
// It never mutates graph state; queries may observe a graph mid-import.
package query

import (
	"context"
	"fmt"
)

// ExecutionError reports a query the store rejected. The offending query
// text is attached for diagnostics.
type ExecutionError struct {
	Query string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v (query: %s)", e.Err, e.Query)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// QualityBucket is one row of the quality-level distribution.
type QualityBucket struct {
	Level string `json:"level"`
	Count int64  `json:"count"`
}

// LabelCount is one row of the entity-type distribution.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// ComplianceSummary reports how completely the imported entities carry the
// expected metadata fields.
type ComplianceSummary struct {
	TotalEntities   int64   `json:"totalEntities"`
	WithIdentity    int64   `json:"withIdentity"`
	WithDescription int64   `json:"withDescription"`
	HighQuality     int64   `json:"highQuality"`
	CompliancePct   float64 `json:"compliancePct"`
}

// RelatedEntity is one node reachable from a start node within a bounded
// number of hops.
type RelatedEntity struct {
	ID        string   `json:"id"`
	Labels    []string `json:"labels"`
	ShortName string   `json:"shortName"`
	Distance  int32    `json:"distance"`
}

// SearchHit is one free-text search match.
type SearchHit struct {
	ID          string   `json:"id"`
	Labels      []string `json:"labels"`
	ShortName   string   `json:"shortName"`
	Description string   `json:"description"`
}

// AnalyticsClient runs the fixed and templated read queries over the
// persisted graph.
type AnalyticsClient interface {
	QualityDistribution(ctx context.Context) ([]QualityBucket, error)
	ComplianceSummary(ctx context.Context) (*ComplianceSummary, error)
	TypeDistribution(ctx context.Context) ([]LabelCount, error)
	Related(ctx context.Context, nodeID string, maxHops int) ([]RelatedEntity, error)
	Search(ctx context.Context, term string, limit int) ([]SearchHit, error)
	// Execute runs one ad-hoc read query and returns generic rows.
	Execute(ctx context.Context, queryText string, args ...any) ([]map[string]any, error)
}

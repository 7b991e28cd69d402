// Package graph maps normalized extraction output onto a property-graph
// representation: labeled nodes, typed relationships and named import
// batches with stable identifiers suitable for idempotent bulk import.
package graph

// Relationship types form a closed set.
const (
	// RelHasSubmodel connects a shell or asset to a submodel it references.
	RelHasSubmodel = "HAS_SUBMODEL"
	// RelDescribes connects an embedded document to the entities extracted
	// from the same container.
	RelDescribes = "DESCRIBES"
)

// Node labels derived from element types, plus the document label.
const (
	LabelAsset    = "Asset"
	LabelSubmodel = "Submodel"
	LabelDocument = "Document"
)

// Quality levels derived from field completeness.
const (
	QualityHigh   = "HIGH"
	QualityMedium = "MEDIUM"
	QualityLow    = "LOW"
)

// Node is one graph node. ID is stable across repeated transformations of
// the same input and unique within one import batch.
type Node struct {
	ID         string         `json:"id" validate:"required"`
	Labels     []string       `json:"labels" validate:"required,min=1"`
	Properties map[string]any `json:"properties"`
}

// Edge is one typed, directed relationship between two nodes of the batch.
type Edge struct {
	From       string         `json:"from" validate:"required"`
	To         string         `json:"to" validate:"required"`
	Type       string         `json:"type" validate:"required"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Batch is a named collection of nodes and edges produced from one or more
// container extractions. Importing the same batch twice must not duplicate
// graph state.
type Batch struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

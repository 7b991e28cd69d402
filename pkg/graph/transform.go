package graph

import (
	"fmt"

	"github.com/OFFIS-RIT/twingraph/pkg/common"
	"github.com/OFFIS-RIT/twingraph/pkg/logger"
)

// BuildBatch transforms the entities and document references of one or more
// extraction results into an import batch. Node ids are the entity keys, so
// repeated runs over unchanged input produce identical batches.
//
// Containment edges are only created when both endpoints resolve to nodes of
// the current batch; dangling submodel references are dropped and returned
// as diagnostics, never as errors.
func BuildBatch(name string, results []*common.ExtractionResult) (*Batch, []common.Diagnostic) {
	batch := &Batch{
		Name:  name,
		Nodes: []Node{},
		Edges: []Edge{},
	}
	var diags []common.Diagnostic

	nodeIndex := make(map[string]int)
	addNode := func(n Node) {
		if idx, ok := nodeIndex[n.ID]; ok {
			batch.Nodes[idx] = mergeNode(batch.Nodes[idx], n)
			return
		}
		nodeIndex[n.ID] = len(batch.Nodes)
		batch.Nodes = append(batch.Nodes, n)
	}

	edgeSeen := make(map[string]struct{})
	addEdge := func(e Edge) {
		key := e.From + "\x00" + e.To + "\x00" + e.Type
		if _, ok := edgeSeen[key]; ok {
			return
		}
		edgeSeen[key] = struct{}{}
		batch.Edges = append(batch.Edges, e)
	}

	// Submodel identities double as node ids, so references resolve by
	// identity lookup.
	for _, result := range results {
		for _, entity := range result.Entities() {
			addNode(entityNode(entity))
		}
		for _, doc := range result.Documents {
			addNode(documentNode(doc))
		}
	}

	for _, result := range results {
		for _, entity := range result.Entities() {
			for _, ref := range entity.SubmodelRefs {
				if _, ok := nodeIndex[ref]; !ok {
					diags = append(diags, common.Diagnostic{
						Code:    common.DiagDanglingReference,
						Entry:   entity.SourceFile,
						Message: fmt.Sprintf("submodel reference %s from %s has no target in batch", ref, entity.Key),
					})
					continue
				}
				addEdge(Edge{
					From: entity.Key,
					To:   ref,
					Type: RelHasSubmodel,
					Properties: map[string]any{
						"source": entity.SourceFile,
					},
				})
			}
		}

		for _, doc := range result.Documents {
			docID := documentID(doc)
			for _, entity := range result.Entities() {
				if entity.Element == common.ElementSubmodel {
					continue
				}
				addEdge(Edge{
					From: docID,
					To:   entity.Key,
					Type: RelDescribes,
				})
			}
		}
	}

	logger.Debug(
		"[Graph] Batch built",
		"batch", name,
		"nodes", len(batch.Nodes),
		"edges", len(batch.Edges),
		"dangling_refs", len(diags),
	)

	return batch, diags
}

func entityNode(e common.Entity) Node {
	return Node{
		ID:     e.Key,
		Labels: []string{entityLabel(e.Element)},
		Properties: map[string]any{
			"identity":     e.Identity,
			"shortName":    e.ShortName,
			"description":  e.Description,
			"kind":         e.Kind,
			"element":      string(e.Element),
			"source":       e.SourceFile,
			"format":       string(e.OriginFormat),
			"qualityLevel": qualityLevel(e),
		},
	}
}

func documentID(d common.DocumentRef) string {
	return fmt.Sprintf("document:%s:%s", d.SourceFile, d.Filename)
}

func documentNode(d common.DocumentRef) Node {
	return Node{
		ID:     documentID(d),
		Labels: []string{LabelDocument},
		Properties: map[string]any{
			"filename":      d.Filename,
			"fileSizeBytes": d.SizeBytes,
			"type":          d.TypeTag,
			"source":        d.SourceFile,
		},
	}
}

func entityLabel(element common.ElementType) string {
	if element == common.ElementSubmodel {
		return LabelSubmodel
	}
	return LabelAsset
}

// qualityLevel grades field completeness: all four expected fields present
// is HIGH, at least two MEDIUM, anything less LOW.
func qualityLevel(e common.Entity) string {
	filled := 0
	for _, v := range []string{e.Identity, e.ShortName, e.Description, e.Kind} {
		if v != "" {
			filled++
		}
	}
	switch {
	case filled == 4:
		return QualityHigh
	case filled >= 2:
		return QualityMedium
	default:
		return QualityLow
	}
}

// mergeNode keeps the existing node and fills in non-empty properties from
// the duplicate, mirroring how repeated extractions of the same entity are
// reconciled inside one batch.
func mergeNode(existing, dup Node) Node {
	for k, v := range dup.Properties {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		existing.Properties[k] = v
	}
	return existing
}

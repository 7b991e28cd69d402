package graph

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadBatchFile(t *testing.T) {
	path := writeFile(t, "valid.graph.json", `{
		"name": "motors",
		"nodes": [{"id": "urn:ex:1", "labels": ["Asset"], "properties": {"shortName": "Motor1"}}],
		"edges": [{"from": "urn:ex:1", "to": "urn:ex:2", "type": "HAS_SUBMODEL"}]
	}`)

	batch, err := LoadBatchFile(path)
	if err != nil {
		t.Fatalf("LoadBatchFile() error = %v", err)
	}
	if batch.Name != "motors" {
		t.Errorf("Name = %q, want motors", batch.Name)
	}
	if len(batch.Nodes) != 1 || len(batch.Edges) != 1 {
		t.Errorf("got %d nodes / %d edges, want 1 / 1", len(batch.Nodes), len(batch.Edges))
	}
}

func TestLoadBatchFileEmptyCollectionsAreValid(t *testing.T) {
	path := writeFile(t, "empty.graph.json", `{"nodes": [], "edges": []}`)

	batch, err := LoadBatchFile(path)
	if err != nil {
		t.Fatalf("LoadBatchFile() error = %v", err)
	}
	if batch.Name != path {
		t.Errorf("unnamed batch should default to its path, got %q", batch.Name)
	}
}

func TestLoadBatchFileShapeViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: `nodes: []`},
		{name: "missing nodes", content: `{"edges": []}`},
		{name: "missing edges", content: `{"nodes": []}`},
		{name: "node without id", content: `{"nodes": [{"labels": ["Asset"]}], "edges": []}`},
		{name: "node without labels", content: `{"nodes": [{"id": "urn:ex:1"}], "edges": []}`},
		{name: "edge without type", content: `{"nodes": [], "edges": [{"from": "a", "to": "b"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.graph.json", tt.content)
			_, err := LoadBatchFile(path)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if verr.Path != path {
				t.Errorf("ValidationError.Path = %q, want %q", verr.Path, path)
			}
		})
	}
}

func TestWriteAndReloadBatchFile(t *testing.T) {
	batch := &Batch{
		Name:  "roundtrip",
		Nodes: []Node{{ID: "urn:ex:1", Labels: []string{LabelAsset}, Properties: map[string]any{"qualityLevel": QualityLow}}},
		Edges: []Edge{},
	}

	path := filepath.Join(t.TempDir(), "out.graph.json")
	if err := WriteBatchFile(batch, path); err != nil {
		t.Fatalf("WriteBatchFile() error = %v", err)
	}

	loaded, err := LoadBatchFile(path)
	if err != nil {
		t.Fatalf("LoadBatchFile() error = %v", err)
	}
	if loaded.Name != batch.Name || len(loaded.Nodes) != 1 {
		t.Errorf("reloaded batch differs: %+v", loaded)
	}
}

func TestBatchSchema(t *testing.T) {
	schema := BatchSchema()
	if schema == nil {
		t.Fatal("BatchSchema() returned nil")
	}
	if _, ok := schema.Properties.Get("nodes"); !ok {
		t.Error("schema is missing the nodes collection")
	}
	if _, ok := schema.Properties.Get("edges"); !ok {
		t.Error("schema is missing the edges collection")
	}
}

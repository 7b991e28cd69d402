package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OFFIS-RIT/twingraph/pkg/common"
	"github.com/OFFIS-RIT/twingraph/pkg/container"
)

const exampleJSON = `{
	"assetAdministrationShells": [
		{
			"id": "urn:ex:1",
			"idShort": "Motor1",
			"submodels": [{"keys": [{"type": "Submodel", "value": "urn:ex:2"}]}]
		}
	],
	"submodels": [
		{"id": "urn:ex:2", "idShort": "Specs"}
	]
}`

func writeContainer(t *testing.T, name string, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create container: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for entryName, content := range entries {
		ew, err := w.Create(entryName)
		if err != nil {
			t.Fatalf("failed to add entry: %v", err)
		}
		if _, err := ew.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finalize container: %v", err)
	}
	return path
}

func TestExtractContainerEndToEnd(t *testing.T) {
	path := writeContainer(t, "motor.aasx", map[string]string{
		"aasx/data.json":  exampleJSON,
		"docs/manual.pdf": "%PDF-1.4 content",
	})

	engine := NewEngine(NewEngineParams{})
	result, err := engine.ExtractContainer(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractContainer() error = %v", err)
	}

	if result.ProcessingMethod != MethodJSONV3 {
		t.Errorf("processingMethod = %q, want %q", result.ProcessingMethod, MethodJSONV3)
	}
	if result.SourceFile != path {
		t.Errorf("sourceFile = %q, want %q", result.SourceFile, path)
	}
	if result.ProcessingTimestamp.IsZero() || result.ProcessingTimestamp.Location() != time.UTC {
		t.Errorf("processingTimestamp not set in UTC: %v", result.ProcessingTimestamp)
	}

	if len(result.Assets) != 1 {
		t.Fatalf("assets = %d, want 1", len(result.Assets))
	}
	shell := result.Assets[0]
	if shell.Identity != "urn:ex:1" || shell.ShortName != "Motor1" || shell.OriginFormat != common.OriginJSONV3 {
		t.Errorf("unexpected shell entity: %+v", shell)
	}

	if len(result.Submodels) != 1 {
		t.Fatalf("submodels = %d, want 1", len(result.Submodels))
	}
	sm := result.Submodels[0]
	if sm.Identity != "urn:ex:2" || sm.ShortName != "Specs" || sm.OriginFormat != common.OriginJSONV3 {
		t.Errorf("unexpected submodel entity: %+v", sm)
	}

	if len(result.Documents) != 1 || result.Documents[0].TypeTag != "pdf" {
		t.Errorf("unexpected documents: %+v", result.Documents)
	}
	if len(result.RawData.JSONFiles) != 1 || result.RawData.JSONFiles[0] != "aasx/data.json" {
		t.Errorf("unexpected rawData.jsonFiles: %v", result.RawData.JSONFiles)
	}
}

// A mixed container with N valid JSON records and M valid XML records must
// yield exactly N+M entities, each carrying provenance.
func TestExtractContainerMixedFormats(t *testing.T) {
	path := writeContainer(t, "mixed.aasx", map[string]string{
		"aasx/data.json": exampleJSON,
		"aasx/legacy.aas.xml": `<aasenv xmlns="http://www.admin-shell.io/aas/1/0">
  <submodels>
    <submodel>
      <idShort>Identification</idShort>
      <identification>urn:xml:sm:9</identification>
    </submodel>
  </submodels>
</aasenv>`,
	})

	engine := NewEngine(NewEngineParams{})
	result, err := engine.ExtractContainer(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractContainer() error = %v", err)
	}

	if result.ProcessingMethod != MethodMixed {
		t.Errorf("processingMethod = %q, want %q", result.ProcessingMethod, MethodMixed)
	}

	entities := result.Entities()
	if len(entities) != 3 {
		t.Fatalf("extracted %d entities, want 3", len(entities))
	}
	for _, e := range entities {
		if e.SourceFile == "" {
			t.Errorf("entity %q has empty sourceFile", e.Key)
		}
		if e.OriginFormat == "" {
			t.Errorf("entity %q has empty originFormat", e.Key)
		}
	}
	if len(result.RawData.XMLFiles) != 1 {
		t.Errorf("rawData.xmlFiles = %v, want one entry", result.RawData.XMLFiles)
	}
}

// One malformed XML entry among valid entries yields results for the valid
// entries plus exactly one EntryParseFailure diagnostic.
func TestExtractContainerIsolatesCorruptEntry(t *testing.T) {
	path := writeContainer(t, "partial.aasx", map[string]string{
		"aasx/data.json":      exampleJSON,
		"aasx/broken.aas.xml": "<unclosed><element>",
	})

	engine := NewEngine(NewEngineParams{})
	result, err := engine.ExtractContainer(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractContainer() error = %v", err)
	}

	if got := len(result.Entities()); got != 2 {
		t.Errorf("extracted %d entities, want 2 from the valid entry", got)
	}

	failures := 0
	for _, d := range result.Diagnostics {
		if d.Code == common.DiagEntryParseFailure {
			failures++
			if d.Entry != "aasx/broken.aas.xml" {
				t.Errorf("diagnostic entry = %q, want aasx/broken.aas.xml", d.Entry)
			}
		}
	}
	if failures != 1 {
		t.Errorf("recorded %d EntryParseFailure diagnostics, want 1", failures)
	}
}

func TestExtractContainerNotFound(t *testing.T) {
	engine := NewEngine(NewEngineParams{})
	_, err := engine.ExtractContainer(context.Background(), filepath.Join(t.TempDir(), "missing.aasx"))
	if !errors.Is(err, container.ErrNotFound) {
		t.Fatalf("error = %v, want container.ErrNotFound", err)
	}
}

func TestExtractAll(t *testing.T) {
	paths := []string{
		writeContainer(t, "a.aasx", map[string]string{"aasx/data.json": exampleJSON}),
		writeContainer(t, "b.aasx", map[string]string{"aasx/data.json": exampleJSON}),
	}

	engine := NewEngine(NewEngineParams{ParallelContainers: 2})
	results, err := engine.ExtractAll(context.Background(), paths)
	if err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for i, r := range results {
		if r == nil {
			t.Fatalf("results[%d] is nil", i)
		}
		if r.SourceFile != paths[i] {
			t.Errorf("results[%d].SourceFile = %q, want %q", i, r.SourceFile, paths[i])
		}
	}
}

func TestExtractAllFailsOnMissingContainer(t *testing.T) {
	engine := NewEngine(NewEngineParams{ParallelContainers: 2})
	_, err := engine.ExtractAll(context.Background(), []string{filepath.Join(t.TempDir(), "missing.aasx")})
	if !errors.Is(err, container.ErrNotFound) {
		t.Fatalf("error = %v, want container.ErrNotFound", err)
	}
}

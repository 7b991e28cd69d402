package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OFFIS-RIT/twingraph/pkg/graph"
)

type fakeStore struct {
	imported []*graph.Batch
	pingErrs int
	pings    int
}

func (f *fakeStore) ImportBatch(ctx context.Context, batch *graph.Batch) (ImportStats, error) {
	f.imported = append(f.imported, batch)
	return ImportStats{
		NodesCreated: int64(len(batch.Nodes)),
		EdgesCreated: int64(len(batch.Edges)),
	}, nil
}

func (f *fakeStore) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeStore) Ping(ctx context.Context) error {
	f.pings++
	if f.pings <= f.pingErrs {
		return errors.New("connection refused")
	}
	return nil
}

func writeBatchFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

const validBatch = `{
	"name": "motors",
	"nodes": [{"id": "urn:ex:1", "labels": ["Asset"]}, {"id": "urn:ex:2", "labels": ["Submodel"]}],
	"edges": [{"from": "urn:ex:1", "to": "urn:ex:2", "type": "HAS_SUBMODEL"}]
}`

func TestImportDirectorySkipsMalformedFiles(t *testing.T) {
	root := writeBatchFiles(t, map[string]string{
		"a.graph.json":        validBatch,
		"nested/b.graph.json": `{"nodes": []}`,
		"ignored.txt":         "not a batch file",
	})

	fake := &fakeStore{}
	report, err := NewImporter(fake).ImportDirectory(context.Background(), root, false)
	if err != nil {
		t.Fatalf("ImportDirectory() error = %v", err)
	}

	if len(report.FilesImported) != 1 {
		t.Errorf("imported %d files, want 1", len(report.FilesImported))
	}
	if len(report.FilesSkipped) != 1 {
		t.Fatalf("skipped %d files, want 1", len(report.FilesSkipped))
	}
	if report.FilesSkipped[0].Reason == "" {
		t.Error("skipped file is missing its reason")
	}
	if len(fake.imported) != 1 {
		t.Errorf("store received %d batches, want 1", len(fake.imported))
	}
	if report.Stats.NodesCreated != 2 || report.Stats.EdgesCreated != 1 {
		t.Errorf("unexpected stats: %+v", report.Stats)
	}
}

func TestImportDirectoryDryRun(t *testing.T) {
	root := writeBatchFiles(t, map[string]string{"a.graph.json": validBatch})

	fake := &fakeStore{}
	report, err := NewImporter(fake).ImportDirectory(context.Background(), root, true)
	if err != nil {
		t.Fatalf("ImportDirectory() error = %v", err)
	}

	if len(fake.imported) != 0 {
		t.Errorf("dry run wrote %d batches to the store, want 0", len(fake.imported))
	}
	if report.NodesTotal != 2 || report.EdgesTotal != 1 {
		t.Errorf("intended counts = %d nodes / %d edges, want 2 / 1", report.NodesTotal, report.EdgesTotal)
	}
	if (report.Stats != ImportStats{}) {
		t.Errorf("dry run stats must stay zero, got %+v", report.Stats)
	}
}

func TestImportFileValidationFailure(t *testing.T) {
	root := writeBatchFiles(t, map[string]string{"bad.graph.json": `{"edges": []}`})

	fake := &fakeStore{}
	_, err := NewImporter(fake).ImportFile(context.Background(), filepath.Join(root, "bad.graph.json"))

	var verr *graph.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *graph.ValidationError", err)
	}
	if len(fake.imported) != 0 {
		t.Error("store must not be touched for a malformed file")
	}
}

func TestDiscoverBatchFiles(t *testing.T) {
	root := writeBatchFiles(t, map[string]string{
		"z.graph.json":        "{}",
		"a/deep/b.graph.json": "{}",
		"result.json":         "{}",
	})

	paths, err := DiscoverBatchFiles(root)
	if err != nil {
		t.Fatalf("DiscoverBatchFiles() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("found %d batch files, want 2: %v", len(paths), paths)
	}
}

func TestWaitReadyRecovers(t *testing.T) {
	fake := &fakeStore{pingErrs: 2}

	err := WaitReady(context.Background(), fake, 10*time.Second)
	if err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	if fake.pings != 3 {
		t.Errorf("pinged %d times, want 3", fake.pings)
	}
}

func TestWaitReadyGivesUp(t *testing.T) {
	fake := &fakeStore{pingErrs: 1000}

	err := WaitReady(context.Background(), fake, 500*time.Millisecond)
	if !errors.Is(err, ErrConnectionFailure) {
		t.Fatalf("WaitReady() error = %v, want ErrConnectionFailure", err)
	}
}

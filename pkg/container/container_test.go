package container

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTestContainer(t *testing.T, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.aasx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create container: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		ew, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to add entry %s: %v", name, err)
		}
		if _, err := ew.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finalize container: %v", err)
	}

	return path
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want EntryKind
	}{
		{name: "aasx/data.json", want: EntryKindJSON},
		{name: "aasx/motor.aas.xml", want: EntryKindXML},
		{name: "aasx/MOTOR.AAS.XML", want: EntryKindXML},
		{name: "[Content_Types].xml", want: EntryKindIgnorable},
		{name: "_rels/.rels", want: EntryKindIgnorable},
		{name: "docs/manual.pdf", want: EntryKindDocument},
		{name: "docs/datasheet.docx", want: EntryKindDocument},
		{name: "docs/photo.JPG", want: EntryKindDocument},
		{name: "aasx/aasx-origin", want: EntryKindIgnorable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestOpenNotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.aasx"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open() error = %v, want ErrNotFound", err)
	}
}

func TestOpenInvalidFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.aasx")
	if err := os.WriteFile(path, []byte("this is not a zip archive"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("Open() error = %v, want ErrInvalidFormat", err)
	}
}

func TestEntries(t *testing.T) {
	path := writeTestContainer(t, map[string]string{
		"aasx/data.json":     `{"assetAdministrationShells":[]}`,
		"aasx/motor.aas.xml": `<aasenv/>`,
		"docs/manual.pdf":    "%PDF-1.4",
		"_rels/.rels":        "<Relationships/>",
	})

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	entries := c.Entries()
	if len(entries) != 4 {
		t.Fatalf("Entries() returned %d entries, want 4", len(entries))
	}

	kinds := make(map[string]EntryKind)
	for _, e := range entries {
		kinds[e.Name] = e.Kind
		if e.SizeBytes <= 0 {
			t.Errorf("entry %s has size %d, want > 0", e.Name, e.SizeBytes)
		}
	}

	if kinds["aasx/data.json"] != EntryKindJSON {
		t.Errorf("data.json classified as %q", kinds["aasx/data.json"])
	}
	if kinds["aasx/motor.aas.xml"] != EntryKindXML {
		t.Errorf("motor.aas.xml classified as %q", kinds["aasx/motor.aas.xml"])
	}
	if kinds["docs/manual.pdf"] != EntryKindDocument {
		t.Errorf("manual.pdf classified as %q", kinds["docs/manual.pdf"])
	}
	if kinds["_rels/.rels"] != EntryKindIgnorable {
		t.Errorf(".rels classified as %q", kinds["_rels/.rels"])
	}
}

func TestEntryBytes(t *testing.T) {
	content := `{"assetAdministrationShells":[{"idShort":"Motor1"}]}`
	path := writeTestContainer(t, map[string]string{"aasx/data.json": content})

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	entries := c.Entries()
	if len(entries) != 1 {
		t.Fatalf("Entries() returned %d entries, want 1", len(entries))
	}

	data, err := entries[0].Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if string(data) != content {
		t.Errorf("Bytes() = %q, want %q", data, content)
	}
}

package container

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// ErrNotFound is returned when the container path does not exist.
var ErrNotFound = errors.New("container not found")

// ErrInvalidFormat is returned when the container exists but cannot be
// opened as a ZIP archive.
var ErrInvalidFormat = errors.New("invalid container format")

// EntryKind classifies a container entry by its name pattern. Entries are
// never parsed during classification.
type EntryKind string

const (
	EntryKindJSON      EntryKind = "json"
	EntryKindXML       EntryKind = "xml"
	EntryKindDocument  EntryKind = "document"
	EntryKindIgnorable EntryKind = "ignorable"
)

// xmlMetadataMarker distinguishes legacy metadata entries from incidental
// packaging XML such as relationship and content-type files.
const xmlMetadataMarker = ".aas.xml"

var documentExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".xls":  {},
	".xlsx": {},
	".ppt":  {},
	".pptx": {},
	".txt":  {},
	".md":   {},
	".csv":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".svg":  {},
}

// Entry is one classified entry inside an open container. Entries are only
// valid while their Container is open.
type Entry struct {
	Name      string
	SizeBytes int64
	Kind      EntryKind

	file *zip.File
}

// Bytes reads the full content of the entry.
func (e *Entry) Bytes() ([]byte, error) {
	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", e.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", e.Name, err)
	}
	return data, nil
}

// Container is an opened package archive. It provides read-only access to
// its classified entries and must be closed after use.
type Container struct {
	Path string

	reader *zip.ReadCloser
}

// Open opens the container at path. It returns ErrNotFound when the path
// does not exist and ErrInvalidFormat when the file is not a readable ZIP
// archive.
func Open(containerPath string) (*Container, error) {
	if _, err := os.Stat(containerPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, containerPath)
		}
		return nil, fmt.Errorf("failed to stat container %s: %w", containerPath, err)
	}

	reader, err := zip.OpenReader(containerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, containerPath, err)
	}

	return &Container{
		Path:   containerPath,
		reader: reader,
	}, nil
}

// Close releases the underlying archive handle.
func (c *Container) Close() error {
	return c.reader.Close()
}

// Entries returns all classified entries in archive order. Directory
// entries are skipped.
func (c *Container) Entries() []Entry {
	entries := make([]Entry, 0, len(c.reader.File))
	for _, f := range c.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, Entry{
			Name:      f.Name,
			SizeBytes: int64(f.UncompressedSize64),
			Kind:      Classify(f.Name),
			file:      f,
		})
	}
	return entries
}

// Classify maps an entry name to its kind using extension and, for XML,
// a required metadata marker substring.
func Classify(name string) EntryKind {
	lower := strings.ToLower(name)
	ext := path.Ext(lower)

	switch {
	case ext == ".json":
		return EntryKindJSON
	case ext == ".xml" && strings.Contains(lower, xmlMetadataMarker):
		return EntryKindXML
	default:
		if _, ok := documentExtensions[ext]; ok {
			return EntryKindDocument
		}
		return EntryKindIgnorable
	}
}

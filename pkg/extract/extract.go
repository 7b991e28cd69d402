// Package extract walks packaged digital-twin containers, parses each
// metadata entry under the schema matching its format and normalizes the
// findings into canonical entity records with full provenance.
package extract

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/OFFIS-RIT/twingraph/pkg/common"
	"github.com/OFFIS-RIT/twingraph/pkg/container"
	"github.com/OFFIS-RIT/twingraph/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Processing methods reported on extraction results.
const (
	MethodJSONV3 = "json_v3"
	MethodXMLV1  = "xml_v1"
	MethodMixed  = "mixed"
	MethodNone   = "none"
)

// Engine extracts and normalizes container contents. A single container is
// always processed entry by entry on one goroutine so a corrupt entry's
// failure stays isolated; batches of containers run with bounded
// parallelism since their extractions are independent.
type Engine struct {
	parallelContainers int
}

// NewEngineParams configures a new Engine.
//
// ParallelContainers bounds how many containers a batch extraction
// processes concurrently. Values below 1 default to 1.
type NewEngineParams struct {
	ParallelContainers int
}

// NewEngine creates an Engine with the provided parameters.
func NewEngine(params NewEngineParams) *Engine {
	parallel := params.ParallelContainers
	if parallel < 1 {
		parallel = 1
	}
	return &Engine{
		parallelContainers: parallel,
	}
}

// ExtractContainer processes one container. Entry-level failures are
// recovered into the result's diagnostics list; only a missing or unreadable
// container aborts with an error.
func (e *Engine) ExtractContainer(ctx context.Context, containerPath string) (*common.ExtractionResult, error) {
	c, err := container.Open(containerPath)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	result := &common.ExtractionResult{
		SourceFile:          containerPath,
		ProcessingTimestamp: time.Now().UTC(),
		Assets:              []common.Entity{},
		Submodels:           []common.Entity{},
		Documents:           []common.DocumentRef{},
	}

	sawJSON := false
	sawXML := false

	for _, entry := range c.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.FileSizeBytes += entry.SizeBytes

		switch entry.Kind {
		case container.EntryKindJSON, container.EntryKindXML:
			records, diags := e.extractEntry(entry)
			result.Diagnostics = append(result.Diagnostics, diags...)

			format := common.OriginJSONV3
			if entry.Kind == container.EntryKindXML {
				format = common.OriginXMLV1
				result.RawData.XMLFiles = append(result.RawData.XMLFiles, entry.Name)
			} else {
				result.RawData.JSONFiles = append(result.RawData.JSONFiles, entry.Name)
			}

			if len(records) > 0 {
				sawJSON = sawJSON || entry.Kind == container.EntryKindJSON
				sawXML = sawXML || entry.Kind == container.EntryKindXML
			}

			for ordinal, raw := range records {
				entity := normalizeRecord(raw, entry.Name, format, ordinal)
				if entity.Element == common.ElementSubmodel {
					result.Submodels = append(result.Submodels, entity)
				} else {
					result.Assets = append(result.Assets, entity)
				}
			}
		case container.EntryKindDocument:
			result.Documents = append(result.Documents, common.DocumentRef{
				Filename:   entry.Name,
				SizeBytes:  entry.SizeBytes,
				TypeTag:    documentTypeTag(entry.Name),
				SourceFile: containerPath,
			})
		}
	}

	result.ProcessingMethod = processingMethod(sawJSON, sawXML)

	logger.Info(
		"[Extract] Container processed",
		"container", containerPath,
		"method", result.ProcessingMethod,
		"assets", len(result.Assets),
		"submodels", len(result.Submodels),
		"documents", len(result.Documents),
		"diagnostics", len(result.Diagnostics),
	)

	return result, nil
}

// extractEntry parses one metadata entry under the extractor matching its
// classification. A failed read of the entry itself is treated like a parse
// failure: recovered, recorded, skipped.
func (e *Engine) extractEntry(entry container.Entry) ([]RawRecord, []common.Diagnostic) {
	data, err := entry.Bytes()
	if err != nil {
		return nil, []common.Diagnostic{{
			Code:    common.DiagEntryParseFailure,
			Entry:   entry.Name,
			Message: fmt.Sprintf("unreadable entry: %v", err),
		}}
	}

	if entry.Kind == container.EntryKindXML {
		return extractXML(data, entry.Name)
	}
	return extractJSON(data, entry.Name)
}

// ExtractAll processes many containers with bounded parallelism. Each
// container's extraction is independent; a failed container aborts the
// batch and the error names the offending path.
func (e *Engine) ExtractAll(ctx context.Context, paths []string) ([]*common.ExtractionResult, error) {
	results := make([]*common.ExtractionResult, len(paths))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.parallelContainers)
	var mu sync.Mutex

	for i, p := range paths {
		idx, containerPath := i, p
		eg.Go(func() error {
			res, err := e.ExtractContainer(gCtx, containerPath)
			if err != nil {
				return fmt.Errorf("failed to extract %s: %w", containerPath, err)
			}
			mu.Lock()
			results[idx] = res
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func processingMethod(sawJSON, sawXML bool) string {
	switch {
	case sawJSON && sawXML:
		return MethodMixed
	case sawJSON:
		return MethodJSONV3
	case sawXML:
		return MethodXMLV1
	default:
		return MethodNone
	}
}

func documentTypeTag(name string) string {
	ext := strings.TrimPrefix(path.Ext(strings.ToLower(name)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

package common

import "time"

// OriginFormat identifies the schema generation a record was extracted from.
type OriginFormat string

const (
	// OriginJSONV3 marks records extracted from the modern JSON schema.
	OriginJSONV3 OriginFormat = "JSON_V3"
	// OriginXMLV1 marks records extracted from the legacy namespaced XML schema.
	OriginXMLV1 OriginFormat = "XML_V1"
)

// ElementType classifies which metadata element a record was extracted from.
type ElementType string

const (
	ElementShell    ElementType = "Shell"
	ElementAsset    ElementType = "Asset"
	ElementSubmodel ElementType = "Submodel"
)

// Entity is the canonical post-normalization record for one shell, asset or
// submodel found in a container. Entities are immutable once created.
//
// Identity may be empty when the source omits it; Key is then a synthetic
// identifier derived deterministically from the source file, the short name
// (or element type) and the record's position in its source, so repeated
// extraction of an unchanged container yields the same keys.
//
// SourceFile and OriginFormat are always set.
type Entity struct {
	Key          string       `json:"key"`
	Identity     string       `json:"identity"`
	ShortName    string       `json:"shortName"`
	Description  string       `json:"description"`
	Kind         string       `json:"kind"`
	Element      ElementType  `json:"element"`
	SourceFile   string       `json:"source"`
	OriginFormat OriginFormat `json:"format"`
	SubmodelRefs []string     `json:"submodelRefs,omitempty"`
}

// DocumentRef describes an embedded document found in a container. Documents
// are passed through by reference and never parsed.
type DocumentRef struct {
	Filename   string `json:"filename"`
	SizeBytes  int64  `json:"fileSizeBytes"`
	TypeTag    string `json:"type"`
	SourceFile string `json:"source"`
}

// RawData lists the metadata entries that contributed to an extraction,
// grouped by schema generation.
type RawData struct {
	JSONFiles []string `json:"jsonFiles"`
	XMLFiles  []string `json:"xmlFiles"`
}

// ExtractionResult is the structured output of processing one container.
// Assets holds shell and asset entities, Submodels the submodel entities.
// Diagnostics aggregates the non-fatal failures recovered during the pass.
type ExtractionResult struct {
	ProcessingMethod    string        `json:"processingMethod"`
	SourceFile          string        `json:"sourceFile"`
	FileSizeBytes       int64         `json:"fileSizeBytes"`
	ProcessingTimestamp time.Time     `json:"processingTimestamp"`
	Assets              []Entity      `json:"assets"`
	Submodels           []Entity      `json:"submodels"`
	Documents           []DocumentRef `json:"documents"`
	RawData             RawData       `json:"rawData"`
	Diagnostics         []Diagnostic  `json:"diagnostics,omitempty"`
}

// Entities returns all extracted entities, assets first.
func (r *ExtractionResult) Entities() []Entity {
	out := make([]Entity, 0, len(r.Assets)+len(r.Submodels))
	out = append(out, r.Assets...)
	out = append(out, r.Submodels...)
	return out
}

// DiagnosticCode classifies a recovered, non-fatal failure.
type DiagnosticCode string

const (
	// DiagEntryParseFailure records one malformed metadata entry that was
	// skipped without aborting the rest of the container.
	DiagEntryParseFailure DiagnosticCode = "EntryParseFailure"
	// DiagEntryRepaired records a JSON entry that only parsed after a
	// repair pass.
	DiagEntryRepaired DiagnosticCode = "EntryRepaired"
	// DiagDanglingReference records a submodel reference whose target was
	// absent from the batch; no edge is created for it.
	DiagDanglingReference DiagnosticCode = "DanglingReference"
)

// Diagnostic is one recovered failure, attributed to the container entry
// that produced it.
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Entry   string         `json:"entry,omitempty"`
	Message string         `json:"message"`
}

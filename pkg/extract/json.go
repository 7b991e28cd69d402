package extract

import (
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/twingraph/pkg/common"

	"github.com/kaptinlin/jsonrepair"
)

// jsonEnvelope is the top level of a modern metadata entry. Only the shell
// and submodel collections are read; everything else is ignored.
type jsonEnvelope struct {
	Shells    []jsonElement `json:"assetAdministrationShells"`
	Submodels []jsonElement `json:"submodels"`
}

// jsonElement covers the fields shared by shells and submodels. Fields whose
// wire shape varies across schema revisions are kept raw and decoded with
// fallbacks.
type jsonElement struct {
	ID               string               `json:"id"`
	Identification   json.RawMessage      `json:"identification"`
	IDShort          string               `json:"idShort"`
	Description      json.RawMessage      `json:"description"`
	Kind             json.RawMessage      `json:"kind"`
	AssetInformation jsonAssetInformation `json:"assetInformation"`
	SubmodelRefs     json.RawMessage      `json:"submodels"`
}

type jsonAssetInformation struct {
	AssetKind string `json:"assetKind"`
}

type jsonReference struct {
	Keys []jsonKey `json:"keys"`
}

type jsonKey struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// extractJSON reads the modern schema's shell and submodel arrays from one
// metadata entry. Malformed individual fields degrade to empty strings. An
// entry that does not parse gets one repair attempt; if that also fails the
// entry is skipped with a single EntryParseFailure diagnostic.
func extractJSON(data []byte, sourceFile string) ([]RawRecord, []common.Diagnostic) {
	var diags []common.Diagnostic

	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil || json.Unmarshal([]byte(repaired), &env) != nil {
			return nil, append(diags, common.Diagnostic{
				Code:    common.DiagEntryParseFailure,
				Entry:   sourceFile,
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
		}
		diags = append(diags, common.Diagnostic{
			Code:    common.DiagEntryRepaired,
			Entry:   sourceFile,
			Message: "entry parsed after JSON repair",
		})
	}

	records := make([]RawRecord, 0, len(env.Shells)+len(env.Submodels))
	for _, el := range env.Shells {
		records = append(records, jsonRecord(el, common.ElementShell))
	}
	for _, el := range env.Submodels {
		records = append(records, jsonRecord(el, common.ElementSubmodel))
	}

	return records, diags
}

func jsonRecord(el jsonElement, element common.ElementType) RawRecord {
	return RawRecord{
		Element:      element,
		Identity:     jsonIdentity(el),
		ShortName:    el.IDShort,
		Description:  resolveDescription(el.Description),
		Kind:         jsonKind(el),
		SubmodelRefs: jsonSubmodelRefs(el.SubmodelRefs),
	}
}

// jsonIdentity prefers the modern "id" key and falls back to the older
// "identification" shape, which appears both as a bare string and as an
// object carrying an "id" key.
func jsonIdentity(el jsonElement) string {
	if el.ID != "" {
		return el.ID
	}
	if len(el.Identification) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(el.Identification, &plain); err == nil {
		return plain
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(el.Identification, &obj); err == nil {
		return obj.ID
	}
	return ""
}

// jsonKind copies the kind tag verbatim; shells without a direct kind fall
// back to the asset information's assetKind.
func jsonKind(el jsonElement) string {
	if len(el.Kind) > 0 {
		var plain string
		if err := json.Unmarshal(el.Kind, &plain); err == nil && plain != "" {
			return plain
		}
	}
	return el.AssetInformation.AssetKind
}

// jsonSubmodelRefs collects the referenced submodel identities from a
// shell's reference list. On submodel elements the same key holds element
// content instead of references and is ignored.
func jsonSubmodelRefs(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var refs []jsonReference
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil
	}

	var out []string
	for _, ref := range refs {
		for _, key := range ref.Keys {
			if key.Value == "" {
				continue
			}
			if key.Type != "" && key.Type != "Submodel" {
				continue
			}
			out = append(out, key.Value)
		}
	}
	return out
}

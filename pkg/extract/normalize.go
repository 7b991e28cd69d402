package extract

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/twingraph/pkg/common"
)

// RawRecord is the extractor-local representation of one shell, asset or
// submodel before normalization. It never leaves this package unchanged.
type RawRecord struct {
	Element      common.ElementType
	Identity     string
	ShortName    string
	Description  string
	Kind         string
	SubmodelRefs []string
}

// normalizeRecord converts a RawRecord into a canonical Entity. The source
// file and origin format are stamped unconditionally; an empty identity is
// replaced by a synthetic key derived from the record's provenance and its
// position in the source, so unchanged input always yields the same key.
// Normalization never fails: absent optional fields stay empty strings.
func normalizeRecord(raw RawRecord, sourceFile string, format common.OriginFormat, ordinal int) common.Entity {
	identity := strings.TrimSpace(raw.Identity)

	key := identity
	if key == "" {
		key = syntheticKey(sourceFile, raw.ShortName, raw.Element, ordinal)
	}

	return common.Entity{
		Key:          key,
		Identity:     identity,
		ShortName:    strings.TrimSpace(raw.ShortName),
		Description:  raw.Description,
		Kind:         raw.Kind,
		Element:      raw.Element,
		SourceFile:   sourceFile,
		OriginFormat: format,
		SubmodelRefs: raw.SubmodelRefs,
	}
}

// syntheticKey derives a stable key for records without a natural identity.
func syntheticKey(sourceFile, shortName string, element common.ElementType, ordinal int) string {
	name := strings.TrimSpace(shortName)
	if name == "" {
		name = string(element)
	}
	return fmt.Sprintf("synthetic:%s:%s:%d", sourceFile, name, ordinal)
}

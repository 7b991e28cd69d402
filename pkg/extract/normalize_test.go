package extract

import (
	"testing"

	"github.com/OFFIS-RIT/twingraph/pkg/common"
)

func TestNormalizeRecordNaturalKey(t *testing.T) {
	raw := RawRecord{
		Element:   common.ElementShell,
		Identity:  "  urn:ex:1  ",
		ShortName: " Motor1 ",
	}

	e := normalizeRecord(raw, "aasx/data.json", common.OriginJSONV3, 0)

	if e.Key != "urn:ex:1" {
		t.Errorf("Key = %q, want trimmed identity", e.Key)
	}
	if e.Identity != "urn:ex:1" {
		t.Errorf("Identity = %q, want urn:ex:1", e.Identity)
	}
	if e.ShortName != "Motor1" {
		t.Errorf("ShortName = %q, want Motor1", e.ShortName)
	}
	if e.SourceFile != "aasx/data.json" {
		t.Errorf("SourceFile = %q, want aasx/data.json", e.SourceFile)
	}
	if e.OriginFormat != common.OriginJSONV3 {
		t.Errorf("OriginFormat = %q, want JSON_V3", e.OriginFormat)
	}
}

func TestNormalizeRecordSyntheticKey(t *testing.T) {
	raw := RawRecord{Element: common.ElementSubmodel, ShortName: "Specs"}

	first := normalizeRecord(raw, "aasx/data.json", common.OriginXMLV1, 3)
	second := normalizeRecord(raw, "aasx/data.json", common.OriginXMLV1, 3)

	if first.Key == "" {
		t.Fatal("expected synthetic key for empty identity")
	}
	if first.Key != second.Key {
		t.Errorf("synthetic keys differ across runs: %q vs %q", first.Key, second.Key)
	}

	other := normalizeRecord(raw, "aasx/data.json", common.OriginXMLV1, 4)
	if other.Key == first.Key {
		t.Errorf("different ordinals must yield different keys, both %q", first.Key)
	}
}

func TestNormalizeRecordSyntheticKeyFallsBackToElementType(t *testing.T) {
	raw := RawRecord{Element: common.ElementAsset}

	e := normalizeRecord(raw, "aasx/data.json", common.OriginXMLV1, 0)
	want := "synthetic:aasx/data.json:Asset:0"
	if e.Key != want {
		t.Errorf("Key = %q, want %q", e.Key, want)
	}
}

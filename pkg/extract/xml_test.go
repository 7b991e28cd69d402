package extract

import (
	"testing"

	"github.com/OFFIS-RIT/twingraph/pkg/common"
)

const namespacedEntry = `<?xml version="1.0" encoding="UTF-8"?>
<aas:aasenv xmlns:aas="http://www.admin-shell.io/aas/1/0"
            xmlns:IEC61360="http://www.admin-shell.io/IEC61360/1/0"
            xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <aas:assetAdministrationShells>
    <aas:assetAdministrationShell>
      <aas:idShort>Motor1</aas:idShort>
      <aas:identification>urn:xml:shell:1</aas:identification>
      <aas:description>
        <aas:langString lang="de">Antriebsmotor</aas:langString>
        <aas:langString lang="en">Drive motor</aas:langString>
      </aas:description>
      <aas:submodelRefs>
        <aas:submodelRef>
          <aas:keys>
            <aas:key type="Submodel">urn:xml:sm:1</aas:key>
          </aas:keys>
        </aas:submodelRef>
      </aas:submodelRefs>
    </aas:assetAdministrationShell>
  </aas:assetAdministrationShells>
  <aas:assets>
    <aas:asset>
      <aas:idShort>MotorAsset</aas:idShort>
      <aas:identification>urn:xml:asset:1</aas:identification>
      <aas:kind>Instance</aas:kind>
    </aas:asset>
  </aas:assets>
  <aas:submodels>
    <aas:submodel>
      <aas:idShort>Specs</aas:idShort>
      <aas:identification>urn:xml:sm:1</aas:identification>
      <aas:category>TechnicalData</aas:category>
    </aas:submodel>
  </aas:submodels>
</aas:aasenv>`

func TestExtractXMLNamespaced(t *testing.T) {
	records, diags := extractXML([]byte(namespacedEntry), "aasx/motor.aas.xml")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(records) != 3 {
		t.Fatalf("extractXML() returned %d records, want 3", len(records))
	}

	byElement := make(map[common.ElementType]RawRecord)
	for _, r := range records {
		byElement[r.Element] = r
	}

	shell := byElement[common.ElementShell]
	if shell.Identity != "urn:xml:shell:1" {
		t.Errorf("shell identity = %q, want urn:xml:shell:1", shell.Identity)
	}
	if shell.ShortName != "Motor1" {
		t.Errorf("shell shortName = %q, want Motor1", shell.ShortName)
	}
	if shell.Description != "Drive motor" {
		t.Errorf("shell description = %q, want 'Drive motor'", shell.Description)
	}
	if len(shell.SubmodelRefs) != 1 || shell.SubmodelRefs[0] != "urn:xml:sm:1" {
		t.Errorf("shell submodelRefs = %v, want [urn:xml:sm:1]", shell.SubmodelRefs)
	}

	asset := byElement[common.ElementAsset]
	if asset.Identity != "urn:xml:asset:1" {
		t.Errorf("asset identity = %q, want urn:xml:asset:1", asset.Identity)
	}
	if asset.Kind != "Instance" {
		t.Errorf("asset kind = %q, want Instance", asset.Kind)
	}

	submodel := byElement[common.ElementSubmodel]
	if submodel.Identity != "urn:xml:sm:1" {
		t.Errorf("submodel identity = %q, want urn:xml:sm:1", submodel.Identity)
	}
	if submodel.Kind != "TechnicalData" {
		t.Errorf("submodel kind = %q, want TechnicalData (category fallback)", submodel.Kind)
	}
}

// Entries written without namespace prefixes must still yield correct field
// values through the unqualified fallback lookup.
func TestExtractXMLUnqualifiedFallback(t *testing.T) {
	data := []byte(`<?xml version="1.0"?>
<aasenv>
  <submodels>
    <submodel>
      <idShort>Specs</idShort>
      <identification>urn:plain:sm:1</identification>
      <description>
        <langString lang="en">Specifications</langString>
      </description>
      <kind>Instance</kind>
    </submodel>
  </submodels>
</aasenv>`)

	records, diags := extractXML(data, "aasx/plain.aas.xml")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(records) != 1 {
		t.Fatalf("extractXML() returned %d records, want 1", len(records))
	}

	r := records[0]
	if r.Identity != "urn:plain:sm:1" {
		t.Errorf("identity = %q, want urn:plain:sm:1", r.Identity)
	}
	if r.ShortName != "Specs" {
		t.Errorf("shortName = %q, want Specs", r.ShortName)
	}
	if r.Description != "Specifications" {
		t.Errorf("description = %q, want Specifications", r.Description)
	}
	if r.Kind != "Instance" {
		t.Errorf("kind = %q, want Instance", r.Kind)
	}
}

func TestExtractXMLMissingFieldsDegradeToEmpty(t *testing.T) {
	data := []byte(`<aasenv xmlns="http://www.admin-shell.io/aas/1/0">
  <assets><asset/></assets>
</aasenv>`)

	records, diags := extractXML(data, "aasx/sparse.aas.xml")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(records) != 1 {
		t.Fatalf("extractXML() returned %d records, want 1", len(records))
	}
	r := records[0]
	if r.Identity != "" || r.ShortName != "" || r.Description != "" || r.Kind != "" {
		t.Errorf("expected all fields empty, got %+v", r)
	}
}

func TestExtractXMLParseFailure(t *testing.T) {
	records, diags := extractXML([]byte("<unclosed><element>"), "aasx/broken.aas.xml")
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if len(diags) != 1 || diags[0].Code != common.DiagEntryParseFailure {
		t.Fatalf("expected one EntryParseFailure diagnostic, got %v", diags)
	}
}

func TestExtractXMLDescriptionWithoutLangStrings(t *testing.T) {
	data := []byte(`<aasenv>
  <submodels>
    <submodel>
      <description>Inline description</description>
    </submodel>
  </submodels>
</aasenv>`)

	records, _ := extractXML(data, "aasx/inline.aas.xml")
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Description != "Inline description" {
		t.Errorf("description = %q, want 'Inline description'", records[0].Description)
	}
}

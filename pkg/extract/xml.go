package extract

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/twingraph/pkg/common"
)

// Namespaces of the legacy schema generation. nsIEC61360 qualifies the
// embedded data-specification (measurement unit) elements, nsXSI the type
// attributes.
const (
	nsAAS      = "http://www.admin-shell.io/aas/1/0"
	nsIEC61360 = "http://www.admin-shell.io/IEC61360/1/0"
	nsXSI      = "http://www.w3.org/2001/XMLSchema-instance"
)

// xmlNode is a generic element tree node. encoding/xml resolves namespace
// prefixes, so XMLName.Space carries the full namespace URI.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

// nodeLookup locates a direct child by local name under one resolution
// strategy. Strategies are tried in order; the first hit wins.
type nodeLookup func(n *xmlNode, local string) *xmlNode

func qualifiedLookup(space string) nodeLookup {
	return func(n *xmlNode, local string) *xmlNode {
		for i := range n.Children {
			c := &n.Children[i]
			if c.XMLName.Space == space && c.XMLName.Local == local {
				return c
			}
		}
		return nil
	}
}

func unqualifiedLookup(n *xmlNode, local string) *xmlNode {
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == local {
			return c
		}
	}
	return nil
}

// lookupChain is the ordered namespace-resolution policy: the primary
// schema namespace first, then the data-specification namespace, then the
// unqualified local name as recovery for entries written without prefixes.
var lookupChain = []nodeLookup{
	qualifiedLookup(nsAAS),
	qualifiedLookup(nsIEC61360),
	unqualifiedLookup,
}

func findChild(n *xmlNode, local string) *xmlNode {
	if n == nil {
		return nil
	}
	for _, lookup := range lookupChain {
		if c := lookup(n, local); c != nil {
			return c
		}
	}
	return nil
}

// childText resolves a sub-element's text through the lookup chain. A miss
// under every strategy yields an empty string, not an error.
func childText(n *xmlNode, local string) string {
	c := findChild(n, local)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text)
}

// attrValue reads an attribute, preferring the xsi-qualified form used for
// type attributes before the unqualified name.
func attrValue(n *xmlNode, local string) string {
	for _, a := range n.Attrs {
		if a.Name.Space == nsXSI && a.Name.Local == local {
			return a.Value
		}
	}
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// collectElements gathers all descendants with the given local name. The
// namespace-qualified matches win; when the document carries no qualified
// occurrences at all, unqualified matches are used instead.
func collectElements(n *xmlNode, local string) []*xmlNode {
	var qualified, unqualified []*xmlNode

	var walk func(node *xmlNode)
	walk = func(node *xmlNode) {
		for i := range node.Children {
			c := &node.Children[i]
			if c.XMLName.Local == local {
				if c.XMLName.Space == nsAAS || c.XMLName.Space == nsIEC61360 {
					qualified = append(qualified, c)
				} else {
					unqualified = append(unqualified, c)
				}
			}
			walk(c)
		}
	}
	walk(n)

	if len(qualified) > 0 {
		return qualified
	}
	return unqualified
}

// xmlElementNames maps the legacy element names to their record types.
// Shells, assets and submodels are extracted independently.
var xmlElementNames = []struct {
	local   string
	element common.ElementType
}{
	{local: "assetAdministrationShell", element: common.ElementShell},
	{local: "asset", element: common.ElementAsset},
	{local: "submodel", element: common.ElementSubmodel},
}

// extractXML reads shells, assets and submodels from one legacy metadata
// entry. Field lookups run namespace-qualified first with an unqualified
// fallback; fields missing under both resolve to empty strings. A
// non-well-formed entry is skipped with one EntryParseFailure diagnostic.
func extractXML(data []byte, sourceFile string) ([]RawRecord, []common.Diagnostic) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, []common.Diagnostic{{
			Code:    common.DiagEntryParseFailure,
			Entry:   sourceFile,
			Message: fmt.Sprintf("invalid XML: %v", err),
		}}
	}

	var records []RawRecord
	for _, en := range xmlElementNames {
		for _, node := range collectElements(&root, en.local) {
			records = append(records, RawRecord{
				Element:      en.element,
				Identity:     childText(node, "identification"),
				ShortName:    childText(node, "idShort"),
				Description:  xmlDescription(node),
				Kind:         xmlKind(node),
				SubmodelRefs: xmlSubmodelRefs(node),
			})
		}
	}

	return records, nil
}

// xmlDescription resolves the language-tagged langString children of a
// description element into a single string.
func xmlDescription(n *xmlNode) string {
	desc := findChild(n, "description")
	if desc == nil {
		return ""
	}

	var pairs []langPair
	for i := range desc.Children {
		c := &desc.Children[i]
		if c.XMLName.Local != "langString" {
			continue
		}
		pairs = append(pairs, langPair{
			lang: attrValue(c, "lang"),
			text: strings.TrimSpace(c.Text),
		})
	}

	if len(pairs) == 0 {
		// Some writers put the text directly on the description element.
		return strings.TrimSpace(desc.Text)
	}
	return pickLanguage(pairs)
}

// xmlKind copies the classification tag verbatim: kind when present,
// category otherwise. The two generations define this field differently;
// the observed copy-through behavior is kept.
func xmlKind(n *xmlNode) string {
	if kind := childText(n, "kind"); kind != "" {
		return kind
	}
	return childText(n, "category")
}

// xmlSubmodelRefs collects referenced submodel identities from a shell's
// submodelRefs block.
func xmlSubmodelRefs(n *xmlNode) []string {
	refs := findChild(n, "submodelRefs")
	if refs == nil {
		return nil
	}

	var out []string
	for i := range refs.Children {
		ref := &refs.Children[i]
		if ref.XMLName.Local != "submodelRef" {
			continue
		}
		keys := findChild(ref, "keys")
		if keys == nil {
			continue
		}
		for j := range keys.Children {
			key := &keys.Children[j]
			if key.XMLName.Local != "key" {
				continue
			}
			if t := attrValue(key, "type"); t != "" && t != "Submodel" {
				continue
			}
			if v := strings.TrimSpace(key.Text); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

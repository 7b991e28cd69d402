package extract

import (
	"encoding/json"
	"strings"
)

// preferredLanguage is matched case-insensitively when picking one string
// out of a set of language-tagged alternatives.
const preferredLanguage = "en"

// langString is the wire shape of one language-tagged text in the modern
// JSON schema.
type langString struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// resolveDescription picks a canonical human-readable string out of a raw
// description value. The value can be a bare string, a map of language code
// to string, an array of language-tagged entries, or absent.
//
// A bare string is returned as-is. For tagged forms the English entry wins
// when present; otherwise the first entry in iteration order is used, which
// for the map form depends on map ordering. Absent or unrecognized values
// resolve to the empty string.
func resolveDescription(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var tagged []langString
	if err := json.Unmarshal(raw, &tagged); err == nil {
		pairs := make([]langPair, 0, len(tagged))
		for _, ls := range tagged {
			pairs = append(pairs, langPair{lang: ls.Language, text: ls.Text})
		}
		return pickLanguage(pairs)
	}

	var byLang map[string]string
	if err := json.Unmarshal(raw, &byLang); err == nil {
		pairs := make([]langPair, 0, len(byLang))
		for lang, text := range byLang {
			pairs = append(pairs, langPair{lang: lang, text: text})
		}
		return pickLanguage(pairs)
	}

	return ""
}

type langPair struct {
	lang string
	text string
}

// pickLanguage prefers the English entry and falls back to the first pair.
func pickLanguage(pairs []langPair) string {
	for _, p := range pairs {
		if strings.EqualFold(p.lang, preferredLanguage) {
			return p.text
		}
	}
	if len(pairs) > 0 {
		return pairs[0].text
	}
	return ""
}

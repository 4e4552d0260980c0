// Package langmeta resolves language display metadata (canonical tags,
// native names, emoji flags) for CLI output.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes display metadata for one language code.
type Meta struct {
	// Tag is the canonical BCP 47 tag, or the raw input when it does
	// not parse.
	Tag string
	// Name is the language's name in itself ("Deutsch", not "German").
	Name string
	// Flag is the emoji flag for the region subtag, possibly inferred,
	// empty when no country region applies.
	Flag string
}

// Resolve returns best-effort metadata for a language code. Underscore
// variants (pt_BR) are accepted alongside hyphenated tags. Unparseable
// codes come back as-is with no name lookup.
func Resolve(code string) Meta {
	normalized := strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if normalized == "" {
		return Meta{}
	}

	tag, err := language.Parse(normalized)
	if err != nil {
		return Meta{Tag: code, Name: code, Flag: flagFromParts(normalized)}
	}

	name := display.Self.Name(tag)
	if name == "" {
		name = display.English.Languages().Name(tag)
	}
	if name == "" {
		name = normalized
	}

	flag := ""
	if region, conf := tag.Region(); conf > language.No && region.IsCountry() {
		flag = Flag(region.String())
	}

	return Meta{Tag: tag.String(), Name: name, Flag: flag}
}

// Flag converts an ISO 3166-1 alpha-2 country code into its emoji flag
// (regional indicator pair). Returns "" for anything else.
func Flag(country string) string {
	if len(country) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range strings.ToUpper(country) {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + c - 'A')
	}
	return b.String()
}

// flagFromParts scans an unparseable code for something that still
// looks like a region subtag.
func flagFromParts(code string) string {
	for _, part := range strings.Split(code, "-")[1:] {
		if len(part) == 2 && isAlpha(part) {
			return Flag(part)
		}
	}
	return ""
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

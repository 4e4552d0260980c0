// Package validate inspects translated units for the damage translators
// most often inflict: lost or duplicated placeholder tokens, altered ICU
// plural/select structure, broken or missing span markers. It is a
// separate pass over finished units; everything it reports is advisory
// and never blocks reassembly.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tabliff/tabliff/markup"
	"github.com/tabliff/tabliff/protect"
	"github.com/tabliff/tabliff/xliff"
)

// Document validates every translated unit of a document read back from
// an interchange file.
func Document(doc *xliff.Document) ([]xliff.Finding, error) {
	codec, err := doc.Dialect.Inline()
	if err != nil {
		return nil, err
	}

	var findings []xliff.Finding
	for _, u := range doc.Units {
		findings = append(findings, Unit(u, codec)...)
	}
	return findings, nil
}

// Unit checks every translated segment of one unit against its source.
// Untranslated segments are skipped; merge resolves those through the
// fallback policy instead.
func Unit(u *xliff.Unit, codec xliff.Inline) []xliff.Finding {
	var findings []xliff.Finding
	for i := range u.Segments {
		seg := &u.Segments[i]
		if seg.Target == "" {
			continue
		}
		findings = append(findings, segmentFindings(u, seg, codec)...)
	}
	return findings
}

func segmentFindings(u *xliff.Unit, seg *xliff.Segment, codec xliff.Inline) []xliff.Finding {
	var findings []xliff.Finding
	content := func(format string, args ...any) {
		findings = append(findings, xliff.Finding{
			Kind: xliff.FindingContent, Unit: u.ID, Segment: seg.ID,
			Message: fmt.Sprintf(format, args...),
		})
	}

	// Placeholder token conservation, as a multiset compare: a deleted
	// token is gone from the output, a duplicated one restores the same
	// literal twice. Both deserve review.
	srcTokens := counts(protect.Tokens(seg.WireSource))
	tgtTokens := counts(protect.Tokens(seg.Target))
	for _, tok := range sortedKeys(srcTokens) {
		switch n := tgtTokens[tok]; {
		case n == 0:
			content("placeholder %s deleted from translation", tok)
		case n > srcTokens[tok]:
			content("placeholder %s duplicated in translation (%d occurrences)", tok, n)
		}
	}
	for _, tok := range sortedKeys(tgtTokens) {
		if srcTokens[tok] == 0 {
			content("placeholder %s not present in source", tok)
		}
	}

	// ICU structure: block kind, variable and category keywords must
	// survive translation.
	srcBlocks := protect.Blocks(seg.WireSource)
	tgtBlocks := protect.Blocks(seg.Target)
	if !equalStrings(srcBlocks, tgtBlocks) {
		content("ICU plural/select structure changed (source %s, target %s)",
			describeBlocks(srcBlocks), describeBlocks(tgtBlocks))
	}

	// Span markers: decode the target wire text and roll up the
	// decoder's structural findings, then compare marker ids so a span
	// pair the translator deleted outright is reported here and not
	// only at merge time.
	var spans []markup.Span
	if u.Content != nil {
		spans = u.Content.Spans
	}
	srcEvents, _ := codec.Decode(seg.WireSource, spans, u.ID, seg.ID)
	tgtEvents, structural := codec.Decode(seg.Target, spans, u.ID, seg.ID)
	findings = append(findings, structural...)

	srcSpans := spanCounts(srcEvents)
	tgtSpans := spanCounts(tgtEvents)
	for _, id := range sortedIDs(srcSpans) {
		if tgtSpans[id] == 0 {
			content("inline span %d missing from translation", id)
		}
	}
	for _, id := range sortedIDs(tgtSpans) {
		if srcSpans[id] == 0 {
			content("inline span %d not present in source", id)
		}
	}

	return findings
}

func counts(items []string) map[string]int {
	m := make(map[string]int, len(items))
	for _, it := range items {
		m[it]++
	}
	return m
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// spanCounts tallies how often each span id is opened (paired or
// standalone) in an event stream.
func spanCounts(events []xliff.Event) map[int]int {
	m := make(map[int]int)
	for _, ev := range events {
		if ev.Kind == xliff.EventOpen || ev.Kind == xliff.EventSelf {
			m[ev.Span]++
		}
	}
	return m
}

func sortedIDs(m map[int]int) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func describeBlocks(blocks []string) string {
	if len(blocks) == 0 {
		return "none"
	}
	return strings.Join(blocks, "; ")
}

package extract

import (
	"strings"
	"testing"

	"github.com/tabliff/tabliff/segment"
	"github.com/tabliff/tabliff/workbook"
	"github.com/tabliff/tabliff/xliff"
)

func newExtractor(t *testing.T, opts Options) *Extractor {
	t.Helper()
	if opts.Locale == "" {
		opts.Locale = "en"
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestUnitSegmentsAndWire(t *testing.T) {
	e := newExtractor(t, Options{Dialect: xliff.Dialect20})
	u := e.Unit(workbook.Cell{Sheet: "Products", Row: 4, Col: 2, Value: "<p>Hello <b>world</b>! Nice day.</p>"})
	if u == nil {
		t.Fatal("no unit")
	}
	if u.ID != "Products!R4C2" {
		t.Fatalf("unit id = %q", u.ID)
	}
	if len(u.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(u.Segments))
	}

	s1 := u.Segments[0]
	if s1.Source != "Hello world!" || s1.Start != 0 || s1.End != 12 {
		t.Fatalf("segment 1 = %q [%d,%d]", s1.Source, s1.Start, s1.End)
	}
	wantWire := `Hello <pc id="1" equivStart="&lt;b&gt;" equivEnd="&lt;/b&gt;">world</pc>!`
	if s1.WireSource != wantWire {
		t.Fatalf("wire = %q, want %q", s1.WireSource, wantWire)
	}
	if s1.Tokens != nil {
		t.Fatalf("segment 1 tokens = %v, want none", s1.Tokens)
	}

	s2 := u.Segments[1]
	if s2.Source != "Nice day." || s2.WireSource != "Nice day." {
		t.Fatalf("segment 2 = %q wire %q", s2.Source, s2.WireSource)
	}
}

func TestUnitSkipsUntranslatableCells(t *testing.T) {
	e := newExtractor(t, Options{})
	for _, value := range []string{"", "   ", "<p>   </p>", "<hr/>"} {
		if u := e.Unit(workbook.Cell{Sheet: "S", Row: 1, Col: 1, Value: value}); u != nil {
			t.Errorf("Unit(%q) = %+v, want nil", value, u)
		}
	}
}

func TestUnitMasksPlaceholders(t *testing.T) {
	e := newExtractor(t, Options{Patterns: []string{`\{\d+\}`}})
	u := e.Unit(workbook.Cell{Sheet: "S", Row: 1, Col: 1, Value: "Delete {0} now?"})
	if u == nil {
		t.Fatal("no unit")
	}
	s := u.Segments[0]
	if s.WireSource != "Delete {{t1}} now?" {
		t.Fatalf("wire = %q", s.WireSource)
	}
	if got := s.Tokens["{{t1}}"]; got != "{0}" {
		t.Fatalf("token {{t1}} = %q, want {0}", got)
	}
}

// A span crossing a sentence boundary widens the segmentation so its
// marker pair ships inside a single segment.
func TestUnitMergesSegmentsAcrossSpans(t *testing.T) {
	e := newExtractor(t, Options{Dialect: xliff.Dialect20})
	u := e.Unit(workbook.Cell{Sheet: "S", Row: 1, Col: 1, Value: "<b>One. Two</b>. Three."})
	if u == nil {
		t.Fatal("no unit")
	}
	if len(u.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(u.Segments))
	}
	if got := u.Segments[0].Source; got != "One. Two." {
		t.Fatalf("segment 1 source = %q, want %q", got, "One. Two.")
	}
	if got := u.Segments[1].Source; got != "Three." {
		t.Fatalf("segment 2 source = %q, want %q", got, "Three.")
	}
	wire := u.Segments[0].WireSource
	if !strings.HasPrefix(wire, `<pc id="1"`) || !strings.HasSuffix(wire, "</pc>.") {
		t.Fatalf("segment 1 wire = %q", wire)
	}
}

// A standalone marker in leading whitespace stretches the first segment so
// the marker is not orphaned.
func TestUnitWidensForBoundarySpans(t *testing.T) {
	e := newExtractor(t, Options{Dialect: xliff.Dialect20})
	u := e.Unit(workbook.Cell{Sheet: "S", Row: 1, Col: 1, Value: "<br/> Hello."})
	if u == nil {
		t.Fatal("no unit")
	}
	if len(u.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(u.Segments))
	}
	s := u.Segments[0]
	if s.Source != " Hello." || s.Start != 0 {
		t.Fatalf("segment = %q [%d,%d]", s.Source, s.Start, s.End)
	}
	if want := `<ph id="1" equiv="&lt;br/&gt;"/> Hello.`; s.WireSource != want {
		t.Fatalf("wire = %q, want %q", s.WireSource, want)
	}
}

func TestUnitCarriesCellMetadata(t *testing.T) {
	e := newExtractor(t, Options{})
	u := e.Unit(workbook.Cell{
		Sheet:   "Inventory",
		Row:     7,
		Col:     3,
		Value:   "In stock.",
		Header:  "Description",
		Note:    "keep short",
		StyleID: 12,
	})
	if u == nil {
		t.Fatal("no unit")
	}
	if u.Sheet != "Inventory" || u.Row != 7 || u.Col != 3 {
		t.Fatalf("position = %s!R%dC%d", u.Sheet, u.Row, u.Col)
	}
	if u.Header != "Description" || u.Note != "keep short" || u.StyleID != 12 {
		t.Fatalf("metadata = %q %q %d", u.Header, u.Note, u.StyleID)
	}
	if u.Content == nil || u.Content.Text != "In stock." {
		t.Fatalf("content = %+v", u.Content)
	}
}

func TestNewReportsConfigFindings(t *testing.T) {
	e, err := New(Options{
		Locale:   "en",
		Patterns: []string{`\{\d+\}`, `(`},
		Rules: []segment.RuleSet{{
			Locales: []string{"en"},
			Rules: []segment.Rule{
				{Break: true, Before: `[.!?]`, After: `\s`},
				{Break: true, Before: `[`},
			},
		}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	findings := e.Findings()
	if len(findings) != 2 {
		t.Fatalf("findings = %v, want 2", findings)
	}
	for _, f := range findings {
		if f.Kind != xliff.FindingConfig {
			t.Fatalf("finding kind = %v, want config", f.Kind)
		}
	}

	// The valid pattern and rule still apply.
	u := e.Unit(workbook.Cell{Sheet: "S", Row: 1, Col: 1, Value: "Use {1} here. Done."})
	if u == nil || len(u.Segments) != 2 {
		t.Fatalf("unit = %+v", u)
	}
	if !strings.Contains(u.Segments[0].WireSource, "{{t1}}") {
		t.Fatalf("wire = %q", u.Segments[0].WireSource)
	}
}

func TestNewRejectsUnknownDialect(t *testing.T) {
	if _, err := New(Options{Dialect: "3.0"}); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}

func TestDocumentCollectsUnits(t *testing.T) {
	e := newExtractor(t, Options{Dialect: xliff.Dialect12})
	doc := e.Document([]workbook.Cell{
		{Sheet: "S", Row: 1, Col: 1, Value: "One."},
		{Sheet: "S", Row: 2, Col: 1, Value: "   "},
		{Sheet: "S", Row: 3, Col: 1, Value: "Two."},
	}, "catalog.xlsx", "en")

	if doc.Dialect != xliff.Dialect12 || doc.Original != "catalog.xlsx" || doc.SourceLang != "en" {
		t.Fatalf("document header = %+v", doc)
	}
	if len(doc.Units) != 2 {
		t.Fatalf("units = %d, want 2", len(doc.Units))
	}
	if doc.Units[0].ID != "S!R1C1" || doc.Units[1].ID != "S!R3C1" {
		t.Fatalf("unit ids = %s, %s", doc.Units[0].ID, doc.Units[1].ID)
	}
}

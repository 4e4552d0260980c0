package merge

import (
	"strings"
	"testing"

	"github.com/tabliff/tabliff/extract"
	"github.com/tabliff/tabliff/workbook"
	"github.com/tabliff/tabliff/xliff"
)

func buildUnit(t *testing.T, src string, d xliff.Dialect) *xliff.Unit {
	t.Helper()
	e, err := extract.New(extract.Options{Dialect: d, Locale: "en"})
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	u := e.Unit(workbook.Cell{Sheet: "Sheet1", Row: 2, Col: 1, Value: src})
	if u == nil {
		t.Fatalf("no unit for %q", src)
	}
	return u
}

func codec(t *testing.T, d xliff.Dialect) xliff.Inline {
	t.Helper()
	c, err := d.Inline()
	if err != nil {
		t.Fatalf("inline codec: %v", err)
	}
	return c
}

// Untranslated units must reassemble to the exact original bytes.
func TestReassembleIdentity(t *testing.T) {
	sources := []string{
		"plain text only",
		"Hello world. How are you?",
		"<p>Hello <b>world</b>! Nice day.</p>",
		"<ul><li>One</li><li>Two</li></ul>",
		`Hi <a href="/shop" class="link">shop</a> now<br/>ok`,
		"<p><b><i>deep</i></b> x.</p>",
		"5 &lt; 6 &amp; <b>more</b>.",
		"<p>One. Two.</p><p>Three.</p>",
		"{count, plural, one {# item} other {# items}}",
		"<div>Unclosed div",
		"<br/> Hello.",
		"Bye.<br/>",
	}
	for _, d := range []xliff.Dialect{xliff.Dialect12, xliff.Dialect20} {
		t.Run(string(d), func(t *testing.T) {
			for _, src := range sources {
				u := buildUnit(t, src, d)
				r := Reassemble(u, codec(t, d), PolicySource)
				if r.Output != src {
					t.Errorf("Reassemble(%q) = %q, want identity", src, r.Output)
				}
				if !r.Complete {
					t.Errorf("Reassemble(%q) not complete: %v", src, r.Findings)
				}
				if len(r.Findings) != 0 {
					t.Errorf("Reassemble(%q) findings: %v", src, r.Findings)
				}
			}
		})
	}
}

func TestReassembleAppliesTargets(t *testing.T) {
	u := buildUnit(t, "<p>Hello <b>world</b>! Nice day.</p>", xliff.Dialect20)
	u.Segments[0].Target = `Hallo <pc id="1" equivStart="&lt;b&gt;" equivEnd="&lt;/b&gt;">Welt</pc>!`
	u.Segments[1].Target = "Schöner Tag."

	r := Reassemble(u, codec(t, xliff.Dialect20), PolicySource)
	want := "<p>Hallo <b>Welt</b>! Schöner Tag.</p>"
	if r.Output != want {
		t.Fatalf("output = %q, want %q", r.Output, want)
	}
	if !r.Complete || len(r.Findings) != 0 {
		t.Fatalf("complete = %v, findings = %v", r.Complete, r.Findings)
	}
}

// Text between segments is untranslatable and must come back verbatim when
// only some segments carry translations.
func TestReassembleGapRestoration(t *testing.T) {
	u := buildUnit(t, "A. B. C.", xliff.Dialect20)
	if len(u.Segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(u.Segments))
	}
	u.Segments[1].Target = "Б."

	r := Reassemble(u, codec(t, xliff.Dialect20), PolicySource)
	if want := "A. Б. C."; r.Output != want {
		t.Fatalf("output = %q, want %q", r.Output, want)
	}
	if !r.Complete {
		t.Fatalf("not complete: %v", r.Findings)
	}
}

// A marker pair the translator repositioned is emitted where they put it.
func TestReassembleMovedMarker(t *testing.T) {
	u := buildUnit(t, "<p>Hello <b>world</b>!</p>", xliff.Dialect20)
	u.Segments[0].Target = `<pc id="1" equivStart="&lt;b&gt;" equivEnd="&lt;/b&gt;">Hallo</pc> Welt!`

	r := Reassemble(u, codec(t, xliff.Dialect20), PolicySource)
	if want := "<p><b>Hallo</b> Welt!</p>"; r.Output != want {
		t.Fatalf("output = %q, want %q", r.Output, want)
	}
	if !r.Complete || len(r.Findings) != 0 {
		t.Fatalf("complete = %v, findings = %v", r.Complete, r.Findings)
	}
}

// A marker pair the translator deleted disappears from the output, with a
// finding, and no translated text is lost.
func TestReassembleDeletedMarkerPair(t *testing.T) {
	u := buildUnit(t, "<p>Hello <b>world</b>!</p>", xliff.Dialect20)
	u.Segments[0].Target = "Hallo Welt!"

	r := Reassemble(u, codec(t, xliff.Dialect20), PolicySource)
	if want := "<p>Hallo Welt!</p>"; r.Output != want {
		t.Fatalf("output = %q, want %q", r.Output, want)
	}
	if r.Complete {
		t.Fatal("expected incomplete result")
	}
	if len(r.Findings) != 1 || !strings.Contains(r.Findings[0].Message, "removed") {
		t.Fatalf("findings = %v", r.Findings)
	}
}

func TestReassembleEmptyPolicy(t *testing.T) {
	u := buildUnit(t, "A. B. C.", xliff.Dialect20)
	u.Segments[1].Target = "Б."

	r := Reassemble(u, codec(t, xliff.Dialect20), PolicyEmpty)
	if want := " Б. "; r.Output != want {
		t.Fatalf("output = %q, want %q", r.Output, want)
	}
}

// Masked placeholders come back as their original literals, following the
// positions the translator gave the tokens.
func TestReassemblePlaceholderRestoration(t *testing.T) {
	u := buildUnit(t, "{count, plural, one {# item} other {# items}}", xliff.Dialect20)
	if got := u.Segments[0].WireSource; !strings.Contains(got, "{{t1}}") {
		t.Fatalf("wire source %q carries no tokens", got)
	}
	u.Segments[0].Target = "{count, plural, one {{t2}} other {{t1}}}"

	r := Reassemble(u, codec(t, xliff.Dialect20), PolicySource)
	if want := "{count, plural, one {# items} other {# item}}"; r.Output != want {
		t.Fatalf("output = %q, want %q", r.Output, want)
	}
}

// Translated text that flows across a block boundary cannot be divided and
// stays in the first block.
func TestReassembleCrossBlockTranslation(t *testing.T) {
	u := buildUnit(t, "<p>One.</p><p>Two.</p>", xliff.Dialect20)
	if len(u.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(u.Segments))
	}
	u.Segments[0].Target = "Eins.Zwei."

	r := Reassemble(u, codec(t, xliff.Dialect20), PolicySource)
	if want := "<p>Eins.Zwei.</p><p></p>"; r.Output != want {
		t.Fatalf("output = %q, want %q", r.Output, want)
	}
	if r.Complete {
		t.Fatal("expected incomplete result")
	}
}

// A segment whose source is missing from the unit text is appended in
// order instead of being dropped.
func TestReassembleUnlocatableSegment(t *testing.T) {
	u := buildUnit(t, "Hello world!", xliff.Dialect20)
	u.Segments = append(u.Segments, xliff.Segment{
		ID:     "s9",
		Source: "zz",
		Target: "ZZ",
	})

	r := Reassemble(u, codec(t, xliff.Dialect20), PolicySource)
	if want := "Hello world!ZZ"; r.Output != want {
		t.Fatalf("output = %q, want %q", r.Output, want)
	}
	if r.Complete {
		t.Fatal("expected incomplete result")
	}
	if len(r.Findings) != 1 || r.Findings[0].Segment != "s9" {
		t.Fatalf("findings = %v", r.Findings)
	}
}

// A unit without content metadata still yields its translated text.
func TestReassembleWithoutContent(t *testing.T) {
	u := &xliff.Unit{
		ID:       "u1",
		Segments: []xliff.Segment{{ID: "s1", Target: "Zz"}},
	}

	r := Reassemble(u, codec(t, xliff.Dialect20), PolicySource)
	if r.Output != "Zz" {
		t.Fatalf("output = %q, want %q", r.Output, "Zz")
	}
	if r.Complete {
		t.Fatal("expected incomplete result")
	}
}

func TestDocumentReassemblesEveryUnit(t *testing.T) {
	e, err := extract.New(extract.Options{Dialect: xliff.Dialect20, Locale: "en"})
	if err != nil {
		t.Fatalf("extractor: %v", err)
	}
	doc := e.Document([]workbook.Cell{
		{Sheet: "Sheet1", Row: 1, Col: 1, Value: "First cell."},
		{Sheet: "Sheet1", Row: 2, Col: 1, Value: "<p>Second cell.</p>"},
	}, "demo.xlsx", "en")

	results, err := Document(doc, PolicySource)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, u := range doc.Units {
		r, ok := results[u.ID]
		if !ok {
			t.Fatalf("no result for %s", u.ID)
		}
		if !r.Complete {
			t.Errorf("unit %s incomplete: %v", u.ID, r.Findings)
		}
		if r.Output == "" {
			t.Errorf("unit %s produced empty output", u.ID)
		}
	}
}

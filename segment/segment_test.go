package segment

import (
	"reflect"
	"testing"
)

func builtin(t *testing.T) *Segmenter {
	t.Helper()
	s, errs := New("en", nil)
	if len(errs) != 0 {
		t.Fatalf("New errors: %v", errs)
	}
	return s
}

func texts(segs []Segment) []string {
	var out []string
	for _, s := range segs {
		out = append(out, s.Text)
	}
	return out
}

func TestSplitEnglishBuiltin(t *testing.T) {
	s := builtin(t)
	got := s.Split("Hello world. How are you?")

	want := []Segment{
		{Text: "Hello world.", Start: 0, End: 12},
		{Text: "How are you?", Start: 13, End: 25},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split = %#v, want %#v", got, want)
	}

	// Same input, same boundaries, every time.
	again := s.Split("Hello world. How are you?")
	if !reflect.DeepEqual(again, got) {
		t.Fatalf("repeated Split differs: %#v vs %#v", again, got)
	}
}

func TestSplitAbbreviationsSuppressBreak(t *testing.T) {
	s := builtin(t)
	got := texts(s.Split("Mr. Smith met Dr. Jones at No. 5."))
	if len(got) != 1 {
		t.Fatalf("Split = %q, want one segment", got)
	}
}

func TestSplitOffsetsRecoverGaps(t *testing.T) {
	src := "A. B. C."
	s := builtin(t)
	segs := s.Split(src)

	if got := texts(segs); !reflect.DeepEqual(got, []string{"A.", "B.", "C."}) {
		t.Fatalf("Split = %q", got)
	}
	for i, seg := range segs {
		if src[seg.Start:seg.End] != seg.Text {
			t.Fatalf("segment %d offsets [%d,%d) do not address %q", i, seg.Start, seg.End, seg.Text)
		}
		if i > 0 {
			if gap := src[segs[i-1].End:seg.Start]; gap != " " {
				t.Fatalf("gap before segment %d = %q, want %q", i, gap, " ")
			}
		}
	}
}

func TestSplitUppercaseBeyondASCII(t *testing.T) {
	s := builtin(t)
	got := texts(s.Split("Ok. Über uns."))
	want := []string{"Ok.", "Über uns."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split = %q, want %q", got, want)
	}
}

func TestSplitWhitespaceOnlyBecomesWholeText(t *testing.T) {
	s := builtin(t)
	got := s.Split("  \n\t ")
	want := []Segment{{Text: "  \n\t ", Start: 0, End: 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split = %#v, want whole text as one segment", got)
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := builtin(t)
	got := s.Split("")
	want := []Segment{{Text: "", Start: 0, End: 0}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split = %#v, want %#v", got, want)
	}
}

func TestConfiguredRuleSetMatchesLocale(t *testing.T) {
	sets := []RuleSet{{
		Locales: []string{"de.*"},
		Rules: []Rule{
			{Break: true, Before: `\.`, After: `\s`},
		},
	}}

	// Underscore form canonicalizes to de-DE before pattern matching.
	de, errs := New("de_DE", sets)
	if len(errs) != 0 {
		t.Fatalf("New errors: %v", errs)
	}
	if got := texts(de.Split("eins. zwei")); !reflect.DeepEqual(got, []string{"eins.", "zwei"}) {
		t.Fatalf("configured split = %q", got)
	}

	// Unmatched locale falls back to the built-in set, which needs an
	// uppercase continuation to break.
	fr, _ := New("fr", sets)
	if got := texts(fr.Split("eins. zwei")); len(got) != 1 {
		t.Fatalf("fallback split = %q, want one segment", got)
	}
}

func TestNewSkipsInvalidRules(t *testing.T) {
	sets := []RuleSet{{
		Locales: []string{"en"},
		Rules: []Rule{
			{Break: true, Before: `[broken`, After: `\s`},
			{Break: true, Before: `\.`, After: `\s`},
		},
	}}

	s, errs := New("en", sets)
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want exactly one", errs)
	}
	if got := texts(s.Split("a. b")); !reflect.DeepEqual(got, []string{"a.", "b"}) {
		t.Fatalf("Split = %q; valid rule should survive invalid sibling", got)
	}
}

func TestFirstMatchingRuleDecides(t *testing.T) {
	sets := []RuleSet{{
		Locales: []string{"en"},
		Rules: []Rule{
			{Break: false, Before: `-\.`, After: ``},
			{Break: true, Before: `\.`, After: ``},
		},
	}}
	s, errs := New("en", sets)
	if len(errs) != 0 {
		t.Fatalf("New errors: %v", errs)
	}

	// "x-." hits the suppression rule first; "x." reaches the break rule.
	if got := texts(s.Split("x-. y")); len(got) != 1 {
		t.Fatalf("Split = %q, want suppression to win", got)
	}
	if got := texts(s.Split("x. y")); len(got) != 2 {
		t.Fatalf("Split = %q, want a break", got)
	}
}

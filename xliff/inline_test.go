package xliff

import (
	"reflect"
	"testing"

	"github.com/tabliff/tabliff/markup"
)

func sampleSpans() []markup.Span {
	return []markup.Span{
		{ID: 1, Name: "b", RawOpen: "<b>", RawClose: "</b>"},
		{ID: 2, Name: "a",
			Attrs:    []markup.Attr{{Name: "href", Value: "/shop"}, {Name: "class", Value: "link"}},
			RawOpen:  `<a href="/shop" class="link">`,
			RawClose: "</a>"},
		{ID: 3, Name: "br", RawOpen: "<br/>", Standalone: true},
	}
}

// shape strips the recovered tag literals so decoded streams can be
// compared against their pre-encode form.
func shape(events []Event) []Event {
	out := make([]Event, len(events))
	for i, ev := range events {
		out[i] = Event{Kind: ev.Kind, Text: ev.Text, Span: ev.Span}
	}
	return out
}

func TestCompactEncode(t *testing.T) {
	enc, err := Dialect12.Inline()
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	events := []Event{
		{Kind: EventText, Text: "Hi "},
		{Kind: EventOpen, Span: 1},
		{Kind: EventText, Text: "bold"},
		{Kind: EventClose, Span: 1},
		{Kind: EventText, Text: " & "},
		{Kind: EventOpen, Span: 2},
		{Kind: EventText, Text: "shop"},
		{Kind: EventClose, Span: 2},
		{Kind: EventSelf, Span: 3},
	}
	got := enc.Encode(events, sampleSpans())
	want := `Hi <g id="1" ctype="bold">bold</g> &amp; <g id="2" ctype="link">shop</g><x id="3" ctype="lb"/>`
	if got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
}

func TestVerbatimEncode(t *testing.T) {
	enc, err := Dialect20.Inline()
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	events := []Event{
		{Kind: EventText, Text: "Hi "},
		{Kind: EventOpen, Span: 2},
		{Kind: EventText, Text: "shop"},
		{Kind: EventClose, Span: 2},
	}
	got := enc.Encode(events, sampleSpans())
	want := `Hi <pc id="2" equivStart="&lt;a href=&quot;/shop&quot; class=&quot;link&quot;&gt;" equivEnd="&lt;/a&gt;">shop</pc>`
	if got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
}

func TestDecodeIsEncodeInverse(t *testing.T) {
	events := []Event{
		{Kind: EventText, Text: "5 < 6 & \"q\" "},
		{Kind: EventOpen, Span: 1},
		{Kind: EventText, Text: "bold"},
		{Kind: EventClose, Span: 1},
		{Kind: EventSelf, Span: 3},
		{Kind: EventText, Text: " end"},
	}
	for _, d := range []Dialect{Dialect12, Dialect20} {
		codec, err := d.Inline()
		if err != nil {
			t.Fatalf("Inline(%s): %v", d, err)
		}
		wire := codec.Encode(events, sampleSpans())
		decoded, findings := codec.Decode(wire, sampleSpans(), "u1", "s1")
		if len(findings) != 0 {
			t.Fatalf("dialect %s: findings = %v", d, findings)
		}
		if !reflect.DeepEqual(shape(decoded), events) {
			t.Fatalf("dialect %s: decoded = %#v, want %#v", d, shape(decoded), events)
		}
	}
}

func TestVerbatimDecodeRecoversExactTagLiterals(t *testing.T) {
	codec, _ := Dialect20.Inline()
	events := []Event{
		{Kind: EventOpen, Span: 2},
		{Kind: EventText, Text: "text"},
		{Kind: EventClose, Span: 2},
	}
	wire := codec.Encode(events, sampleSpans())

	// Decode with an empty span table: the marker alone must carry the
	// exact original tag, attribute order and quoting included.
	decoded, findings := codec.Decode(wire, nil, "u1", "s1")
	if len(findings) != 0 {
		t.Fatalf("findings = %v", findings)
	}
	if len(decoded) != 3 {
		t.Fatalf("decoded = %#v", decoded)
	}
	if got := decoded[0].RawOpen; got != `<a href="/shop" class="link">` {
		t.Fatalf("RawOpen = %q", got)
	}
	if got := decoded[2].RawClose; got != "</a>" {
		t.Fatalf("RawClose = %q", got)
	}
}

func TestDecodeNestedSameTypeMarkers(t *testing.T) {
	spans := []markup.Span{
		{ID: 1, Name: "b", RawOpen: "<b>", RawClose: "</b>"},
		{ID: 2, Name: "b", RawOpen: "<b>", RawClose: "</b>"},
	}
	for _, d := range []Dialect{Dialect12, Dialect20} {
		codec, _ := d.Inline()
		events := []Event{
			{Kind: EventOpen, Span: 1},
			{Kind: EventText, Text: "out"},
			{Kind: EventOpen, Span: 2},
			{Kind: EventText, Text: "in"},
			{Kind: EventClose, Span: 2},
			{Kind: EventText, Text: "er"},
			{Kind: EventClose, Span: 1},
		}
		wire := codec.Encode(events, spans)
		decoded, findings := codec.Decode(wire, spans, "u1", "s1")
		if len(findings) != 0 {
			t.Fatalf("dialect %s: findings = %v", d, findings)
		}
		if !reflect.DeepEqual(shape(decoded), events) {
			t.Fatalf("dialect %s: nesting lost: %#v", d, shape(decoded))
		}
	}
}

func TestDecodeUnterminatedMarkerDegradesToText(t *testing.T) {
	codec, _ := Dialect20.Inline()
	wire := `a <pc id="1" equivStart="&lt;b&gt;" equivEnd="&lt;/b&gt;">bold`

	decoded, findings := codec.Decode(wire, sampleSpans(), "u1", "s1")
	if len(findings) != 1 || findings[0].Kind != FindingStructural {
		t.Fatalf("findings = %v, want one structural", findings)
	}
	want := []Event{{Kind: EventText, Text: `a <pc id="1" equivStart="<b>" equivEnd="</b>">bold`}}
	if !reflect.DeepEqual(decoded, want) {
		t.Fatalf("decoded = %#v, want %#v", decoded, want)
	}
}

func TestDecodeOrphanCloseDegradesToText(t *testing.T) {
	codec, _ := Dialect12.Inline()
	decoded, findings := codec.Decode("text</g> tail", sampleSpans(), "u1", "s1")

	if len(findings) != 1 || findings[0].Kind != FindingStructural {
		t.Fatalf("findings = %v, want one structural", findings)
	}
	want := []Event{{Kind: EventText, Text: "text</g> tail"}}
	if !reflect.DeepEqual(decoded, want) {
		t.Fatalf("decoded = %#v, want %#v", decoded, want)
	}
}

func TestDecodeForeignElementStaysLiteral(t *testing.T) {
	codec, _ := Dialect12.Inline()
	decoded, findings := codec.Decode("a <b>x</b> z", sampleSpans(), "u1", "s1")

	if len(findings) != 2 {
		t.Fatalf("findings = %v, want two", findings)
	}
	want := []Event{{Kind: EventText, Text: "a <b>x</b> z"}}
	if !reflect.DeepEqual(decoded, want) {
		t.Fatalf("decoded = %#v, want %#v", decoded, want)
	}
}

func TestCompactDecodeReconstructsFromClassifier(t *testing.T) {
	codec, _ := Dialect12.Inline()
	decoded, findings := codec.Decode(`<g id="7" ctype="bold">x</g><x id="8" ctype="lb"/>`, nil, "u1", "s1")

	if len(findings) != 0 {
		t.Fatalf("findings = %v", findings)
	}
	if len(decoded) != 4 {
		t.Fatalf("decoded = %#v", decoded)
	}
	if decoded[0].RawOpen != "<b>" || decoded[2].RawClose != "</b>" {
		t.Fatalf("reconstructed pair = %q %q", decoded[0].RawOpen, decoded[2].RawClose)
	}
	if decoded[3].RawOpen != "<br/>" {
		t.Fatalf("reconstructed standalone = %q", decoded[3].RawOpen)
	}
}

func TestInlineUnknownDialect(t *testing.T) {
	if _, err := Dialect("3.0").Inline(); err == nil {
		t.Fatalf("Inline accepted an unknown dialect")
	}
}

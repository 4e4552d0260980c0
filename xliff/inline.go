package xliff

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tabliff/tabliff/markup"
)

// Event is one item of a wire text stream: a run of plain text or an
// inline span marker.
type Event struct {
	Kind EventKind

	// Text is the unescaped text of an EventText.
	Text string

	// Span is the span table id the marker refers to.
	Span int

	// RawOpen and RawClose are original tag literals recovered from the
	// marker itself where the dialect carries them, or a classifier-derived
	// reconstruction when the compact dialect's span table lost the id.
	// Empty when the span table is the authority.
	RawOpen  string
	RawClose string
}

// EventKind discriminates Event variants.
type EventKind int

const (
	EventText EventKind = iota
	EventOpen
	EventClose
	EventSelf
)

// Inline is the span marker codec for one wire dialect, chosen once at
// pipeline construction. Decode returns the marker/text sequence Encode
// produced; the attribute-preserving dialect additionally recovers the tag
// literals onto the events.
type Inline interface {
	// Encode renders events as wire markup, resolving span ids against the
	// span table.
	Encode(events []Event, spans []markup.Span) string

	// Decode parses wire text back into events. Unmatched or malformed
	// markers degrade to literal text and are reported as structural
	// findings tagged with the given unit and segment ids; Decode never
	// fails.
	Decode(wire string, spans []markup.Span, unitID, segID string) ([]Event, []Finding)
}

// Inline returns the marker codec for the dialect.
func (d Dialect) Inline() (Inline, error) {
	switch d {
	case Dialect12:
		return compactInline{}, nil
	case Dialect20:
		return verbatimInline{}, nil
	}
	return nil, fmt.Errorf("unknown interchange dialect %q", d)
}

// ---- escaping ----

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#13;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\r", "&#13;", "\n", "&#10;", "\t", "&#9;")
)

// escapeText escapes s for XML character data. Carriage returns become
// character references so XML line-end normalization cannot eat them.
func escapeText(s string) string { return textEscaper.Replace(s) }

// escapeAttr escapes s for a double-quoted attribute value, keeping
// whitespace byte-exact through attribute-value normalization.
func escapeAttr(s string) string { return attrEscaper.Replace(s) }

// ---- compact dialect (1.2) ----

// ctypes classifies common inline tags for the compact dialect's markers,
// per the 1.2 inline element vocabulary. Anything else gets an x- prefix.
var ctypes = map[string]string{
	"b": "bold", "strong": "bold",
	"i": "italic", "em": "italic",
	"u":   "underline",
	"a":   "link",
	"img": "image",
	"br":  "lb",
}

// ctypeTags reverses ctypes for side-channel-less decoding, picking one
// canonical tag per classifier.
var ctypeTags = map[string]string{
	"bold": "b", "italic": "i", "underline": "u",
	"link": "a", "image": "img", "lb": "br",
}

func ctypeOf(name string) string {
	if c, ok := ctypes[name]; ok {
		return c
	}
	return "x-" + name
}

func tagForCtype(c string) string {
	if t, ok := ctypeTags[c]; ok {
		return t
	}
	if name, ok := strings.CutPrefix(c, "x-"); ok && name != "" {
		return name
	}
	return "span"
}

type compactInline struct{}

func (compactInline) Encode(events []Event, spans []markup.Span) string {
	var b strings.Builder
	for _, ev := range events {
		switch ev.Kind {
		case EventText:
			b.WriteString(escapeText(ev.Text))
		case EventOpen:
			fmt.Fprintf(&b, `<g id="%d" ctype="%s">`, ev.Span, ctypeOf(spanName(spans, ev.Span)))
		case EventClose:
			b.WriteString("</g>")
		case EventSelf:
			fmt.Fprintf(&b, `<x id="%d" ctype="%s"/>`, ev.Span, ctypeOf(spanName(spans, ev.Span)))
		}
	}
	return b.String()
}

func (compactInline) Decode(wire string, spans []markup.Span, unitID, segID string) ([]Event, []Finding) {
	return decodeWire(wire, "g", "x", spans, unitID, segID, compactEvent)
}

// compactEvent builds a marker event from a <g>/<x> tag. The id attribute
// keys the span table; when the table lost the id, a plain tag pair is
// reconstructed from the ctype classifier so merge still has something to
// emit.
func compactEvent(kind EventKind, attrs []markup.Attr, spans []markup.Span) (Event, bool) {
	id, ok := markerID(attrs)
	if !ok {
		return Event{}, false
	}
	ev := Event{Kind: kind, Span: id}
	if spanAt(spans, id) == nil {
		name := tagForCtype(attrValue(attrs, "ctype"))
		if kind == EventSelf {
			ev.RawOpen = "<" + name + "/>"
		} else {
			ev.RawOpen, ev.RawClose = "<"+name+">", "</"+name+">"
		}
	}
	return ev, true
}

// ---- verbatim dialect (2.0) ----

type verbatimInline struct{}

func (verbatimInline) Encode(events []Event, spans []markup.Span) string {
	var b strings.Builder
	for _, ev := range events {
		switch ev.Kind {
		case EventText:
			b.WriteString(escapeText(ev.Text))
		case EventOpen:
			fmt.Fprintf(&b, `<pc id="%d" equivStart="%s" equivEnd="%s">`,
				ev.Span, escapeAttr(OpenLiteral(spans, ev)), escapeAttr(CloseLiteral(spans, ev)))
		case EventClose:
			b.WriteString("</pc>")
		case EventSelf:
			fmt.Fprintf(&b, `<ph id="%d" equiv="%s"/>`, ev.Span, escapeAttr(OpenLiteral(spans, ev)))
		}
	}
	return b.String()
}

func (verbatimInline) Decode(wire string, spans []markup.Span, unitID, segID string) ([]Event, []Finding) {
	return decodeWire(wire, "pc", "ph", spans, unitID, segID, verbatimEvent)
}

// verbatimEvent builds a marker event from a <pc>/<ph> tag, reading the
// original tag literals back off the marker attributes.
func verbatimEvent(kind EventKind, attrs []markup.Attr, _ []markup.Span) (Event, bool) {
	id, ok := markerID(attrs)
	if !ok {
		return Event{}, false
	}
	ev := Event{Kind: kind, Span: id}
	if kind == EventSelf {
		ev.RawOpen = attrValue(attrs, "equiv")
	} else {
		ev.RawOpen = attrValue(attrs, "equivstart")
		ev.RawClose = attrValue(attrs, "equivend")
	}
	return ev, true
}

// ---- shared wire scanning ----

// decodeWire scans wire with the lenient HTML tokenizer, turning paired and
// standalone marker tags into events and everything else into literal text.
// Stack-based close matching keeps arbitrary marker nesting intact: a close
// tag always pairs with the innermost open marker, so bold-in-bold survives.
// An open marker that never closes degrades everything from the marker
// onward into literal text; an orphan close degrades in place. Both are
// reported as structural findings, never as errors.
func decodeWire(wire, paired, standalone string, spans []markup.Span, unitID, segID string, build func(EventKind, []markup.Attr, []markup.Span) (Event, bool)) ([]Event, []Finding) {
	type openRef struct {
		event  int // index into events
		offset int // byte offset of the marker in wire
	}
	var (
		events   []Event
		findings []Finding
		stack    []openRef
		offset   int
	)

	appendText := func(text string) {
		if text == "" {
			return
		}
		if n := len(events); n > 0 && events[n-1].Kind == EventText {
			events[n-1].Text += text
			return
		}
		events = append(events, Event{Kind: EventText, Text: text})
	}
	finding := func(format string, args ...any) {
		findings = append(findings, Finding{
			Kind: FindingStructural, Unit: unitID, Segment: segID,
			Message: fmt.Sprintf(format, args...),
		})
	}

	z := html.NewTokenizer(strings.NewReader(wire))
	for {
		tt := z.Next()
		raw := string(z.Raw())
		start := offset
		offset += len(raw)

		switch tt {
		case html.ErrorToken:
			if len(stack) > 0 {
				// Unterminated marker: literal text from the orphan open
				// onward, replacing whatever was parsed after it.
				first := stack[0]
				events = events[:first.event]
				appendText(html.UnescapeString(wire[first.offset:]))
				finding("unterminated <%s> marker left as literal text", paired)
			}
			return events, findings

		case html.TextToken:
			appendText(string(z.Text()))

		case html.StartTagToken:
			name, attrs := tagAttrs(z)
			switch name {
			case paired:
				ev, ok := build(EventOpen, attrs, spans)
				if !ok {
					appendText(raw)
					finding("<%s> marker without id kept as literal text", name)
					continue
				}
				stack = append(stack, openRef{event: len(events), offset: start})
				events = append(events, ev)
			case standalone:
				ev, ok := build(EventSelf, attrs, spans)
				if !ok {
					appendText(raw)
					finding("<%s> marker without id kept as literal text", name)
					continue
				}
				events = append(events, ev)
			default:
				appendText(raw)
				finding("unexpected <%s> element kept as literal text", name)
			}

		case html.SelfClosingTagToken:
			name, attrs := tagAttrs(z)
			kind := EventSelf
			if name == paired {
				// Self-closed pair marker: an empty span.
				kind = EventOpen
			} else if name != standalone {
				appendText(raw)
				finding("unexpected <%s> element kept as literal text", name)
				continue
			}
			ev, ok := build(kind, attrs, spans)
			if !ok {
				appendText(raw)
				finding("<%s> marker without id kept as literal text", name)
				continue
			}
			events = append(events, ev)
			if kind == EventOpen {
				events = append(events, Event{Kind: EventClose, Span: ev.Span, RawOpen: ev.RawOpen, RawClose: ev.RawClose})
			}

		case html.EndTagToken:
			name, _ := tagAttrs(z)
			if name != paired {
				appendText(raw)
				finding("unexpected </%s> element kept as literal text", name)
				continue
			}
			if len(stack) == 0 {
				appendText(raw)
				finding("orphan </%s> marker kept as literal text", paired)
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			open := events[top.event]
			events = append(events, Event{Kind: EventClose, Span: open.Span, RawOpen: open.RawOpen, RawClose: open.RawClose})

		case html.CommentToken, html.DoctypeToken:
			appendText(raw)
		}
	}
}

// tagAttrs reads the current tag token's lower-cased name and attributes.
// Must be called after copying z.Raw().
func tagAttrs(z *html.Tokenizer) (string, []markup.Attr) {
	nameBytes, hasAttr := z.TagName()
	name := string(nameBytes)
	var attrs []markup.Attr
	for hasAttr {
		k, v, more := z.TagAttr()
		attrs = append(attrs, markup.Attr{Name: string(k), Value: string(v)})
		hasAttr = more
	}
	return name, attrs
}

// ---- span table helpers ----

// spanAt returns the span table entry for id, or nil.
func spanAt(spans []markup.Span, id int) *markup.Span {
	for i := range spans {
		if spans[i].ID == id {
			return &spans[i]
		}
	}
	return nil
}

func spanName(spans []markup.Span, id int) string {
	if sp := spanAt(spans, id); sp != nil {
		return sp.Name
	}
	return "span"
}

// OpenLiteral resolves the opening tag literal for a marker event: the span
// table wins, the event's own recovered literal is the fallback.
func OpenLiteral(spans []markup.Span, ev Event) string {
	if sp := spanAt(spans, ev.Span); sp != nil {
		return sp.RawOpen
	}
	return ev.RawOpen
}

// CloseLiteral is the closing counterpart of OpenLiteral.
func CloseLiteral(spans []markup.Span, ev Event) string {
	if sp := spanAt(spans, ev.Span); sp != nil {
		return sp.RawClose
	}
	return ev.RawClose
}

func markerID(attrs []markup.Attr) (int, bool) {
	for _, a := range attrs {
		if a.Name == "id" {
			n, err := strconv.Atoi(a.Value)
			return n, err == nil && n >= 1
		}
	}
	return 0, false
}

func attrValue(attrs []markup.Attr, name string) string {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

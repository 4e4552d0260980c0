// Package merge reassembles translated units back into original cell
// content, inverting the decomposition performed at extraction time.
package merge

import (
	"fmt"
	"strings"

	"github.com/tabliff/tabliff/markup"
	"github.com/tabliff/tabliff/protect"
	"github.com/tabliff/tabliff/xliff"
)

// Policy selects the effective text for a segment that has no translation.
type Policy string

const (
	// PolicySource falls back to the untranslated source text.
	PolicySource Policy = "source"
	// PolicyEmpty drops untranslated segments from the output.
	PolicyEmpty Policy = "empty"
)

// Valid reports whether p names a known fallback policy.
func (p Policy) Valid() bool {
	return p == PolicySource || p == PolicyEmpty
}

// Result is the outcome of reassembling a single unit.
type Result struct {
	// Output is the rebuilt content string.
	Output string
	// Complete reports whether the skeleton was replayed without any
	// degraded recovery. Translations that keep every marker in place
	// leave it true; dropped markers, unlocatable segment sources and
	// malformed target markup clear it.
	Complete bool
	// Findings collects everything recovered or dropped along the way.
	Findings []xliff.Finding
}

// Reassemble rebuilds one unit's content from its translated segments.
//   - Each segment resolves to its target text, or per policy to its
//     source or to nothing when no translation arrived.
//   - Inline markers are decoded with codec and placeholder tokens are
//     restored from the segment's token table.
//   - Untranslatable text between segments is recovered from the unit
//     source and reinserted verbatim.
//   - The skeleton then replays block literals and inline tags around the
//     translated text, honouring markers the translator moved and dropping
//     pairs the translator deleted.
//
// Reassemble never fails: malformed input degrades to findings on the
// result and the output keeps every piece of translated text.
func Reassemble(u *xliff.Unit, codec xliff.Inline, policy Policy) Result {
	a := &assembler{unit: u, codec: codec, policy: policy}
	out := a.substitute(a.stream())
	return Result{Output: out, Complete: !a.degraded, Findings: a.findings}
}

// Document reassembles every unit of a document, keyed by unit ID.
func Document(doc *xliff.Document, policy Policy) (map[string]Result, error) {
	codec, err := doc.Dialect.Inline()
	if err != nil {
		return nil, err
	}
	results := make(map[string]Result, len(doc.Units))
	for _, u := range doc.Units {
		results[u.ID] = Reassemble(u, codec, policy)
	}
	return results, nil
}

type assembler struct {
	unit     *xliff.Unit
	codec    xliff.Inline
	policy   Policy
	findings []xliff.Finding
	degraded bool
}

func (a *assembler) structural(segID, msg string) {
	a.degraded = true
	a.findings = append(a.findings, xliff.Finding{
		Kind:    xliff.FindingStructural,
		Unit:    a.unit.ID,
		Segment: segID,
		Message: msg,
	})
}

func (a *assembler) spans() []markup.Span {
	if a.unit.Content == nil {
		return nil
	}
	return a.unit.Content.Spans
}

// ---- segment resolution ----

// stream decodes every segment into one ordered event sequence, restoring
// placeholder tokens and the untranslatable text between segments. Segment
// sources are located in the unit text from the last consumed position
// onward; the first occurrence wins. An empty gap between two located
// segments becomes a single space so translated words cannot join.
func (a *assembler) stream() []xliff.Event {
	text := ""
	if a.unit.Content != nil {
		text = a.unit.Content.Text
	}
	var events []xliff.Event
	consumed := 0
	located := false
	for _, s := range a.unit.Segments {
		if s.Source != "" {
			if at := strings.Index(text[consumed:], s.Source); at >= 0 {
				gap := text[consumed : consumed+at]
				if gap == "" && located {
					gap = " "
				}
				events = appendText(events, gap)
				consumed += at + len(s.Source)
				located = true
			} else {
				a.structural(s.ID, "segment source not found in unit text; appended without gap recovery")
			}
		} else if text != "" {
			a.structural(s.ID, "segment has no source text; appended without gap recovery")
		}
		events = appendEvents(events, a.resolve(s)...)
	}
	if consumed < len(text) {
		events = appendText(events, text[consumed:])
	}
	return events
}

// resolve produces the decoded, unmasked event sequence for one segment.
func (a *assembler) resolve(s xliff.Segment) []xliff.Event {
	wire := s.Target
	if wire == "" && a.policy != PolicyEmpty {
		if s.WireSource == "" {
			if s.Source == "" {
				return nil
			}
			return []xliff.Event{{Kind: xliff.EventText, Text: s.Source}}
		}
		wire = s.WireSource
	}
	if wire == "" {
		return nil
	}
	events, findings := a.codec.Decode(wire, a.spans(), a.unit.ID, s.ID)
	if len(findings) > 0 {
		a.degraded = true
		a.findings = append(a.findings, findings...)
	}
	for i := range events {
		if events[i].Kind == xliff.EventText {
			events[i].Text = protect.Unmask(events[i].Text, s.Tokens)
		}
	}
	return events
}

// ---- skeleton substitution ----

// substitute replays the skeleton around the translated event stream.
// Literal pieces pass through untouched. Text slots consume the stream in
// order. Marker pieces align with their events where the translator kept
// them in place; moved markers are emitted where the translator put them
// instead, and deleted pairs are dropped with a finding. Anything left in
// the stream after the last slot is flushed before the trailing literals.
func (a *assembler) substitute(stream []xliff.Event) string {
	var out strings.Builder
	if a.unit.Content == nil {
		a.structural("", "unit has no content metadata; emitting translation without structure")
		a.flush(&out, stream, 0)
		return out.String()
	}
	sk := a.unit.Content.Skeleton
	last := -1
	for i, p := range sk {
		if p.Kind != markup.PieceLiteral {
			last = i
		}
	}
	pos := 0
	for i, p := range sk {
		switch p.Kind {
		case markup.PieceLiteral:
			out.WriteString(p.Text)
		case markup.PieceText:
			pos = a.consumeSlot(&out, stream, pos, i)
		case markup.PieceOpen:
			pos = a.alignMarker(&out, stream, pos, xliff.EventOpen, p.Span)
		case markup.PieceClose:
			pos = a.alignMarker(&out, stream, pos, xliff.EventClose, p.Span)
		case markup.PieceSelf:
			pos = a.alignMarker(&out, stream, pos, xliff.EventSelf, p.Span)
		}
		if i == last {
			pos = a.flush(&out, stream, pos)
		}
	}
	if last < 0 {
		a.flush(&out, stream, 0)
	}
	return out.String()
}

// consumeSlot writes the stream's text into one skeleton text slot. When
// the next skeleton piece is a marker, text is consumed up to that marker's
// event. When another text slot follows directly, the slot takes exactly
// its original chunk while the stream still starts with it, and otherwise
// keeps the whole run with a finding: translated text cannot be split
// across block boundaries reliably. Marker events that belong elsewhere
// were moved here by the translator and are emitted in place.
func (a *assembler) consumeSlot(out *strings.Builder, stream []xliff.Event, pos, piece int) int {
	c := a.unit.Content
	next, more := nextContentPiece(c.Skeleton, piece+1)
	divide := more && next.Kind == markup.PieceText
	for pos < len(stream) {
		ev := stream[pos]
		if ev.Kind != xliff.EventText {
			if more && !divide && ev.Kind == eventKind(next.Kind) && ev.Span == next.Span {
				return pos
			}
			a.emitMarker(out, ev)
			pos++
			continue
		}
		if divide {
			chunk := c.Chunk(c.Skeleton[piece].Slot)
			if strings.HasPrefix(ev.Text, chunk) {
				out.WriteString(chunk)
				if rest := ev.Text[len(chunk):]; rest != "" {
					stream[pos].Text = rest
					return pos
				}
				return pos + 1
			}
			a.structural("", "translated text crosses a block boundary; kept in the first block")
			divide = false
			continue
		}
		out.WriteString(ev.Text)
		pos++
	}
	return pos
}

// alignMarker emits the marker a skeleton piece expects. Three cases: the
// stream cursor is already on the event, the event sits further ahead
// because the translator moved it into later text and it will be emitted
// there, or it is gone from the stream entirely because the translator
// deleted it. Close markers follow the fate of their open silently.
func (a *assembler) alignMarker(out *strings.Builder, stream []xliff.Event, pos int, kind xliff.EventKind, span int) int {
	at := findEvent(stream, pos, kind, span)
	if at == pos {
		a.emitMarker(out, stream[pos])
		return pos + 1
	}
	if at >= 0 {
		return pos
	}
	if kind != xliff.EventClose && findEvent(stream, 0, kind, span) < 0 {
		a.structural("", fmt.Sprintf("inline span %d removed in translation", span))
	}
	return pos
}

func (a *assembler) emitMarker(out *strings.Builder, ev xliff.Event) {
	if ev.Kind == xliff.EventClose {
		out.WriteString(xliff.CloseLiteral(a.spans(), ev))
		return
	}
	out.WriteString(xliff.OpenLiteral(a.spans(), ev))
}

// flush drains whatever the translator wrote beyond the last slot.
func (a *assembler) flush(out *strings.Builder, stream []xliff.Event, pos int) int {
	for ; pos < len(stream); pos++ {
		if ev := stream[pos]; ev.Kind == xliff.EventText {
			out.WriteString(ev.Text)
		} else {
			a.emitMarker(out, stream[pos])
		}
	}
	return pos
}

// ---- helpers ----

// appendText adds a text event, coalescing with a trailing text event so
// that chunk matching in consumeSlot sees maximal runs.
func appendText(events []xliff.Event, text string) []xliff.Event {
	if text == "" {
		return events
	}
	if n := len(events); n > 0 && events[n-1].Kind == xliff.EventText {
		events[n-1].Text += text
		return events
	}
	return append(events, xliff.Event{Kind: xliff.EventText, Text: text})
}

func appendEvents(events []xliff.Event, more ...xliff.Event) []xliff.Event {
	for _, ev := range more {
		if ev.Kind == xliff.EventText {
			events = appendText(events, ev.Text)
			continue
		}
		events = append(events, ev)
	}
	return events
}

// nextContentPiece returns the first non-literal piece at or after from.
func nextContentPiece(sk []markup.Piece, from int) (markup.Piece, bool) {
	for _, p := range sk[from:] {
		if p.Kind != markup.PieceLiteral {
			return p, true
		}
	}
	return markup.Piece{}, false
}

func eventKind(k markup.PieceKind) xliff.EventKind {
	switch k {
	case markup.PieceOpen:
		return xliff.EventOpen
	case markup.PieceClose:
		return xliff.EventClose
	default:
		return xliff.EventSelf
	}
}

func findEvent(stream []xliff.Event, from int, kind xliff.EventKind, span int) int {
	for i := from; i < len(stream); i++ {
		if stream[i].Kind == kind && stream[i].Span == span {
			return i
		}
	}
	return -1
}

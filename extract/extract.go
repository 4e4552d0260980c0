// Package extract builds translation units from workbook cells. Cell
// markup is decomposed into skeleton and flat text, the text is segmented,
// placeholders are masked per segment and inline markup is encoded into
// the wire form translators see.
package extract

import (
	"strconv"
	"strings"

	"github.com/tabliff/tabliff/markup"
	"github.com/tabliff/tabliff/protect"
	"github.com/tabliff/tabliff/segment"
	"github.com/tabliff/tabliff/workbook"
	"github.com/tabliff/tabliff/xliff"
)

// Options configures an Extractor.
type Options struct {
	// Dialect selects the inline markup encoding.
	Dialect xliff.Dialect
	// Locale drives segmentation rule selection.
	Locale string
	// Rules are segmentation rule sets; built-in rules apply when none
	// match the locale.
	Rules []segment.RuleSet
	// Patterns are placeholder regular expressions to protect.
	Patterns []string
	// InlineTags overrides the default set of tags treated as inline.
	InlineTags map[string]bool
}

// Extractor turns workbook cells into translation units.
type Extractor struct {
	dialect  xliff.Dialect
	codec    xliff.Inline
	seg      *segment.Segmenter
	prot     *protect.Protector
	inline   map[string]bool
	findings []xliff.Finding
}

// New builds an Extractor. Invalid segmentation rules and placeholder
// patterns are skipped and reported as config findings; only an unknown
// dialect fails construction.
func New(opts Options) (*Extractor, error) {
	d := opts.Dialect
	if d == "" {
		d = xliff.DefaultDialect
	}
	codec, err := d.Inline()
	if err != nil {
		return nil, err
	}
	e := &Extractor{dialect: d, codec: codec, inline: opts.InlineTags}

	var errs []error
	e.seg, errs = segment.New(opts.Locale, opts.Rules)
	for _, err := range errs {
		e.config("segmentation: " + err.Error())
	}
	e.prot, errs = protect.New(opts.Patterns)
	for _, err := range errs {
		e.config("placeholder pattern: " + err.Error())
	}
	return e, nil
}

// Findings reports configuration problems found while building the
// extractor. The offending rules were skipped, not fatal.
func (e *Extractor) Findings() []xliff.Finding { return e.findings }

func (e *Extractor) config(msg string) {
	e.findings = append(e.findings, xliff.Finding{Kind: xliff.FindingConfig, Message: msg})
}

// Document builds one XLIFF document from workbook cells. Cells without
// translatable text produce no unit.
func (e *Extractor) Document(cells []workbook.Cell, original, sourceLang string) *xliff.Document {
	doc := &xliff.Document{
		Dialect:    e.dialect,
		Original:   original,
		SourceLang: sourceLang,
	}
	for _, c := range cells {
		if u := e.Unit(c); u != nil {
			doc.Units = append(doc.Units, u)
		}
	}
	return doc
}

// Unit builds the translation unit for one cell, or nil when the cell has
// no translatable text. Segments are widened until every inline span fits
// one segment whole, so marker pairs never split across the wire.
func (e *Extractor) Unit(c workbook.Cell) *xliff.Unit {
	dec := markup.Decompose(c.Value, markup.Options{InlineTags: e.inline})
	if strings.TrimSpace(dec.Text) == "" {
		return nil
	}
	segs := fitSegments(dec.Text, e.seg.Split(dec.Text), dec.Spans)
	claims := assignSpans(segs, dec.Spans)

	u := &xliff.Unit{
		ID:      xliff.UnitID(c.Sheet, c.Row, c.Col),
		Sheet:   c.Sheet,
		Row:     c.Row,
		Col:     c.Col,
		Header:  c.Header,
		Note:    c.Note,
		StyleID: c.StyleID,
		Content: dec,
	}
	for i, s := range segs {
		run := e.prot.Run(dec.Text)
		events := segmentEvents(dec, s.Start, s.End, claims[i])
		for j := range events {
			if events[j].Kind == xliff.EventText {
				events[j].Text = run.Mask(events[j].Text)
			}
		}
		seg := xliff.Segment{
			ID:         "s" + strconv.Itoa(i+1),
			Source:     s.Text,
			WireSource: e.codec.Encode(events, dec.Spans),
			Start:      s.Start,
			End:        s.End,
		}
		if tokens := run.Tokens(); len(tokens) > 0 {
			seg.Tokens = tokens
		}
		u.Segments = append(u.Segments, seg)
	}
	return u
}

// ---- span fitting ----

// fitSegments widens segments until every inline span falls inside a
// single segment. Merged segments keep the text between them verbatim;
// spans reaching before the first segment or past the last stretch it.
func fitSegments(text string, segs []segment.Segment, spans []markup.Span) []segment.Segment {
	if len(spans) == 0 || len(segs) == 0 {
		return segs
	}
	out := make([]segment.Segment, 0, len(segs))
	for _, s := range segs {
		out = append(out, s)
		for len(out) > 1 && straddles(out[len(out)-2], out[len(out)-1], spans) {
			a, b := out[len(out)-2], out[len(out)-1]
			out = out[:len(out)-1]
			out[len(out)-1] = segment.Segment{Text: text[a.Start:b.End], Start: a.Start, End: b.End}
		}
	}
	first, last := &out[0], &out[len(out)-1]
	for _, sp := range spans {
		if sp.Start < first.Start {
			first.Start = sp.Start
		}
		if sp.End > last.End {
			last.End = sp.End
		}
	}
	first.Text = text[first.Start:first.End]
	last.Text = text[last.Start:last.End]
	return out
}

// straddles reports whether any span needs text from both a and b.
func straddles(a, b segment.Segment, spans []markup.Span) bool {
	for _, sp := range spans {
		if sp.Start < b.Start && sp.End > a.End {
			return true
		}
	}
	return false
}

// assignSpans gives each span to the first segment that can carry its
// markers whole.
func assignSpans(segs []segment.Segment, spans []markup.Span) []map[int]bool {
	claims := make([]map[int]bool, len(segs))
	for i := range claims {
		claims[i] = map[int]bool{}
	}
	for _, sp := range spans {
		for i, s := range segs {
			if s.Start <= sp.Start && sp.End <= s.End {
				claims[i][sp.ID] = true
				break
			}
		}
	}
	return claims
}

// segmentEvents cuts the decomposition's flat-text range into the event
// sequence a segment carries on the wire. Only claimed spans contribute
// marker events.
func segmentEvents(dec *markup.Decomposition, start, end int, claimed map[int]bool) []xliff.Event {
	var events []xliff.Event
	off := 0
	for _, p := range dec.Skeleton {
		switch p.Kind {
		case markup.PieceText:
			chunk := dec.Chunk(p.Slot)
			lo := off
			off += len(chunk)
			from, to := lo, off
			if from < start {
				from = start
			}
			if to > end {
				to = end
			}
			if from < to {
				events = append(events, xliff.Event{Kind: xliff.EventText, Text: chunk[from-lo : to-lo]})
			}
		case markup.PieceOpen:
			if claimed[p.Span] {
				events = append(events, xliff.Event{Kind: xliff.EventOpen, Span: p.Span})
			}
		case markup.PieceClose:
			if claimed[p.Span] {
				events = append(events, xliff.Event{Kind: xliff.EventClose, Span: p.Span})
			}
		case markup.PieceSelf:
			if claimed[p.Span] {
				events = append(events, xliff.Event{Kind: xliff.EventSelf, Span: p.Span})
			}
		}
	}
	return events
}

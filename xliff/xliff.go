// Package xliff moves translatable units through XLIFF interchange files
// and back.
//
// Two dialects are supported, each pairing a container version with an
// inline span encoding. 1.2 is the legacy/compact form: spans become
// <g>/<x> markers with a ctype classifier derived from the tag name, and
// the original tag literals travel out-of-band in the unit's content note.
// 2.0 is the attribute-preserving form: spans become <pc>/<ph> markers
// carrying the exact original tag literals, escaped, on the marker itself,
// so no side channel is needed to put the tags back:
//
//	1.2  Hello <g id="1" ctype="bold">world</g>!
//	2.0  Hello <pc id="1" equivStart="&lt;b&gt;" equivEnd="&lt;/b&gt;">world</pc>!
//
// The skeleton, span table, protected-token maps and segment offsets ride
// along as JSON note payloads, so a written file round-trips losslessly
// back into the units it came from even after translators reorder or edit
// entries.
package xliff

import (
	"net/url"
	"strconv"

	"github.com/tabliff/tabliff/markup"
)

// Dialect selects the interchange container and its inline marker encoding.
type Dialect string

const (
	// Dialect12 is XLIFF 1.2 with the compact inline encoding. It loses
	// attribute fidelity unless the content note survives the round trip.
	Dialect12 Dialect = "1.2"

	// Dialect20 is XLIFF 2.0 with the attribute-preserving inline encoding.
	Dialect20 Dialect = "2.0"
)

// DefaultDialect is used when configuration does not pick one. The
// attribute-preserving dialect needs no side channel to restore tags.
const DefaultDialect = Dialect20

// FindingKind classifies non-fatal problems: structural findings come from
// recovering broken markup, content findings from the validation pass over
// translated units, config findings from loading configuration.
type FindingKind string

const (
	FindingStructural FindingKind = "structural"
	FindingContent    FindingKind = "content"
	FindingConfig     FindingKind = "config"
)

// Finding is one non-fatal problem attached to a unit: something was
// recovered or needs human review, never something that aborted the batch.
type Finding struct {
	Kind    FindingKind `json:"kind"`
	Unit    string      `json:"unit,omitempty"`
	Segment string      `json:"segment,omitempty"`
	Message string      `json:"message"`
}

func (f Finding) String() string {
	where := f.Unit
	if f.Segment != "" {
		where += " " + f.Segment
	}
	if where == "" {
		return string(f.Kind) + ": " + f.Message
	}
	return string(f.Kind) + ": " + where + ": " + f.Message
}

// Segment is one translator-facing piece of a unit's flat source text.
type Segment struct {
	// ID is stable across export and import; reimported segments are keyed
	// by it, never by file position.
	ID string

	// Source is the plain segment text: the [Start,End) slice of the unit's
	// flat source text, before masking and inline encoding.
	Source string

	// WireSource is the form written to the interchange file: inline span
	// markers injected and protected substrings masked.
	WireSource string

	// Target is the translated wire text as read back from the interchange
	// file; empty until a translation arrives.
	Target string

	// Start and End are byte offsets into the unit's flat source text, used
	// to restore inter-segment whitespace at merge time. Both are -1 for
	// segments that appeared in an interchange file without export
	// metadata.
	Start int
	End   int

	// Tokens maps masking tokens occurring in WireSource to the original
	// literals they hide.
	Tokens map[string]string
}

// Unit is one translatable cell travelling through the pipeline, from
// decomposition through interchange to merge.
type Unit struct {
	ID    string
	Sheet string
	Row   int
	Col   int

	// Pass-through metadata the pipeline never interprets.
	Header  string
	Note    string
	StyleID int

	// Content is the decomposition of the original cell value.
	Content *markup.Decomposition

	Segments []Segment
	Findings []Finding
}

// SegmentByID returns the unit's segment with the given id, or nil.
func (u *Unit) SegmentByID(id string) *Segment {
	for i := range u.Segments {
		if u.Segments[i].ID == id {
			return &u.Segments[i]
		}
	}
	return nil
}

// UnitID builds the deterministic unit id for a cell: percent-encoded sheet
// name plus R<row>C<col>, so the same cell yields the same id on every run.
func UnitID(sheet string, row, col int) string {
	return url.PathEscape(sheet) + "!R" + strconv.Itoa(row) + "C" + strconv.Itoa(col)
}

// Document is one interchange file: the units of one workbook headed for
// one target language.
type Document struct {
	Dialect    Dialect
	Original   string // source workbook path
	SourceLang string
	TargetLang string
	Units      []*Unit
}

// UnitByID returns the document's unit with the given id, or nil.
func (d *Document) UnitByID(id string) *Unit {
	for _, u := range d.Units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

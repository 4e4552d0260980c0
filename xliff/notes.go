package xliff

import (
	"encoding/json"
	"fmt"

	"github.com/tabliff/tabliff/markup"
)

// Note names under which pipeline metadata rides along in interchange
// files. Notes with other names are ignored on read, so foreign tools can
// annotate files freely.
const (
	noteMeta     = "tabliff:meta"     // cell coordinates and pass-through metadata
	noteContent  = "tabliff:content"  // the decomposition: skeleton, span table, flat text
	noteSegments = "tabliff:segments" // segment offsets and token maps (2.0, whole unit)
	noteSegment  = "tabliff:segment"  // one segment's offsets and token map (1.2, per trans-unit)
	noteUnit     = "tabliff:unit"     // owning unit id (1.2, groups trans-units)
)

// unitMeta is the tabliff:meta payload.
type unitMeta struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Header  string `json:"header,omitempty"`
	Note    string `json:"note,omitempty"`
	StyleID int    `json:"style,omitempty"`
}

// segmentMeta is one entry of the tabliff:segments payload.
type segmentMeta struct {
	ID     string            `json:"id"`
	Start  int               `json:"start"`
	End    int               `json:"end"`
	Tokens map[string]string `json:"tokens,omitempty"`
}

// metaNote renders the unit's tabliff:meta payload.
func metaNote(u *Unit) (string, error) {
	data, err := json.Marshal(unitMeta{
		Sheet: u.Sheet, Row: u.Row, Col: u.Col,
		Header: u.Header, Note: u.Note, StyleID: u.StyleID,
	})
	if err != nil {
		return "", fmt.Errorf("encoding meta note: %w", err)
	}
	return string(data), nil
}

// contentNote renders the unit's tabliff:content payload.
func contentNote(u *Unit) (string, error) {
	if u.Content == nil {
		return "", nil
	}
	data, err := json.Marshal(u.Content)
	if err != nil {
		return "", fmt.Errorf("encoding content note: %w", err)
	}
	return string(data), nil
}

// segmentsNote renders the unit's tabliff:segments payload.
func segmentsNote(u *Unit) (string, error) {
	metas := make([]segmentMeta, 0, len(u.Segments))
	for _, s := range u.Segments {
		metas = append(metas, segmentMeta{ID: s.ID, Start: s.Start, End: s.End, Tokens: s.Tokens})
	}
	data, err := json.Marshal(metas)
	if err != nil {
		return "", fmt.Errorf("encoding segments note: %w", err)
	}
	return string(data), nil
}

// segmentNote renders one segment's tabliff:segment payload.
func segmentNote(s Segment) (string, error) {
	data, err := json.Marshal(segmentMeta{ID: s.ID, Start: s.Start, End: s.End, Tokens: s.Tokens})
	if err != nil {
		return "", fmt.Errorf("encoding segment note: %w", err)
	}
	return string(data), nil
}

// applyNote folds one named note payload back into the unit. Unknown note
// names are ignored.
func applyNote(u *Unit, name, payload string) error {
	switch name {
	case noteMeta:
		var m unitMeta
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return fmt.Errorf("decoding meta note: %w", err)
		}
		u.Sheet, u.Row, u.Col = m.Sheet, m.Row, m.Col
		u.Header, u.Note, u.StyleID = m.Header, m.Note, m.StyleID

	case noteContent:
		var d markup.Decomposition
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return fmt.Errorf("decoding content note: %w", err)
		}
		u.Content = &d

	case noteSegments:
		var metas []segmentMeta
		if err := json.Unmarshal([]byte(payload), &metas); err != nil {
			return fmt.Errorf("decoding segments note: %w", err)
		}
		for _, m := range metas {
			upsertSegmentMeta(u, m)
		}

	case noteSegment:
		var m segmentMeta
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return fmt.Errorf("decoding segment note: %w", err)
		}
		upsertSegmentMeta(u, m)
	}
	return nil
}

// upsertSegmentMeta merges one segment's export metadata into the unit,
// keyed by segment id.
func upsertSegmentMeta(u *Unit, m segmentMeta) {
	if s := u.SegmentByID(m.ID); s != nil {
		s.Start, s.End, s.Tokens = m.Start, m.End, m.Tokens
		return
	}
	u.Segments = append(u.Segments, Segment{ID: m.ID, Start: m.Start, End: m.End, Tokens: m.Tokens})
}

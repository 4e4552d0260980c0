package xliff

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Parse reads an interchange document, auto-detecting the dialect from the
// root version attribute. Units and segments may have been reordered or
// edited by translation tools; everything is re-keyed by id, and export
// metadata from the notes wins over file order.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing interchange XML: %w", err)
	}
	x := xmlquery.FindOne(root, "//xliff")
	if x == nil {
		return nil, fmt.Errorf("not an XLIFF document")
	}
	switch v := x.SelectAttr("version"); v {
	case "1.2":
		return parse12(x)
	case "2.0":
		return parse20(x)
	default:
		return nil, fmt.Errorf("unsupported XLIFF version %q", v)
	}
}

// ReadFile reads and parses the interchange file at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func parse20(x *xmlquery.Node) (*Document, error) {
	doc := &Document{
		Dialect:    Dialect20,
		SourceLang: x.SelectAttr("srcLang"),
		TargetLang: x.SelectAttr("trgLang"),
	}
	if f := xmlquery.FindOne(x, "file"); f != nil {
		doc.Original = f.SelectAttr("original")
	}

	for _, un := range xmlquery.Find(x, "//unit") {
		u := &Unit{ID: un.SelectAttr("id")}
		for _, n := range xmlquery.Find(un, "notes/note") {
			if err := applyNote(u, n.SelectAttr("category"), n.InnerText()); err != nil {
				return nil, fmt.Errorf("unit %s: %w", u.ID, err)
			}
		}
		for i, sn := range xmlquery.Find(un, "segment") {
			sid := sn.SelectAttr("id")
			if sid == "" {
				// 2.0 allows id-less segments; name them positionally the
				// way export would have.
				sid = "s" + strconv.Itoa(i+1)
			}
			attachWire(u, sid,
				innerXML(xmlquery.FindOne(sn, "source")),
				innerXML(xmlquery.FindOne(sn, "target")))
		}
		finishUnit(u)
		doc.Units = append(doc.Units, u)
	}
	return doc, nil
}

func parse12(x *xmlquery.Node) (*Document, error) {
	doc := &Document{Dialect: Dialect12}
	if f := xmlquery.FindOne(x, "file"); f != nil {
		doc.Original = f.SelectAttr("original")
		doc.SourceLang = f.SelectAttr("source-language")
		doc.TargetLang = f.SelectAttr("target-language")
	}

	units := map[string]*Unit{}
	for _, tu := range xmlquery.Find(x, "//trans-unit") {
		tuID := tu.SelectAttr("id")

		unitID, segID := splitTransUnitID(tuID)
		if n := xmlquery.FindOne(tu, "note[@from='"+noteUnit+"']"); n != nil {
			unitID = n.InnerText()
		}

		u := units[unitID]
		if u == nil {
			u = &Unit{ID: unitID}
			units[unitID] = u
			doc.Units = append(doc.Units, u)
		}

		for _, n := range xmlquery.Find(tu, "note") {
			name := n.SelectAttr("from")
			if name == noteUnit {
				continue
			}
			if err := applyNote(u, name, n.InnerText()); err != nil {
				return nil, fmt.Errorf("trans-unit %s: %w", tuID, err)
			}
		}
		attachWire(u, segID,
			innerXML(xmlquery.FindOne(tu, "source")),
			innerXML(xmlquery.FindOne(tu, "target")))
	}

	for _, u := range doc.Units {
		finishUnit(u)
	}
	return doc, nil
}

// splitTransUnitID separates a 1.2 trans-unit id back into unit and segment
// ids. Ids without a separator stand for a whole foreign unit.
func splitTransUnitID(id string) (string, string) {
	if i := strings.LastIndex(id, "#"); i >= 0 {
		return id[:i], id[i+1:]
	}
	return id, "s1"
}

// attachWire stores a segment's wire source and target on the unit, keyed
// by segment id. Segments unknown to the export metadata are appended with
// unknown offsets.
func attachWire(u *Unit, segID, source, target string) {
	if s := u.SegmentByID(segID); s != nil {
		s.WireSource, s.Target = source, target
		return
	}
	u.Segments = append(u.Segments, Segment{
		ID: segID, WireSource: source, Target: target,
		Start: -1, End: -1,
	})
}

// finishUnit restores export order (segments sort by source offset, with
// foreign metadata-less segments last) and refills each segment's plain
// source from the content note.
func finishUnit(u *Unit) {
	sort.SliceStable(u.Segments, func(i, j int) bool {
		a, b := u.Segments[i].Start, u.Segments[j].Start
		if a < 0 {
			return false
		}
		if b < 0 {
			return true
		}
		return a < b
	})
	if u.Content == nil {
		return
	}
	for i := range u.Segments {
		s := &u.Segments[i]
		if s.Start >= 0 && s.End >= s.Start && s.End <= len(u.Content.Text) {
			s.Source = u.Content.Text[s.Start:s.End]
		}
	}
}

// innerXML reassembles a node's children as markup, the form the inline
// decoder consumes.
func innerXML(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.WriteString(child.OutputXML(true))
	}
	return b.String()
}

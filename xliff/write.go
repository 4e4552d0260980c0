package xliff

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// Marshal serialises the document in its dialect's container format.
// Segment wire strings are embedded as-is; everything else is escaped.
func (d *Document) Marshal() ([]byte, error) {
	switch d.Dialect {
	case Dialect12:
		return d.marshal12()
	case Dialect20:
		return d.marshal20()
	}
	return nil, fmt.Errorf("unknown interchange dialect %q", d.Dialect)
}

// WriteFile serialises and writes to path, creating parent directories
// with 0755 permissions.
func (d *Document) WriteFile(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// marshal20 writes the 2.0 container: file/unit/notes+segment, with
// metadata notes in category attributes.
func (d *Document) marshal20() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	fmt.Fprintf(&b, `<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" version="2.0" srcLang="%s" trgLang="%s">`+"\n",
		escapeAttr(d.SourceLang), escapeAttr(d.TargetLang))
	fmt.Fprintf(&b, `  <file id="f1" original="%s" xml:space="preserve">`+"\n", escapeAttr(d.Original))

	for _, u := range d.Units {
		fmt.Fprintf(&b, `    <unit id="%s">`+"\n", escapeAttr(u.ID))

		notes, err := exportNotes(u)
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.ID, err)
		}
		b.WriteString("      <notes>\n")
		for _, n := range notes {
			fmt.Fprintf(&b, `        <note category="%s">%s</note>`+"\n", escapeAttr(n[0]), escapeText(n[1]))
		}
		b.WriteString("      </notes>\n")

		for _, s := range u.Segments {
			fmt.Fprintf(&b, `      <segment id="%s">`+"\n", escapeAttr(s.ID))
			fmt.Fprintf(&b, "        <source>%s</source>\n", s.WireSource)
			fmt.Fprintf(&b, "        <target>%s</target>\n", s.Target)
			b.WriteString("      </segment>\n")
		}
		b.WriteString("    </unit>\n")
	}

	b.WriteString("  </file>\n</xliff>\n")
	return b.Bytes(), nil
}

// marshal12 writes the 1.2 container. 1.2 has no segment children, so each
// segment becomes its own trans-unit, grouped back together on read by the
// tabliff:unit note; the first trans-unit of a unit carries the unit-wide
// notes.
func (d *Document) marshal12() ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<xliff version="1.2" xmlns="urn:oasis:names:tc:xliff:document:1.2">` + "\n")
	fmt.Fprintf(&b, `  <file original="%s" source-language="%s" target-language="%s" datatype="html" xml:space="preserve">`+"\n",
		escapeAttr(d.Original), escapeAttr(d.SourceLang), escapeAttr(d.TargetLang))
	b.WriteString("    <body>\n")

	for _, u := range d.Units {
		unitNotes, err := exportNotes(u)
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.ID, err)
		}
		for i, s := range u.Segments {
			fmt.Fprintf(&b, `      <trans-unit id="%s">`+"\n", escapeAttr(u.ID+"#"+s.ID))
			fmt.Fprintf(&b, "        <source>%s</source>\n", s.WireSource)
			fmt.Fprintf(&b, "        <target>%s</target>\n", s.Target)
			fmt.Fprintf(&b, `        <note from="%s">%s</note>`+"\n", noteUnit, escapeText(u.ID))

			seg, err := segmentNote(s)
			if err != nil {
				return nil, fmt.Errorf("unit %s: %w", u.ID, err)
			}
			fmt.Fprintf(&b, `        <note from="%s">%s</note>`+"\n", noteSegment, escapeText(seg))

			if i == 0 {
				for _, n := range unitNotes {
					if n[0] == noteSegments {
						continue
					}
					fmt.Fprintf(&b, `        <note from="%s">%s</note>`+"\n", escapeAttr(n[0]), escapeText(n[1]))
				}
			}
			b.WriteString("      </trans-unit>\n")
		}
	}

	b.WriteString("    </body>\n  </file>\n</xliff>\n")
	return b.Bytes(), nil
}

// exportNotes builds the ordered unit-wide note payloads.
func exportNotes(u *Unit) ([][2]string, error) {
	meta, err := metaNote(u)
	if err != nil {
		return nil, err
	}
	content, err := contentNote(u)
	if err != nil {
		return nil, err
	}
	segs, err := segmentsNote(u)
	if err != nil {
		return nil, err
	}
	notes := [][2]string{{noteMeta, meta}}
	if content != "" {
		notes = append(notes, [2]string{noteContent, content})
	}
	notes = append(notes, [2]string{noteSegments, segs})
	return notes, nil
}

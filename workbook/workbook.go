// Package workbook reads translatable cells from Excel workbooks and
// writes translated content back into copies of them.
package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Cell is one translatable workbook cell. Row and Col are 1-based.
type Cell struct {
	Sheet   string
	Row     int
	Col     int
	Value   string
	Header  string
	Note    string
	StyleID int
}

// Options controls which cells Read returns.
type Options struct {
	// Sheets restricts reading to the named sheets. Empty means every
	// visible sheet in workbook order.
	Sheets []string
	// HeaderRow treats the first row of each sheet as column headers:
	// its values annotate the cells below and are not extracted.
	HeaderRow bool
	// SkipHidden drops cells in hidden rows and columns.
	SkipHidden bool
}

// Update is one translated value to write back.
type Update struct {
	Sheet string
	Row   int
	Col   int
	Value string
}

// Read returns the translatable cells of the workbook at path, ordered by
// sheet, row and column. Formula cells are skipped, merged regions yield
// only their anchor cell, and cell comments are carried as notes.
func Read(path string, opts Options) ([]Cell, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets, err := selectSheets(f, opts.Sheets)
	if err != nil {
		return nil, err
	}

	var cells []Cell
	for _, sheet := range sheets {
		sc, err := readSheet(f, sheet, opts)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		cells = append(cells, sc...)
	}
	return cells, nil
}

// Write copies the workbook at src to dst with the given cell updates
// applied. Cell styles and everything untouched carry over unchanged.
func Write(src, dst string, updates []Update) error {
	f, err := excelize.OpenFile(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer f.Close()

	for _, u := range updates {
		axis, err := excelize.CoordinatesToCellName(u.Col, u.Row)
		if err != nil {
			return fmt.Errorf("cell R%dC%d: %w", u.Row, u.Col, err)
		}
		if err := f.SetCellStr(u.Sheet, axis, u.Value); err != nil {
			return fmt.Errorf("writing %s!%s: %w", u.Sheet, axis, err)
		}
	}

	if err := f.SaveAs(dst); err != nil {
		return fmt.Errorf("saving %s: %w", dst, err)
	}
	return nil
}

func selectSheets(f *excelize.File, named []string) ([]string, error) {
	if len(named) > 0 {
		for _, s := range named {
			if idx, err := f.GetSheetIndex(s); err != nil || idx < 0 {
				return nil, fmt.Errorf("sheet %q not found", s)
			}
		}
		return named, nil
	}
	var sheets []string
	for _, s := range f.GetSheetList() {
		visible, err := f.GetSheetVisible(s)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s, err)
		}
		if visible {
			sheets = append(sheets, s)
		}
	}
	return sheets, nil
}

func readSheet(f *excelize.File, sheet string, opts Options) ([]Cell, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	covered, err := mergedShadow(f, sheet)
	if err != nil {
		return nil, err
	}
	notes, err := commentText(f, sheet)
	if err != nil {
		return nil, err
	}

	var headers []string
	start := 0
	if opts.HeaderRow && len(rows) > 0 {
		headers = rows[0]
		start = 1
	}

	colHidden := map[int]bool{}
	var cells []Cell
	for r := start; r < len(rows); r++ {
		row := r + 1
		if opts.SkipHidden {
			visible, err := f.GetRowVisible(sheet, row)
			if err != nil {
				return nil, err
			}
			if !visible {
				continue
			}
		}
		for c, value := range rows[r] {
			col := c + 1
			if strings.TrimSpace(value) == "" {
				continue
			}
			if opts.SkipHidden && hiddenCol(f, sheet, col, colHidden) {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return nil, err
			}
			if covered[axis] {
				continue
			}
			if formula, err := f.GetCellFormula(sheet, axis); err == nil && formula != "" {
				continue
			}
			style, _ := f.GetCellStyle(sheet, axis)
			cells = append(cells, Cell{
				Sheet:   sheet,
				Row:     row,
				Col:     col,
				Value:   value,
				Header:  headerFor(headers, c),
				Note:    notes[axis],
				StyleID: style,
			})
		}
	}
	return cells, nil
}

// mergedShadow returns the set of cell axes covered by a merged region
// without being its anchor.
func mergedShadow(f *excelize.File, sheet string) (map[string]bool, error) {
	regions, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, err
	}
	covered := map[string]bool{}
	for _, m := range regions {
		c1, r1, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			return nil, err
		}
		c2, r2, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			return nil, err
		}
		for r := r1; r <= r2; r++ {
			for c := c1; c <= c2; c++ {
				if r == r1 && c == c1 {
					continue
				}
				axis, err := excelize.CoordinatesToCellName(c, r)
				if err != nil {
					return nil, err
				}
				covered[axis] = true
			}
		}
	}
	return covered, nil
}

func commentText(f *excelize.File, sheet string) (map[string]string, error) {
	comments, err := f.GetComments(sheet)
	if err != nil {
		return nil, err
	}
	notes := map[string]string{}
	for _, cm := range comments {
		text := cm.Text
		if text == "" {
			var b strings.Builder
			for _, run := range cm.Paragraph {
				b.WriteString(run.Text)
			}
			text = b.String()
		}
		notes[cm.Cell] = text
	}
	return notes, nil
}

func hiddenCol(f *excelize.File, sheet string, col int, cache map[int]bool) bool {
	if hidden, ok := cache[col]; ok {
		return hidden
	}
	hidden := false
	if name, err := excelize.ColumnNumberToName(col); err == nil {
		if visible, err := f.GetColVisible(sheet, name); err == nil {
			hidden = !visible
		}
	}
	cache[col] = hidden
	return hidden
}

func headerFor(headers []string, idx int) string {
	if idx < len(headers) {
		return strings.TrimSpace(headers[idx])
	}
	return ""
}

// Package workbook reads and writes .xlsx files with tealeg/xlsx.
package workbook

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadOptions configures Read.
type ReadOptions struct {
	// PreferredSheet is used when present; otherwise the first sheet is read.
	PreferredSheet string
}

// Sheet is the string content of one worksheet.
type Sheet struct {
	Name string
	Rows [][]string
}

// Read opens an .xlsx file and returns the preferred sheet, or the first
// sheet when the preferred one is absent.
func Read(path string, opts ReadOptions) (*Sheet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := pickSheet(f, opts.PreferredSheet)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, rowToStrings(row))
	}
	return &Sheet{Name: sheet.Name, Rows: rows}, nil
}

func pickSheet(f *xlsx.File, preferred string) (*xlsx.Sheet, error) {
	if preferred != "" {
		if sheet, ok := f.Sheet[preferred]; ok {
			return sheet, nil
		}
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = cellText(cell)
	}
	return cells
}

// cellText returns the stored value of numeric cells so a display format
// such as "0.0" does not round them. Date-formatted cells keep their
// formatted text.
func cellText(cell *xlsx.Cell) string {
	if cell.Type() == xlsx.CellTypeNumeric && !cell.IsTime() {
		if v, err := cell.GeneralNumericWithoutScientific(); err == nil {
			return v
		}
	}
	return cell.String()
}

// Blank reports whether every cell in row is empty or whitespace.
func Blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

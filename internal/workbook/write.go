package workbook

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is one output worksheet: a header row followed by data rows.
// Cell values may be string, int, int64, float64 or nil.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Build assembles tables into a new workbook, one sheet per table.
func Build(tables ...Table) (*xlsx.File, error) {
	f := xlsx.NewFile()
	for _, t := range tables {
		sheet, err := f.AddSheet(t.Name)
		if err != nil {
			return nil, eris.Wrapf(err, "xlsx: add sheet %s", t.Name)
		}

		header := sheet.AddRow()
		for _, h := range t.Header {
			header.AddCell().SetString(h)
		}

		for _, values := range t.Rows {
			row := sheet.AddRow()
			for _, v := range values {
				setCell(row.AddCell(), v)
			}
		}
	}
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, tables ...Table) error {
	f, err := Build(tables...)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

// Save builds the workbook and writes it to path.
func Save(path string, tables ...Table) error {
	f, err := Build(tables...)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func setCell(cell *xlsx.Cell, v any) {
	switch val := v.(type) {
	case nil:
		cell.SetString("")
	case string:
		cell.SetString(val)
	case int:
		cell.SetInt(val)
	case int64:
		cell.SetInt64(val)
	case float64:
		cell.SetFloat(val)
	default:
		cell.SetString(fmt.Sprint(val))
	}
}

package metadata

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/geovolt/geophygis/pkg/survey"
	"github.com/xuri/excelize/v2"
)

const docsheetName = "docsheet"

var docsheetHeader = []string{"ID", "GIS_LENGTH", "LENGTH", "ARRAY", "SPACING", "DIRECTION"}

func (r DocRow) cells() []string {
	return []string{r.ID, survey.FormatDecimal(r.GISLength), r.Length, r.Array, r.Spacing, r.Direction}
}

// WriteDocsheet writes the documentation sheet as tab separated text.
func WriteDocsheet(w io.Writer, rows []DocRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(docsheetHeader); err != nil {
		return fmt.Errorf("writing docsheet header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.cells()); err != nil {
			return fmt.Errorf("writing docsheet row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWorkbook writes the documentation sheet as an xlsx workbook at path.
// GIS_LENGTH is stored as a number, every other column as text.
func WriteWorkbook(path string, rows []DocRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", docsheetName); err != nil {
		return fmt.Errorf("naming docsheet: %w", err)
	}
	if err := setRow(f, 1, toAny(docsheetHeader)); err != nil {
		return err
	}
	for i, r := range rows {
		values := []any{r.ID, r.GISLength, r.Length, r.Array, r.Spacing, r.Direction}
		if err := setRow(f, i+2, values); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %q: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(docsheetName, cell, &values); err != nil {
		return fmt.Errorf("writing docsheet row %d: %w", row, err)
	}
	return nil
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

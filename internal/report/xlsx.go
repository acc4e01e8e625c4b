package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cjeanneret/emecwheel/internal/logic/wheel"
)

// Sheet names of the workbook.
const (
	SheetGeometry = "Geometry"
	SheetProfile  = "Profile"
)

// WriteXLSX writes a workbook with one geometry column per calculator and
// the (z, r) outline points of each.
func WriteXLSX(w io.Writer, calcs []*wheel.Calculator) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetGeometry); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetProfile); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	// Geometry: labels in column A, one variant per column
	header := []interface{}{"Quantity"}
	for _, c := range calcs {
		header = append(header, c.RequestedType().String())
	}
	if err := f.SetSheetRow(SheetGeometry, "A1", &header); err != nil {
		return err
	}
	for i, fd := range fields {
		row := []interface{}{label(fd)}
		for _, c := range calcs {
			row = append(row, fd.value(c.Summary()))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetGeometry, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(calcs)+1, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetGeometry, "A1", last, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetGeometry, "A", "A", 28); err != nil {
		return err
	}

	// Profile: variant, point index, z, r
	if err := f.SetSheetRow(SheetProfile, "A1", &[]interface{}{"Variant", "Point", "z (mm)", "r (mm)"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetProfile, "A1", "D1", bold); err != nil {
		return err
	}
	row := 2
	for _, c := range calcs {
		for i, p := range c.Profile() {
			cell := fmt.Sprintf("A%d", row)
			if err := f.SetSheetRow(SheetProfile, cell, &[]interface{}{c.RequestedType().String(), i, p.X, p.Y}); err != nil {
				return err
			}
			row++
		}
	}

	return f.Write(w)
}

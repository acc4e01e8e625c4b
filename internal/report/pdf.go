package report

import (
	"fmt"
	"io"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/cjeanneret/emecwheel/internal/logic/wheel"
)

// pdfColumns is the number of variants per page.
const pdfColumns = 4

// WritePDF writes a landscape A4 table of the derived geometry, pdfColumns
// variants per page.
func WritePDF(w io.Writer, title string, calcs []*wheel.Calculator) error {
	if title == "" {
		title = "EMEC wheel geometry"
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	const labelW, valueW, rowH = 70.0, 50.0, 6.0
	var pages [][]*wheel.Calculator
	for start := 0; start < len(calcs); start += pdfColumns {
		end := min(start+pdfColumns, len(calcs))
		pages = append(pages, calcs[start:end])
	}
	if len(pages) == 0 {
		pages = append(pages, nil)
	}

	for _, page := range pages {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.Cell(0, 10, title)
		pdf.Ln(10)
		pdf.SetFont("Helvetica", "", 9)
		pdf.Cell(0, 6, fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02 15:04")))
		pdf.Ln(10)

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(220, 220, 220)
		pdf.CellFormat(labelW, rowH, "Quantity", "1", 0, "L", true, 0, "")
		sums := make([]wheel.Summary, len(page))
		for i, c := range page {
			sums[i] = c.Summary()
			pdf.CellFormat(valueW, rowH, sums[i].Variant, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for _, fd := range fields {
			pdf.CellFormat(labelW, rowH, label(fd), "1", 0, "L", false, 0, "")
			for _, s := range sums {
				pdf.CellFormat(valueW, rowH, format(fd.value(s)), "1", 0, "R", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

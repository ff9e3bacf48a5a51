package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// column widths in mm for the customer table
var pdfWidths = []float64{80, 50, 50}

// WritePDF renders s as an A4 document with the summary and the RED LIGHT table.
func WritePDF(w io.Writer, s Summary) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.SetTitle("Churn Risk Report", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Churn Risk Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 9)
	lines := []string{
		fmt.Sprintf("Run %s, generated %s", s.RunID, s.GeneratedAt.Format("2006-01-02 15:04:05 UTC")),
		"Input files: " + strings.Join(s.Files, ", "),
		fmt.Sprintf("Customers scored: %d", s.TotalCustomers),
		fmt.Sprintf("RED LIGHT customers: %d (probability above %s)", s.RedLightCount, FormatProbability(s.Threshold)),
		fmt.Sprintf("Labels: %s (%d positive)", s.LabelSource, s.Positives),
		"Features: " + strings.Join(s.Features, ", "),
	}
	for _, l := range lines {
		pdf.MultiCell(0, 5, tr(l), "", "L", false)
	}
	if len(s.Warnings) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Warnings")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		for _, wn := range s.Warnings {
			pdf.MultiCell(0, 5, tr("- "+wn), "", "L", false)
		}
	}

	pdf.Ln(4)
	if len(s.Customers) == 0 {
		pdf.Cell(0, 6, "No customers above the risk threshold.")
	} else {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(245, 245, 245)
		for i, h := range CSVHeader {
			pdf.CellFormat(pdfWidths[i], 7, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, p := range s.Customers {
			pdf.CellFormat(pdfWidths[0], 6, tr(p.CustomerID), "1", 0, "L", false, 0, "")
			pdf.CellFormat(pdfWidths[1], 6, FormatProbability(p.Probability), "1", 0, "R", false, 0, "")
			pdf.CellFormat(pdfWidths[2], 6, string(p.Status), "1", 0, "L", false, 0, "")
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

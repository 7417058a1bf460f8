package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is a label/value pair printed above or below the table.
type Field struct {
	Label string
	Value string
}

// Document is a single-page printable sheet: heading fields, a table and a
// summary block.
type Document struct {
	Title   string
	Header  []Field
	Table   Dataset
	Summary []Field
}

// PDFExporter renders marksheet documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates an A4 PDF for the document.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	writeFields(pdf, doc.Header)
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 9)
	colWidth := 190.0 / float64(len(doc.Table.Headers))
	for _, header := range doc.Table.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range doc.Table.Rows {
		for _, header := range doc.Table.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(doc.Summary) > 0 {
		pdf.Ln(4)
		writeFields(pdf, doc.Summary)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFields(pdf *gofpdf.Fpdf, fields []Field) {
	for _, f := range fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 6, f.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, f.Value, "", 1, "", false, 0, "")
	}
}

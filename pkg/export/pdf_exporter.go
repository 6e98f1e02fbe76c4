package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument carries the printable fields of a certificate.
type CertificateDocument struct {
	InstituteName    string
	StudentName      string
	CourseTitle      string
	CslNumber        string
	VerificationCode string
	VerifyURL        string
	IssueDate        time.Time
	CompletionDate   time.Time
}

// PDFExporter renders completion certificates as single-page landscape PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render produces the certificate PDF for doc.
func (e *PDFExporter) Render(doc CertificateDocument) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Certificate %s", doc.CslNumber), true)
	pdf.SetAuthor(doc.InstituteName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width, height := pdf.GetPageSize()
	pdf.SetDrawColor(30, 60, 120)
	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, width-20, height-20, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, width-28, height-28, "D")

	pdf.SetY(30)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(30, 60, 120)
	pdf.CellFormat(0, 12, tr(strings.ToUpper(doc.InstituteName)), "", 1, "C", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 16)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 10, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "This is to certify that", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 14, tr(doc.StudentName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, "has successfully completed the course", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 12, tr(doc.CourseTitle), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, fmt.Sprintf("Completed on %s", formatDate(doc.CompletionDate)), "", 1, "C", false, 0, "")

	footerY := height - 45
	pdf.SetXY(25, footerY)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(100, 6, fmt.Sprintf("Certificate No: %s", doc.CslNumber), "", 2, "L", false, 0, "")
	pdf.CellFormat(100, 6, fmt.Sprintf("Issued: %s", formatDate(doc.IssueDate)), "", 2, "L", false, 0, "")
	pdf.CellFormat(100, 6, fmt.Sprintf("Verification code: %s", doc.VerificationCode), "", 2, "L", false, 0, "")
	if doc.VerifyURL != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(160, 6, fmt.Sprintf("Verify at %s", doc.VerifyURL), "", 2, "L", false, 0, doc.VerifyURL)
	}

	pdf.SetXY(width-105, footerY+6)
	pdf.Line(width-105, footerY+5, width-25, footerY+5)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(80, 6, "Director", "", 0, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (d CertificateDocument) validate() error {
	var missing []string
	if d.StudentName == "" {
		missing = append(missing, "student name")
	}
	if d.CourseTitle == "" {
		missing = append(missing, "course title")
	}
	if d.CslNumber == "" {
		missing = append(missing, "csl number")
	}
	if len(missing) > 0 {
		return fmt.Errorf("certificate document missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 January 2006")
}

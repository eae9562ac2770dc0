package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument is the content printed on a compliance certificate.
type CertificateDocument struct {
	Issuer           string
	JurisdictionName string
	JurisdictionCode string
	ReportYear       int
	CaseNumber       string
	ApprovedBy       string
	IssuedAt         time.Time
	Lines            []string
}

// RenderCertificate produces a single-page certificate PDF.
func RenderCertificate(doc CertificateDocument) ([]byte, error) {
	if doc.JurisdictionName == "" || doc.ReportYear == 0 {
		return nil, fmt.Errorf("certificate requires jurisdiction and report year")
	}
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(20, 25, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, "Certificate of Pay Equity Compliance", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	if doc.Issuer != "" {
		pdf.CellFormat(0, 7, tr(doc.Issuer), "", 1, "C", false, 0, "")
	}
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	body := fmt.Sprintf("This certifies that %s", doc.JurisdictionName)
	if doc.JurisdictionCode != "" {
		body += fmt.Sprintf(" (jurisdiction %s)", doc.JurisdictionCode)
	}
	body += fmt.Sprintf(" has been found in compliance with pay equity requirements for report year %d.", doc.ReportYear)
	pdf.MultiCell(0, 7, tr(body), "", "L", false)
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Case number", doc.CaseNumber},
		{"Approved by", doc.ApprovedBy},
		{"Issued", doc.IssuedAt.UTC().Format("January 2, 2006")},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.CellFormat(40, 7, row[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, tr(row[1]), "", 1, "L", false, 0, "")
	}
	if len(doc.Lines) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 9)
		for _, line := range doc.Lines {
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}

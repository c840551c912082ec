package receipt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/beesaferoot/officelease/internal/config"
)

const (
	fontFamily = "Helvetica"
	labelWidth = 55.0
	lineHeight = 7.0
)

// signatureImage reports whether path points at an image fpdf can embed.
func signatureImage(path string) bool {
	if path == "" {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type page struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (p page) section(title string) {
	p.pdf.Ln(4)
	p.pdf.SetFont(fontFamily, "B", 12)
	p.pdf.CellFormat(0, 8, p.tr(title), "B", 1, "L", false, 0, "")
	p.pdf.Ln(2)
}

func (p page) row(label, value string) {
	if value == "" {
		value = "-"
	}
	p.pdf.SetFont(fontFamily, "B", 10)
	p.pdf.CellFormat(labelWidth, lineHeight, p.tr(label), "", 0, "L", false, 0, "")
	p.pdf.SetFont(fontFamily, "", 10)
	p.pdf.MultiCell(0, lineHeight, p.tr(value), "", "L", false)
}

// RenderPDF lays out an A4 receipt: company header, title, receipt number,
// tenant, payment, property, signature and footer.
func RenderPDF(data Data, cfg config.ReceiptsConfig) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetTitle("Receipt "+data.Number, true)
	pdf.SetAuthor(data.Company.Name, true)
	pdf.SetCreationDate(data.IssuedAt)
	pdf.SetModificationDate(data.IssuedAt)

	p := page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 5, p.tr("This receipt acknowledges the payment described above."), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 5, p.tr(fmt.Sprintf("%s - page %d", data.Number, pdf.PageNo())), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 9, p.tr(data.Company.Name), "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	if data.Company.Address != "" {
		pdf.CellFormat(0, 5, p.tr(data.Company.Address), "", 1, "C", false, 0, "")
	}
	if data.Company.Phone != "" {
		pdf.CellFormat(0, 5, p.tr("Tel: "+data.Company.Phone), "", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(0, 10, "PAYMENT RECEIPT", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	p.row("Receipt number:", data.Number)
	p.row("Issue date:", data.IssuedAt.Format("02/01/2006 15:04"))

	p.section("Tenant")
	tenant := data.Tenant.Name
	if data.Tenant.CompanyName != "" {
		tenant += " (" + data.Tenant.CompanyName + ")"
	}
	p.row("Tenant:", tenant)
	p.row("Phone:", data.Tenant.Phone)
	p.row("Email:", data.Tenant.Email)

	p.section("Payment")
	p.row("Payment type:", data.PaymentType)
	p.row("Payment date:", data.PaidOn.Format("02/01/2006"))
	p.row("Amount:", data.AmountText)
	if data.Period != "" {
		p.row("Period:", data.Period)
	}

	p.section("Property")
	p.row("Building:", data.Building.Name)
	p.row("Address:", data.Building.Address)
	p.row("Office(s):", data.OfficesText)

	pdf.Ln(12)
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, lineHeight, "Signature:", "", 1, "L", false, 0, "")
	if signatureImage(cfg.SignaturePath) {
		pdf.ImageOptions(cfg.SignaturePath, pdf.GetX(), pdf.GetY()+2, 50, 0, true, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	} else {
		y := pdf.GetY() + 15
		pdf.SetDrawColor(0, 0, 0)
		pdf.SetLineWidth(0.3)
		pdf.Line(20, y, 90, y)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt %s: %w", data.Number, err)
	}
	return buf.Bytes(), nil
}

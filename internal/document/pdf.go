package document

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"quote-service/internal/catalog"
	"quote-service/internal/pricing"
	"quote-service/internal/wizard"
)

// A4 layout in millimeters. The header and footer are fixed bands
// repeated on every page; content flows between them and a page break
// is checked before each major section.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginTop    = 30.0
	marginBottom = 25.0
	marginLeft   = 20.0
	marginRight  = 20.0

	contentHeight = pageHeight - marginTop - marginBottom
)

// PDFRenderer produces the paginated quote document.
type PDFRenderer struct {
	cat    *catalog.Catalog
	issuer Issuer
}

func NewPDFRenderer(cat *catalog.Catalog, issuer Issuer) *PDFRenderer {
	return &PDFRenderer{cat: cat, issuer: issuer}
}

func (r *PDFRenderer) Render(sel wizard.Selection, bd pricing.Breakdown, now time.Time) (Artifact, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	doc := &pdfDoc{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		issuer: r.issuer,
		now:    now,
	}

	pdf.AddPage()
	doc.headerFooter()
	y := marginTop + 15

	y = doc.clientSection(y, sel.Contact)
	y = doc.projectSection(y, sel, r.cat)
	y = doc.featuresSection(y, sel, r.cat)
	y = doc.urgencySection(y, sel, r.cat)
	y = doc.notesSection(y, sel)
	y = doc.summarySection(y, bd)
	doc.messageSection(y, sel.Contact.Message)

	if pdf.Err() {
		return Artifact{}, fmt.Errorf("render pdf: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Artifact{}, fmt.Errorf("render pdf: %w", err)
	}

	return Artifact{
		Filename: Filename(sel.Contact.Name, "pdf", now),
		Content:  buf.Bytes(),
	}, nil
}

type pdfDoc struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	issuer Issuer
	now    time.Time
}

// headerFooter draws the fixed bands of the current page.
func (d *pdfDoc) headerFooter() {
	pdf := d.pdf

	// Header band: title block, quote number, date.
	pdf.SetFillColor(240, 240, 240)
	pdf.Rect(0, 0, pageWidth, marginTop-5, "F")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(50, 50, 50)
	pdf.Text(marginLeft, 15, d.tr("DEVIS DÉTAILLÉ"))

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	d.textRight(pageWidth-marginRight, 15, fmt.Sprintf("N° %06d", d.now.Unix()%1000000))
	d.textRight(pageWidth-marginRight, 22, "Date: "+d.now.Format("02/01/2006"))

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(marginLeft, marginTop-8, pageWidth-marginRight, marginTop-8)

	// Footer band: issuer identity and page number.
	pdf.SetFillColor(50, 50, 50)
	pdf.Rect(0, pageHeight-marginBottom+5, pageWidth, marginBottom-5, "F")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(255, 255, 255)
	pdf.Text(marginLeft, pageHeight-15, d.tr(d.issuer.Name))
	pdf.Text(marginLeft, pageHeight-10, d.tr(d.issuer.Title))
	pdf.Text(marginLeft, pageHeight-5, d.tr(d.issuer.Email))
	d.textRight(pageWidth-marginRight, pageHeight-15, d.issuer.Phone)
	d.textRight(pageWidth-marginRight, pageHeight-10, d.tr(d.issuer.Location))
	d.textRight(pageWidth-marginRight, pageHeight-5, fmt.Sprintf("Page %d", pdf.PageNo()))

	pdf.SetTextColor(0, 0, 0)
}

// checkPageBreak starts a new page when the next block would overflow
// the content area, re-rendering the bands, and returns the cursor.
func (d *pdfDoc) checkPageBreak(y, required float64) float64 {
	if y+required > contentHeight+marginTop {
		d.pdf.AddPage()
		d.headerFooter()
		return marginTop + 10
	}
	return y
}

func (d *pdfDoc) textRight(x, y float64, s string) {
	s = d.tr(s)
	d.pdf.Text(x-d.pdf.GetStringWidth(s), y, s)
}

func (d *pdfDoc) sectionTitle(y float64, title string, lineEnd float64, r, g, b int) float64 {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(r, g, b)
	pdf.Text(marginLeft, y, d.tr(title))
	pdf.SetDrawColor(r, g, b)
	pdf.Line(marginLeft, y+2, lineEnd, y+2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	return y + 10
}

func (d *pdfDoc) clientSection(y float64, c wizard.Contact) float64 {
	y = d.sectionTitle(y, "INFORMATIONS CLIENT", 100, 0, 100, 200)

	d.pdf.Text(marginLeft+5, y, d.tr("Nom: "+c.Name))
	y += 6
	if c.Company != "" {
		d.pdf.Text(marginLeft+5, y, d.tr("Entreprise: "+c.Company))
		y += 6
	}
	d.pdf.Text(marginLeft+5, y, d.tr("Email: "+c.Email))
	return y + 15
}

func (d *pdfDoc) projectSection(y float64, sel wizard.Selection, cat *catalog.Catalog) float64 {
	project, ok := cat.ProjectTypeByID(sel.ProjectType)
	if !ok {
		return y
	}

	y = d.checkPageBreak(y, 50)
	y = d.sectionTitle(y, "DÉTAILS DU PROJET", 110, 0, 100, 200)

	d.pdf.Text(marginLeft+5, y, d.tr("Type de projet: "+project.Name))
	y += 6
	d.pdf.Text(marginLeft+5, y, d.tr("Description: "+project.Description))
	y += 6
	d.pdf.Text(marginLeft+5, y, d.tr(fmt.Sprintf("Prix de base: %d€ HT", project.BasePrice)))
	return y + 10
}

func (d *pdfDoc) featuresSection(y float64, sel wizard.Selection, cat *catalog.Catalog) float64 {
	var selected []catalog.Feature
	for _, id := range sel.Features {
		if f, ok := cat.FeatureByID(id); ok {
			selected = append(selected, f)
		}
	}
	if len(selected) == 0 {
		return y
	}

	y = d.checkPageBreak(y, 30+float64(len(selected))*6)

	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.Text(marginLeft+5, y, d.tr("Fonctionnalités additionnelles:"))
	y += 8

	d.pdf.SetFont("Helvetica", "", 11)
	for _, f := range selected {
		d.pdf.Text(marginLeft+10, y, d.tr("- "+f.Name))
		d.pdf.Text(150, y, d.tr(fmt.Sprintf("+%d€ HT", f.Price)))
		y += 6
	}
	return y + 5
}

func (d *pdfDoc) urgencySection(y float64, sel wizard.Selection, cat *catalog.Catalog) float64 {
	tier, ok := cat.TierByTag(sel.Urgency)
	if !ok {
		return y
	}

	y = d.checkPageBreak(y, 25)

	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.Text(marginLeft+5, y, d.tr("Délais souhaités:"))
	y += 6

	d.pdf.SetFont("Helvetica", "", 11)
	d.pdf.Text(marginLeft+10, y, d.tr(tier.Name))
	if tier.Multiplier != 1 {
		d.pdf.Text(100, y, "("+adjustmentPercent(tier.Multiplier)+")")
	}
	return y + 10
}

func (d *pdfDoc) notesSection(y float64, sel wizard.Selection) float64 {
	if sel.BudgetHint == "" && sel.TimelineNote == "" {
		return y
	}

	y = d.checkPageBreak(y, 30)

	if sel.BudgetHint != "" {
		d.pdf.SetFont("Helvetica", "B", 11)
		d.pdf.Text(marginLeft+5, y, d.tr("Budget indicatif:"))
		y += 6
		d.pdf.SetFont("Helvetica", "", 11)
		d.pdf.Text(marginLeft+10, y, d.tr(sel.BudgetHint))
		y += 8
	}

	if sel.TimelineNote != "" {
		d.pdf.SetFont("Helvetica", "B", 11)
		d.pdf.Text(marginLeft+5, y, d.tr("Contraintes particulières:"))
		y += 6
		d.pdf.SetFont("Helvetica", "", 11)
		for _, line := range d.pdf.SplitText(d.tr(sel.TimelineNote), 160) {
			if ny := d.checkPageBreak(y, 10); ny != y {
				y = ny
				d.pdf.SetFont("Helvetica", "", 11)
			}
			d.pdf.Text(marginLeft+10, y, line)
			y += 5
		}
		y += 10
	}
	return y
}

func (d *pdfDoc) summarySection(y float64, bd pricing.Breakdown) float64 {
	pdf := d.pdf

	y = d.checkPageBreak(y, 80)
	y = d.sectionTitle(y, "RÉCAPITULATIF FINANCIER", 130, 200, 50, 50)
	y += 5

	pdf.SetFillColor(250, 250, 250)
	pdf.Rect(marginLeft, y-5, 170, 40, "F")
	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(marginLeft, y-5, 170, 40, "D")

	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(marginLeft+5, y+5, d.tr("DÉSIGNATION"))
	pdf.Text(150, y+5, "MONTANT")
	pdf.Line(marginLeft, y+7, marginLeft+170, y+7)

	y += 12
	pdf.Text(marginLeft+5, y, "Total HT")
	pdf.Text(150, y, d.tr(fmt.Sprintf("%d€", bd.Subtotal)))

	y += 6
	pdf.Text(marginLeft+5, y, "TVA (20%)")
	pdf.Text(150, y, d.tr(fmt.Sprintf("%d€", bd.TaxAmount)))

	y += 6
	pdf.Line(marginLeft+120, y-2, marginLeft+170, y-2)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(marginLeft+5, y+3, "TOTAL TTC")
	pdf.Text(150, y+3, d.tr(fmt.Sprintf("%d€", bd.TotalWithTax)))
	return y + 3
}

func (d *pdfDoc) messageSection(y float64, message string) {
	if message == "" {
		return
	}

	y += 20
	y = d.checkPageBreak(y, 30)

	d.pdf.SetFont("Helvetica", "B", 12)
	d.pdf.SetTextColor(0, 100, 200)
	d.pdf.Text(marginLeft, y, "MESSAGE CLIENT")
	y += 8

	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.SetTextColor(0, 0, 0)
	for _, line := range d.pdf.SplitText(d.tr(message), 170) {
		if ny := d.checkPageBreak(y, 10); ny != y {
			y = ny
			d.pdf.SetFont("Helvetica", "", 10)
		}
		d.pdf.Text(marginLeft+5, y, line)
		y += 5
	}
}

// adjustmentPercent renders a multiplier as a signed percentage, e.g.
// 1.3 -> "+30%", 0.9 -> "-10%".
func adjustmentPercent(multiplier float64) string {
	pct := int((multiplier-1)*100 + 0.5)
	if multiplier < 1 {
		pct = int((1-multiplier)*100 + 0.5)
		return fmt.Sprintf("-%d%%", pct)
	}
	return fmt.Sprintf("+%d%%", pct)
}

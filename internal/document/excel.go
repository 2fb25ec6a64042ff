package document

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"quote-service/internal/catalog"
	"quote-service/internal/pricing"
	"quote-service/internal/wizard"
)

// ExcelRenderer produces the spreadsheet variant of the quote, for
// recipients who want the numbers in tabular form.
type ExcelRenderer struct {
	cat *catalog.Catalog
}

func NewExcelRenderer(cat *catalog.Catalog) *ExcelRenderer {
	return &ExcelRenderer{cat: cat}
}

func (r *ExcelRenderer) Render(sel wizard.Selection, bd pricing.Breakdown, now time.Time) (Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("render xlsx: %w", err)
	}

	row := 1
	writeRow := func(label string, value any) {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), label)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), value)
		row++
	}
	writeHeading := func(text string) {
		cell := fmt.Sprintf("A%d", row)
		_ = f.SetCellValue(sheet, cell, text)
		_ = f.SetCellStyle(sheet, cell, cell, bold)
		row++
	}

	writeHeading("Devis détaillé")
	writeRow("Date", now.Format("02/01/2006"))
	row++

	writeHeading("Client")
	writeRow("Nom", sel.Contact.Name)
	if sel.Contact.Company != "" {
		writeRow("Entreprise", sel.Contact.Company)
	}
	writeRow("Email", sel.Contact.Email)
	row++

	if project, ok := r.cat.ProjectTypeByID(sel.ProjectType); ok {
		writeHeading("Projet")
		writeRow("Type", project.Name)
		writeRow("Description", project.Description)
		writeRow("Prix de base (€ HT)", project.BasePrice)
		row++
	}

	hasFeatures := false
	for _, id := range sel.Features {
		feature, ok := r.cat.FeatureByID(id)
		if !ok {
			continue
		}
		if !hasFeatures {
			writeHeading("Fonctionnalités additionnelles")
			hasFeatures = true
		}
		writeRow(feature.Name, feature.Price)
	}
	if hasFeatures {
		row++
	}

	if tier, ok := r.cat.TierByTag(sel.Urgency); ok {
		writeHeading("Délais")
		label := tier.Name
		if tier.Multiplier != 1 {
			label += " (" + adjustmentPercent(tier.Multiplier) + ")"
		}
		writeRow("Délais souhaités", label)
		row++
	}

	if sel.BudgetHint != "" {
		writeRow("Budget indicatif", sel.BudgetHint)
	}
	if sel.TimelineNote != "" {
		writeRow("Contraintes particulières", sel.TimelineNote)
	}
	if sel.BudgetHint != "" || sel.TimelineNote != "" {
		row++
	}

	writeHeading("Récapitulatif financier")
	writeRow("Total HT (€)", bd.Subtotal)
	writeRow("TVA 20% (€)", bd.TaxAmount)
	writeRow("Total TTC (€)", bd.TotalWithTax)

	if sel.Contact.Message != "" {
		row++
		writeHeading("Message client")
		writeRow("Message", sel.Contact.Message)
	}

	_ = f.SetColWidth(sheet, "A", "A", 30)
	_ = f.SetColWidth(sheet, "B", "B", 50)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Artifact{}, fmt.Errorf("render xlsx: %w", err)
	}

	return Artifact{
		Filename: Filename(sel.Contact.Name, "xlsx", now),
		Content:  buf.Bytes(),
	}, nil
}

// Package pricing turns a wizard selection into a price breakdown.
// The computation is pure: same selection and catalog, same breakdown,
// every time. Amounts are whole euros.
package pricing

import (
	"math"

	"quote-service/internal/catalog"
	"quote-service/internal/wizard"
)

// Breakdown is the itemized price derived from a selection. Subtotal
// and tax are rounded independently: subtotal from the multiplied sum,
// tax from the rounded subtotal. Total is their exact sum.
type Breakdown struct {
	BaseAmount     int     `json:"base_amount"`
	FeaturesAmount int     `json:"features_amount"`
	Multiplier     float64 `json:"multiplier"`
	Subtotal       int     `json:"subtotal"`
	TaxAmount      int     `json:"tax_amount"`
	TotalWithTax   int     `json:"total_with_tax"`
}

// Engine computes breakdowns against an injected catalog.
type Engine struct {
	cat *catalog.Catalog
}

func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat}
}

// ComputeBreakdown prices the selection. Missing or unknown catalog
// references never fail: an unset or unknown project type contributes
// 0, unknown feature ids contribute 0, an unknown urgency tag means
// standard pricing. Partial selections must still render a price.
func (e *Engine) ComputeBreakdown(sel wizard.Selection) Breakdown {
	base := 0
	if p, ok := e.cat.ProjectTypeByID(sel.ProjectType); ok {
		base = p.BasePrice
	}

	features := 0
	for _, id := range sel.Features {
		if f, ok := e.cat.FeatureByID(id); ok {
			features += f.Price
		}
	}

	multiplier := 1.0
	if tier, ok := e.cat.TierByTag(sel.Urgency); ok {
		multiplier = tier.Multiplier
	}

	subtotal := roundToEuro(float64(base+features) * multiplier)
	tax := roundToEuro(float64(subtotal) * e.cat.TaxRate)

	return Breakdown{
		BaseAmount:     base,
		FeaturesAmount: features,
		Multiplier:     multiplier,
		Subtotal:       subtotal,
		TaxAmount:      tax,
		TotalWithTax:   subtotal + tax,
	}
}

func roundToEuro(v float64) int {
	return int(math.Round(v))
}

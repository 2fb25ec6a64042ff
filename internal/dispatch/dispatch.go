// Package dispatch serializes a quote into the flat parameter set the
// mail relay's template expects and sends it. Sending is at-least-once:
// the relay has no idempotency key, so a manual resubmit after a
// timeout can deliver the same quote twice. Each payload carries a
// client-generated quote_ref so duplicates can at least be correlated.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quote-service/internal/catalog"
	"quote-service/internal/pricing"
	"quote-service/internal/wizard"
)

// Placeholder strings the mail template expects when optional parts of
// the selection are empty.
const (
	NoFeaturesPlaceholder = "Aucune fonctionnalité supplémentaire"
	NoMessagePlaceholder  = "Aucun message spécifique"
)

// Mode selects the payload completeness. ModeDiagnostic replaces the
// old separate test-send path; it is not reachable from the public
// surface.
type Mode int

const (
	ModeFull Mode = iota
	ModeDiagnostic
)

// Relay is the transport the dispatcher sends through.
type Relay interface {
	Send(ctx context.Context, params map[string]any) error
}

type Dispatcher struct {
	relay  Relay
	cat    *catalog.Catalog
	logger *zap.Logger
}

func NewDispatcher(relay Relay, cat *catalog.Catalog, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{relay: relay, cat: cat, logger: logger}
}

// Send transmits the full quote. The error is the relay's verbatim
// failure: a *emailjs.StatusError for a refused request, a wrapped
// transport error otherwise. No retry happens here.
func (d *Dispatcher) Send(ctx context.Context, sel wizard.Selection, bd pricing.Breakdown) error {
	return d.send(ctx, sel, bd, ModeFull)
}

// SendDiagnostic transmits a minimal payload to verify relay
// credentials and template wiring without a full quote.
func (d *Dispatcher) SendDiagnostic(ctx context.Context, sel wizard.Selection) error {
	return d.send(ctx, sel, pricing.Breakdown{}, ModeDiagnostic)
}

func (d *Dispatcher) send(ctx context.Context, sel wizard.Selection, bd pricing.Breakdown, mode Mode) error {
	quoteRef := uuid.NewString()

	var params map[string]any
	if mode == ModeDiagnostic {
		params = map[string]any{
			"email":       sel.Contact.Email,
			"client_name": sel.Contact.Name,
			"message":     "Message de diagnostic",
			"quote_ref":   quoteRef,
		}
	} else {
		params = TemplateParams(d.cat, sel, bd, quoteRef)
	}

	d.logger.Info("Dispatching quote",
		zap.String("quote_ref", quoteRef),
		zap.String("client_email", sel.Contact.Email),
		zap.Int("total_with_tax", bd.TotalWithTax),
		zap.Bool("diagnostic", mode == ModeDiagnostic))

	if err := d.relay.Send(ctx, params); err != nil {
		d.logger.Error("Quote dispatch failed",
			zap.String("quote_ref", quoteRef),
			zap.Error(err))
		return fmt.Errorf("dispatch quote %s: %w", quoteRef, err)
	}

	d.logger.Info("Quote dispatched", zap.String("quote_ref", quoteRef))
	return nil
}

// TemplateParams flattens the selection and breakdown into the named
// parameters of the mail template.
func TemplateParams(cat *catalog.Catalog, sel wizard.Selection, bd pricing.Breakdown, quoteRef string) map[string]any {
	var projectName, projectDescription string
	basePrice := 0
	if p, ok := cat.ProjectTypeByID(sel.ProjectType); ok {
		projectName = p.Name
		projectDescription = p.Description
		basePrice = p.BasePrice
	}

	var featureParts []string
	for _, id := range sel.Features {
		if f, ok := cat.FeatureByID(id); ok {
			featureParts = append(featureParts, fmt.Sprintf("%s (+%d€)", f.Name, f.Price))
		}
	}
	featuresList := NoFeaturesPlaceholder
	if len(featureParts) > 0 {
		featuresList = strings.Join(featureParts, ", ")
	}

	// The urgency descriptor is only present when the client deviates
	// from standard delivery.
	urgencyInfo := ""
	if sel.Urgency != catalog.UrgencyStandard {
		if tier, ok := cat.TierByTag(sel.Urgency); ok {
			urgencyInfo = fmt.Sprintf("Délais %s (%s)", tier.Tag, tier.Name)
		}
	}

	message := sel.Contact.Message
	if message == "" {
		message = NoMessagePlaceholder
	}

	return map[string]any{
		"email":               sel.Contact.Email,
		"client_name":         sel.Contact.Name,
		"client_company":      sel.Contact.Company,
		"project_type":        projectName,
		"project_description": projectDescription,
		"base_price":          basePrice,
		"features_list":       featuresList,
		"urgency_info":        urgencyInfo,
		"price_ht":            bd.Subtotal,
		"tva_amount":          bd.TaxAmount,
		"total_price":         bd.TotalWithTax,
		"client_message":      message,
		"timeline":            sel.TimelineNote,
		"budget":              sel.BudgetHint,
		"quote_ref":           quoteRef,
	}
}

// Package catalog holds the static pricing data the quote engine works
// from: project types, optional features, urgency tiers and the tax
// rate. The catalog is injected as data so pricing changes never touch
// logic, and so tests can run against alternate catalogs.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultTaxRate is the French VAT rate applied to every quote.
const DefaultTaxRate = 0.20

// Urgency tags understood by the pricing engine. Unknown tags degrade
// to standard pricing rather than failing.
const (
	UrgencyFlexible = "flexible"
	UrgencyStandard = "standard"
	UrgencyUrgent   = "urgent"
)

// ProjectType is an immutable catalog entry. BasePrice is in whole
// euros. Icon is presentational and ignored by the engine.
type ProjectType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BasePrice   int    `json:"base_price"`
	Icon        string `json:"icon"`
}

// Feature is an optional add-on with an additive price in whole euros.
// Category is a presentation-only grouping label.
type Feature struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	Category    string `json:"category"`
}

// UrgencyTier scales the subtotal by Multiplier.
type UrgencyTier struct {
	Tag        string  `json:"tag"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

type Catalog struct {
	ProjectTypes []ProjectType `json:"project_types"`
	Features     []Feature     `json:"features"`
	UrgencyTiers []UrgencyTier `json:"urgency_tiers"`
	TaxRate      float64       `json:"tax_rate"`
}

// Default returns the reference catalog.
func Default() *Catalog {
	return &Catalog{
		ProjectTypes: []ProjectType{
			{ID: "vitrine", Name: "Site vitrine", Description: "Site web élégant pour présenter votre entreprise", BasePrice: 1200, Icon: "🌐"},
			{ID: "webapp", Name: "Application web", Description: "Application web interactive avec fonctionnalités avancées", BasePrice: 4500, Icon: "💻"},
			{ID: "mobile", Name: "Application mobile", Description: "App mobile native ou hybride iOS/Android", BasePrice: 7500, Icon: "📱"},
			{ID: "ai", Name: "Projet IA", Description: "Solution d'intelligence artificielle personnalisée", BasePrice: 8000, Icon: "🤖"},
			{ID: "dashboard", Name: "Dashboard", Description: "Tableau de bord analytique et reporting", BasePrice: 5000, Icon: "📊"},
		},
		Features: []Feature{
			{ID: "auth", Name: "Authentification", Description: "Système de connexion utilisateur sécurisé", Price: 800, Category: "Sécurité"},
			{ID: "payment", Name: "Paiement en ligne", Description: "Intégration Stripe/PayPal pour e-commerce", Price: 1200, Category: "Commerce"},
			{ID: "ai-api", Name: "API IA", Description: "Intégration OpenAI, chatbots, ou ML personnalisé", Price: 2000, Category: "Intelligence Artificielle"},
			{ID: "analytics", Name: "Analytics", Description: "Suivi utilisateurs, métriques et reporting", Price: 600, Category: "Analyse"},
			{ID: "multilang", Name: "Multilingue", Description: "Support de plusieurs langues", Price: 900, Category: "Internationalisation"},
			{ID: "automation", Name: "Automatisation", Description: "Scripts et workflows automatisés", Price: 1500, Category: "Productivité"},
			{ID: "cms", Name: "CMS Admin", Description: "Interface d'administration pour gérer le contenu", Price: 1000, Category: "Gestion"},
			{ID: "api", Name: "API REST", Description: "API backend avec documentation complète", Price: 1300, Category: "Backend"},
		},
		UrgencyTiers: []UrgencyTier{
			{Tag: UrgencyFlexible, Name: "Flexible (2-3 mois)", Multiplier: 0.9},
			{Tag: UrgencyStandard, Name: "Standard (4-6 semaines)", Multiplier: 1.0},
			{Tag: UrgencyUrgent, Name: "Urgent (2-3 semaines)", Multiplier: 1.3},
		},
		TaxRate: DefaultTaxRate,
	}
}

// Load reads a catalog from a JSON file and validates it.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return &c, nil
}

func (c *Catalog) ProjectTypeByID(id string) (ProjectType, bool) {
	for _, p := range c.ProjectTypes {
		if p.ID == id {
			return p, true
		}
	}
	return ProjectType{}, false
}

func (c *Catalog) FeatureByID(id string) (Feature, bool) {
	for _, f := range c.Features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}

func (c *Catalog) TierByTag(tag string) (UrgencyTier, bool) {
	for _, u := range c.UrgencyTiers {
		if u.Tag == tag {
			return u, true
		}
	}
	return UrgencyTier{}, false
}

// Validate checks the structural invariants: unique non-empty ids,
// non-negative amounts, positive multipliers, tax rate in [0, 1).
func (c *Catalog) Validate() error {
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("tax rate %v out of range [0, 1)", c.TaxRate)
	}

	seen := make(map[string]bool)
	for _, p := range c.ProjectTypes {
		if p.ID == "" {
			return fmt.Errorf("project type with empty id")
		}
		if seen["p:"+p.ID] {
			return fmt.Errorf("duplicate project type id %q", p.ID)
		}
		seen["p:"+p.ID] = true
		if p.BasePrice < 0 {
			return fmt.Errorf("project type %q has negative base price", p.ID)
		}
	}

	for _, f := range c.Features {
		if f.ID == "" {
			return fmt.Errorf("feature with empty id")
		}
		if seen["f:"+f.ID] {
			return fmt.Errorf("duplicate feature id %q", f.ID)
		}
		seen["f:"+f.ID] = true
		if f.Price < 0 {
			return fmt.Errorf("feature %q has negative price", f.ID)
		}
	}

	for _, u := range c.UrgencyTiers {
		if u.Tag == "" {
			return fmt.Errorf("urgency tier with empty tag")
		}
		if seen["u:"+u.Tag] {
			return fmt.Errorf("duplicate urgency tag %q", u.Tag)
		}
		seen["u:"+u.Tag] = true
		if u.Multiplier <= 0 {
			return fmt.Errorf("urgency tier %q has non-positive multiplier", u.Tag)
		}
	}

	return nil
}

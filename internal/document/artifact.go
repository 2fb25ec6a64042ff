// Package document renders a quote into a downloadable artifact. The
// primary format is a paginated PDF; a spreadsheet renderer exists for
// callers that want tabular output. Renderers must cope with partial
// selections: optional sections are skipped, required ones (client
// info, financial summary) always render, with zero amounts if needed.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quote-service/internal/pricing"
	"quote-service/internal/wizard"
)

// Artifact is a rendered quote document plus its suggested filename.
type Artifact struct {
	Filename string
	Content  []byte
}

// SaveTo writes the artifact into dir under its suggested filename and
// returns the full path.
func (a Artifact) SaveTo(dir string) (string, error) {
	path := filepath.Join(dir, a.Filename)
	if err := os.WriteFile(path, a.Content, 0o644); err != nil {
		return "", fmt.Errorf("save artifact: %w", err)
	}
	return path, nil
}

// Renderer turns a selection and its breakdown into an artifact.
type Renderer interface {
	Render(sel wizard.Selection, bd pricing.Breakdown, now time.Time) (Artifact, error)
}

// Issuer is the identity printed in the document footer.
type Issuer struct {
	Name     string
	Title    string
	Email    string
	Phone    string
	Location string
}

// DefaultIssuer matches the reference quote documents.
var DefaultIssuer = Issuer{
	Name:     "Kevin COUTELLIER",
	Title:    "Développeur Full-Stack & Scrum Master",
	Email:    "kev.coutellier@gmail.com",
	Phone:    "07 88 44 02 32",
	Location: "Antibes, France",
}

// Filename builds the artifact name: quote-<client>-<unix>.<ext>, with
// whitespace runs in the client name collapsed to hyphens.
func Filename(clientName, ext string, now time.Time) string {
	name := strings.Join(strings.Fields(clientName), "-")
	if name == "" {
		name = "client"
	}
	return fmt.Sprintf("quote-%s-%d.%s", name, now.Unix(), ext)
}

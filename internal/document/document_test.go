package document

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quote-service/internal/catalog"
	"quote-service/internal/pricing"
	"quote-service/internal/wizard"
)

var testTime = time.Unix(1700000000, 0)

func fullSelection() wizard.Selection {
	sel := wizard.NewSelection()
	sel.SetProjectType("webapp")
	sel.ToggleFeature("auth")
	sel.ToggleFeature("payment")
	sel.SetUrgency(catalog.UrgencyUrgent)
	sel.SetBudgetHint("5000€ - 10000€")
	sel.SetTimelineNote("Lancement souhaité avant l'été")
	sel.SetContact(wizard.Contact{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Company: "Analytical Engines",
		Message: "Merci de prévoir une démo intermédiaire.",
	})
	return sel
}

func TestFilename(t *testing.T) {
	cases := []struct {
		client string
		ext    string
		want   string
	}{
		{"Ada Lovelace", "pdf", "quote-Ada-Lovelace-1700000000.pdf"},
		{"  Jean   Pierre  Dupont ", "xlsx", "quote-Jean-Pierre-Dupont-1700000000.xlsx"},
		{"", "pdf", "quote-client-1700000000.pdf"},
	}

	for _, tc := range cases {
		if got := Filename(tc.client, tc.ext, testTime); got != tc.want {
			t.Errorf("Filename(%q) = %q, want %q", tc.client, got, tc.want)
		}
	}
}

func TestPDFRenderer_FullSelection(t *testing.T) {
	cat := catalog.Default()
	sel := fullSelection()
	bd := pricing.NewEngine(cat).ComputeBreakdown(sel)

	artifact, err := NewPDFRenderer(cat, DefaultIssuer).Render(sel, bd, testTime)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.HasSuffix(artifact.Filename, ".pdf") {
		t.Errorf("filename = %q, want .pdf suffix", artifact.Filename)
	}
	if !bytes.HasPrefix(artifact.Content, []byte("%PDF")) {
		t.Error("content is not a PDF")
	}
}

func TestPDFRenderer_EmptySelectionStillRenders(t *testing.T) {
	cat := catalog.Default()
	sel := wizard.NewSelection()
	bd := pricing.NewEngine(cat).ComputeBreakdown(sel)

	artifact, err := NewPDFRenderer(cat, DefaultIssuer).Render(sel, bd, testTime)
	if err != nil {
		t.Fatalf("Render failed on empty selection: %v", err)
	}
	if len(artifact.Content) == 0 {
		t.Error("empty artifact for empty selection")
	}
	if artifact.Filename != "quote-client-1700000000.pdf" {
		t.Errorf("filename = %q", artifact.Filename)
	}
}

func TestPDFRenderer_LongMessagePaginates(t *testing.T) {
	cat := catalog.Default()
	sel := fullSelection()
	sel.Contact.Message = strings.Repeat("Une phrase assez longue pour forcer le passage à la page suivante. ", 80)
	bd := pricing.NewEngine(cat).ComputeBreakdown(sel)

	artifact, err := NewPDFRenderer(cat, DefaultIssuer).Render(sel, bd, testTime)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if got := pdfPageCount(artifact.Content); got < 2 {
		t.Errorf("long document has %d page(s), want at least 2", got)
	}

	short, err := NewPDFRenderer(cat, DefaultIssuer).Render(fullSelection(), bd, testTime)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := pdfPageCount(short.Content); got != 1 {
		t.Errorf("short document has %d page(s), want 1", got)
	}
}

// pdfPageCount counts page objects in the raw output. Each page dict
// carries "/Type /Page"; the page-tree root carries "/Type /Pages" and
// matches both patterns, hence the subtraction.
func pdfPageCount(content []byte) int {
	return bytes.Count(content, []byte("/Type /Page")) - bytes.Count(content, []byte("/Type /Pages"))
}

func TestExcelRenderer(t *testing.T) {
	cat := catalog.Default()
	sel := fullSelection()
	bd := pricing.NewEngine(cat).ComputeBreakdown(sel)

	artifact, err := NewExcelRenderer(cat).Render(sel, bd, testTime)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.HasSuffix(artifact.Filename, ".xlsx") {
		t.Errorf("filename = %q, want .xlsx suffix", artifact.Filename)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(artifact.Content, []byte("PK")) {
		t.Error("content is not a zip archive")
	}
}

func TestExcelRenderer_EmptySelection(t *testing.T) {
	cat := catalog.Default()
	sel := wizard.NewSelection()
	bd := pricing.NewEngine(cat).ComputeBreakdown(sel)

	if _, err := NewExcelRenderer(cat).Render(sel, bd, testTime); err != nil {
		t.Fatalf("Render failed on empty selection: %v", err)
	}
}

func TestArtifact_SaveTo(t *testing.T) {
	dir := t.TempDir()
	artifact := Artifact{Filename: "quote-test-1.pdf", Content: []byte("%PDF-fake")}

	path, err := artifact.SaveTo(dir)
	if err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}
	if path != filepath.Join(dir, "quote-test-1.pdf") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, artifact.Content) {
		t.Error("content mismatch after save")
	}
}

// Package export orchestrates the terminal actions of the wizard:
// rendering a downloadable document and submitting the quote through
// the mail relay. It owns the per-session single-submission guard and
// translates failures into client-facing outcomes with a remediation
// hint.
package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"quote-service/internal/document"
	"quote-service/internal/notify"
	"quote-service/internal/pricing"
	"quote-service/internal/wizard"
	"quote-service/pkg/emailjs"
)

// Client-facing outcome messages. The failure variants name a concrete
// fallback so a blocked client is never left without a path forward.
const (
	msgSuccess = "Votre demande de devis a été envoyée avec succès ! Vous recevrez une réponse sous 24h."
	msgBusy    = "Un envoi est déjà en cours, veuillez patienter."

	msgIncomplete = "Veuillez renseigner votre nom et une adresse email valide avant d'envoyer la demande."

	msgRefused = "Le service d'envoi a refusé la demande. Vérifiez vos informations puis réessayez, " +
		"ou contactez-nous directement à kev.coutellier@gmail.com."
	msgUnreachable = "Impossible de contacter le service d'envoi. Vérifiez votre connexion internet et réessayez, " +
		"ou téléchargez le devis en PDF et envoyez-le à kev.coutellier@gmail.com."
)

var (
	ErrUnknownFormat = errors.New("unknown document format")

	// ErrIncomplete is returned when the shared export precondition
	// (client name plus a valid email) is not met.
	ErrIncomplete = errors.New("selection not ready for export")
)

// Outcome is the result surfaced to the client after a submission
// attempt. Message is display-ready French text.
type Outcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Sender is the dispatch side of a submission.
type Sender interface {
	Send(ctx context.Context, sel wizard.Selection, bd pricing.Breakdown) error
}

type Exporter struct {
	renderers map[string]document.Renderer
	sender    Sender
	notifier  notify.Notifier
	engine    *pricing.Engine
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewExporter(renderers map[string]document.Renderer, sender Sender, notifier notify.Notifier, engine *pricing.Engine, logger *zap.Logger) *Exporter {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Exporter{
		renderers: renderers,
		sender:    sender,
		notifier:  notifier,
		engine:    engine,
		logger:    logger,
		inFlight:  make(map[string]bool),
	}
}

// GenerateDocument renders the selection in the requested format. The
// selection must pass the same contact precondition as a submission;
// the document is addressed to the client it names.
func (e *Exporter) GenerateDocument(ctx context.Context, sel wizard.Selection, format string, now time.Time) (document.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return document.Artifact{}, err
	}
	if !sel.CanSubmit() {
		return document.Artifact{}, ErrIncomplete
	}

	renderer, ok := e.renderers[format]
	if !ok {
		return document.Artifact{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return renderer.Render(sel, e.engine.ComputeBreakdown(sel), now)
}

// Submit dispatches the quote. Only one submission per session runs at
// a time; a concurrent call for the same session gets the busy outcome
// without touching the relay, while other sessions are unaffected. The
// guard re-arms after every attempt, success or failure, so the client
// can retry manually.
func (e *Exporter) Submit(ctx context.Context, sessionID string, sel wizard.Selection) Outcome {
	if !sel.CanSubmit() {
		return Outcome{OK: false, Message: msgIncomplete}
	}

	if !e.acquire(sessionID) {
		e.logger.Warn("Submission rejected, another one in flight",
			zap.String("session_id", sessionID))
		return Outcome{OK: false, Message: msgBusy}
	}
	defer e.release(sessionID)

	bd := e.engine.ComputeBreakdown(sel)

	if err := e.sender.Send(ctx, sel, bd); err != nil {
		var statusErr *emailjs.StatusError
		if errors.As(err, &statusErr) {
			e.logger.Error("Relay refused submission",
				zap.Int("status", statusErr.Code),
				zap.Error(err))
			return Outcome{OK: false, Message: msgRefused}
		}
		e.logger.Error("Relay unreachable", zap.Error(err))
		return Outcome{OK: false, Message: msgUnreachable}
	}

	e.notifier.QuoteSubmitted(sel, bd)
	return Outcome{OK: true, Message: msgSuccess}
}

func (e *Exporter) acquire(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[sessionID] {
		return false
	}
	e.inFlight[sessionID] = true
	return true
}

func (e *Exporter) release(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, sessionID)
}

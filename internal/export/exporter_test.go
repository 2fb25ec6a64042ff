package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"quote-service/internal/catalog"
	"quote-service/internal/document"
	"quote-service/internal/pricing"
	"quote-service/internal/wizard"
	"quote-service/pkg/emailjs"
)

type fakeSender struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   chan struct{}
	lastSel wizard.Selection
}

func (f *fakeSender) Send(_ context.Context, sel wizard.Selection, _ pricing.Breakdown) error {
	f.mu.Lock()
	f.calls++
	f.lastSel = sel
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.err
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeNotifier) QuoteSubmitted(wizard.Selection, pricing.Breakdown) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

type fakeRenderer struct {
	artifact document.Artifact
	err      error
}

func (f *fakeRenderer) Render(wizard.Selection, pricing.Breakdown, time.Time) (document.Artifact, error) {
	return f.artifact, f.err
}

func submittableSelection() wizard.Selection {
	sel := wizard.NewSelection()
	sel.SetProjectType("webapp")
	sel.SetContact(wizard.Contact{Name: "Ada Lovelace", Email: "ada@example.com"})
	return sel
}

func newExporter(sender Sender, notifier *fakeNotifier) *Exporter {
	engine := pricing.NewEngine(catalog.Default())
	renderers := map[string]document.Renderer{
		"pdf": &fakeRenderer{artifact: document.Artifact{Filename: "quote.pdf", Content: []byte("%PDF")}},
	}
	return NewExporter(renderers, sender, notifier, engine, zap.NewNop())
}

func TestGenerateDocument(t *testing.T) {
	e := newExporter(&fakeSender{}, &fakeNotifier{})

	artifact, err := e.GenerateDocument(context.Background(), submittableSelection(), "pdf", time.Now())
	if err != nil {
		t.Fatalf("GenerateDocument failed: %v", err)
	}
	if artifact.Filename != "quote.pdf" {
		t.Errorf("filename = %q", artifact.Filename)
	}
}

func TestGenerateDocument_UnknownFormat(t *testing.T) {
	e := newExporter(&fakeSender{}, &fakeNotifier{})

	_, err := e.GenerateDocument(context.Background(), submittableSelection(), "docx", time.Now())
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("error = %v, want ErrUnknownFormat", err)
	}
}

func TestGenerateDocument_IncompleteContact(t *testing.T) {
	e := newExporter(&fakeSender{}, &fakeNotifier{})

	sel := wizard.NewSelection()
	sel.SetProjectType("webapp")

	_, err := e.GenerateDocument(context.Background(), sel, "pdf", time.Now())
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("error = %v, want ErrIncomplete", err)
	}

	sel.SetContact(wizard.Contact{Name: "Ada", Email: "not-an-email"})
	if _, err := e.GenerateDocument(context.Background(), sel, "pdf", time.Now()); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("error = %v, want ErrIncomplete for invalid email", err)
	}
}

func TestGenerateDocument_CancelledContext(t *testing.T) {
	e := newExporter(&fakeSender{}, &fakeNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.GenerateDocument(ctx, submittableSelection(), "pdf", time.Now()); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestSubmit_Success(t *testing.T) {
	sender := &fakeSender{}
	notifier := &fakeNotifier{}
	e := newExporter(sender, notifier)

	outcome := e.Submit(context.Background(), "s1", submittableSelection())
	if !outcome.OK {
		t.Fatalf("outcome not OK: %q", outcome.Message)
	}
	if sender.callCount() != 1 {
		t.Errorf("sender called %d times, want 1", sender.callCount())
	}
	if notifier.calls != 1 {
		t.Errorf("notifier called %d times, want 1", notifier.calls)
	}
}

func TestSubmit_IncompleteContact(t *testing.T) {
	sender := &fakeSender{}
	e := newExporter(sender, &fakeNotifier{})

	sel := wizard.NewSelection()
	sel.SetProjectType("webapp")
	sel.SetContact(wizard.Contact{Name: "Ada", Email: "not-an-email"})

	outcome := e.Submit(context.Background(), "s1", sel)
	if outcome.OK {
		t.Fatal("incomplete selection submitted")
	}
	if sender.callCount() != 0 {
		t.Errorf("sender called %d times, want 0", sender.callCount())
	}
}

func TestSubmit_RefusedVsUnreachable(t *testing.T) {
	refused := &fakeSender{err: fmt.Errorf("dispatch: %w", &emailjs.StatusError{Code: 422, Body: "bad template"})}
	e := newExporter(refused, &fakeNotifier{})
	outcome := e.Submit(context.Background(), "s1", submittableSelection())
	if outcome.OK {
		t.Fatal("refused submission reported as OK")
	}
	if !strings.Contains(outcome.Message, "refusé") {
		t.Errorf("refused message = %q", outcome.Message)
	}

	unreachable := &fakeSender{err: errors.New("dial tcp: connection refused")}
	e = newExporter(unreachable, &fakeNotifier{})
	outcome = e.Submit(context.Background(), "s1", submittableSelection())
	if outcome.OK {
		t.Fatal("unreachable submission reported as OK")
	}
	if !strings.Contains(outcome.Message, "connexion") {
		t.Errorf("unreachable message = %q", outcome.Message)
	}
}

func TestSubmit_NoNotificationOnFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	e := newExporter(&fakeSender{err: errors.New("down")}, notifier)

	e.Submit(context.Background(), "s1", submittableSelection())
	if notifier.calls != 0 {
		t.Errorf("notifier called %d times on failure, want 0", notifier.calls)
	}
}

func TestSubmit_ConcurrentGuardSameSession(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	e := newExporter(sender, &fakeNotifier{})

	first := make(chan Outcome, 1)
	go func() {
		first <- e.Submit(context.Background(), "s1", submittableSelection())
	}()

	waitForCalls(t, sender, 1)

	second := e.Submit(context.Background(), "s1", submittableSelection())
	if second.OK {
		t.Error("concurrent submission accepted")
	}
	if second.Message != msgBusy {
		t.Errorf("concurrent message = %q", second.Message)
	}

	close(sender.block)
	if outcome := <-first; !outcome.OK {
		t.Errorf("first submission failed: %q", outcome.Message)
	}
	if sender.callCount() != 1 {
		t.Errorf("sender called %d times, want 1", sender.callCount())
	}
}

func TestSubmit_GuardIsPerSession(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	e := newExporter(sender, &fakeNotifier{})

	first := make(chan Outcome, 1)
	go func() {
		first <- e.Submit(context.Background(), "s1", submittableSelection())
	}()

	waitForCalls(t, sender, 1)

	// A different session is not held up by s1's in-flight submit.
	other := make(chan Outcome, 1)
	go func() {
		other <- e.Submit(context.Background(), "s2", submittableSelection())
	}()
	waitForCalls(t, sender, 2)

	close(sender.block)
	if outcome := <-first; !outcome.OK {
		t.Errorf("s1 submission failed: %q", outcome.Message)
	}
	if outcome := <-other; !outcome.OK {
		t.Errorf("s2 submission failed: %q", outcome.Message)
	}
}

func TestSubmit_GuardReArmsAfterFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("down")}
	e := newExporter(sender, &fakeNotifier{})

	if outcome := e.Submit(context.Background(), "s1", submittableSelection()); outcome.OK {
		t.Fatal("failing submission reported OK")
	}

	sender.err = nil
	if outcome := e.Submit(context.Background(), "s1", submittableSelection()); !outcome.OK {
		t.Fatalf("retry after failure rejected: %q", outcome.Message)
	}
	if sender.callCount() != 2 {
		t.Errorf("sender called %d times, want 2", sender.callCount())
	}
}

func waitForCalls(t *testing.T, sender *fakeSender, want int) {
	t.Helper()
	deadline := time.After(time.Second)
	for sender.callCount() < want {
		select {
		case <-deadline:
			t.Fatalf("sender never reached %d calls", want)
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

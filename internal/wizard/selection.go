// Package wizard implements the quote wizard: the working selection a
// visitor builds up across four ordered steps, the stepper guarding
// forward navigation, and the session stores backing it.
package wizard

import "strings"

// Wizard steps, in order. Step 4 is terminal for forward motion; the
// submit action carries its own precondition instead of a step guard.
const (
	StepProjectType     = 1
	StepFeatures        = 2
	StepBudgetTiming    = 3
	StepReviewAndSubmit = 4
)

// Contact holds the client identity collected on the last step. Name
// and Email gate submission; the rest is optional.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Message string `json:"message,omitempty"`
}

// Selection is the wizard's working state for one session. Price is
// always recomputable from a Selection plus the static catalog; no
// other state feeds the computation.
type Selection struct {
	ProjectType  string   `json:"project_type"`
	Features     []string `json:"features"`
	BudgetHint   string   `json:"budget_hint"`
	TimelineNote string   `json:"timeline_note"`
	Urgency      string   `json:"urgency"`
	Contact      Contact  `json:"contact"`
	CurrentStep  int      `json:"current_step"`
}

// NewSelection returns the initial state: step 1, standard urgency,
// nothing selected.
func NewSelection() Selection {
	return Selection{
		Features:    []string{},
		Urgency:     "standard",
		CurrentStep: StepProjectType,
	}
}

// Next advances one step when the current step's guard passes. Only
// step 1 has a guard (a project type must be chosen); features and
// budget/timing are optional. Returns whether the step changed.
func (s *Selection) Next() bool {
	if s.CurrentStep >= StepReviewAndSubmit {
		return false
	}
	if s.CurrentStep == StepProjectType && s.ProjectType == "" {
		return false
	}
	s.CurrentStep++
	return true
}

// Previous steps back one step. Always allowed above step 1 and never
// touches the entered data.
func (s *Selection) Previous() bool {
	if s.CurrentStep <= StepProjectType {
		return false
	}
	s.CurrentStep--
	return true
}

// ToggleFeature adds the feature if absent and removes it if present.
// Callable at any step; never changes the current step.
func (s *Selection) ToggleFeature(id string) {
	for i, f := range s.Features {
		if f == id {
			s.Features = append(s.Features[:i], s.Features[i+1:]...)
			return
		}
	}
	s.Features = append(s.Features, id)
}

// HasFeature reports whether the feature is currently selected.
func (s *Selection) HasFeature(id string) bool {
	for _, f := range s.Features {
		if f == id {
			return true
		}
	}
	return false
}

func (s *Selection) SetProjectType(id string)    { s.ProjectType = id }
func (s *Selection) SetUrgency(tag string)       { s.Urgency = tag }
func (s *Selection) SetBudgetHint(text string)   { s.BudgetHint = text }
func (s *Selection) SetTimelineNote(text string) { s.TimelineNote = text }
func (s *Selection) SetContact(c Contact)        { s.Contact = c }

// CanSubmit is the shared precondition for dispatch and document
// export: a non-empty client name and a plausibly shaped email.
func (s *Selection) CanSubmit() bool {
	return strings.TrimSpace(s.Contact.Name) != "" && IsValidEmail(s.Contact.Email)
}

// IsValidEmail checks for a non-empty local part and domain. Anything
// deeper is the mail relay's problem.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.Contains(email[at+1:], "@")
}

package analyses

import (
	"fmt"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// SessionState of the create/edit form
type SessionState int

const (
	Idle SessionState = iota
	Composing
	Submitting
)

func (s SessionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Composing:
		return "composing"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s SessionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Session is the form state machine:
//
//	Idle -> Composing -> Submitting -> Idle (success) | Composing (failure)
//
// It holds no I/O; the controller drives the Submitting edge.
// Session is not safe for concurrent use.
type Session struct {
	state     SessionState
	draft     domain.Fields
	editingID domain.ID
	failed    bool

	// gen changes every time the form is (re)opened so that a submit that
	// completes after the user moved on does not clobber the new draft.
	gen uint64
}

func NewSession() *Session {
	return &Session{state: Idle, draft: domain.BlankFields()}
}

// SessionView is a copy of the session exposed to presentation.
type SessionView struct {
	State     SessionState  `json:"state"`
	Draft     domain.Fields `json:"draft"`
	EditingID domain.ID     `json:"editing_id,omitempty"`
	Failed    bool          `json:"failed"`
}

func (s *Session) View() SessionView {
	return SessionView{State: s.state, Draft: s.draft, EditingID: s.editingID, Failed: s.failed}
}

func (s *Session) State() SessionState { return s.state }

// OpenForCreate starts a blank draft from any state.
func (s *Session) OpenForCreate() {
	s.gen++
	s.state = Composing
	s.draft = domain.BlankFields()
	s.editingID = ""
	s.failed = false
}

// OpenForEdit copies a record into the draft from any state.
func (s *Session) OpenForEdit(a domain.Analysis) {
	s.gen++
	s.state = Composing
	s.draft = a.Fields
	s.editingID = a.ID
	s.failed = false
}

// UpdateDraftField replaces one draft field. No validation until submit.
func (s *Session) UpdateDraftField(field, value string) error {
	if s.state != Composing {
		return fmt.Errorf("update draft while %s: %w", s.state, domain.ErrInvalidTransition)
	}
	next, err := s.draft.With(field, value)
	if err != nil {
		return err
	}
	s.draft = next
	return nil
}

// SetAnalysis writes a suggested narrative into the draft.
func (s *Session) SetAnalysis(text string) error {
	return s.UpdateDraftField(domain.FieldAnalysis, text)
}

// submission is what the controller needs to run the mutation.
type submission struct {
	gen       uint64
	editingID domain.ID
	fields    domain.Fields
}

// BeginSubmit validates the draft and moves to Submitting. On a validation
// failure the session stays Composing with the draft untouched.
func (s *Session) BeginSubmit() (submission, error) {
	if s.state != Composing {
		return submission{}, fmt.Errorf("submit while %s: %w", s.state, domain.ErrInvalidTransition)
	}
	if err := s.draft.Validate(); err != nil {
		return submission{}, err
	}
	s.state = Submitting
	s.failed = false
	return submission{gen: s.gen, editingID: s.editingID, fields: s.draft}, nil
}

// Succeed resets the form to Idle. Returns false when the form was reopened
// while the mutation was in flight; the new draft is left alone.
func (s *Session) Succeed(sub submission) bool {
	if sub.gen != s.gen || s.state != Submitting {
		return false
	}
	s.state = Idle
	s.draft = domain.BlankFields()
	s.editingID = ""
	s.failed = false
	return true
}

// Fail returns to Composing with the draft preserved and the error flag set.
func (s *Session) Fail(sub submission) bool {
	if sub.gen != s.gen || s.state != Submitting {
		return false
	}
	s.state = Composing
	s.failed = true
	return true
}

// Cancel discards the draft. Cancelling an idle form is a no-op; a form that
// is submitting cannot be cancelled.
func (s *Session) Cancel() error {
	switch s.state {
	case Idle:
		return nil
	case Submitting:
		return fmt.Errorf("cancel while %s: %w", s.state, domain.ErrInvalidTransition)
	}
	s.gen++
	s.state = Idle
	s.draft = domain.BlankFields()
	s.editingID = ""
	s.failed = false
	return nil
}

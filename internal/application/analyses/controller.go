package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/repair-analysis/internal/application"
	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// Controller owns the application state (tab, search, form, record store) and
// implements the user intents. Every successful mutation is followed by a full
// refresh from the repository; the store is never patched locally.
//
// Repository calls are strictly sequential: ioMu is held from a mutation until
// its follow-up refresh completes. Controller is safe for concurrent use.
type Controller struct {
	repo     domain.Repository
	notifier domain.Notifier
	advisor  domain.Advisor
	archive  domain.Archive
	clock    application.Clock
	log      *zap.Logger

	store *Store
	ioMu  sync.Mutex

	mu            sync.Mutex
	session       *Session
	tab           domain.Category
	query         string
	lastErr       error
	pendingDelete domain.ID
}

// ErrNotConfigured an optional collaborator was not supplied.
var ErrNotConfigured = errors.New("not configured")

// Option configures optional collaborators.
type Option func(*Controller)

func WithNotifier(n domain.Notifier) Option { return func(c *Controller) { c.notifier = n } }
func WithAdvisor(a domain.Advisor) Option   { return func(c *Controller) { c.advisor = a } }
func WithArchive(a domain.Archive) Option   { return func(c *Controller) { c.archive = a } }
func WithClock(cl application.Clock) Option { return func(c *Controller) { c.clock = cl } }

func NewController(repo domain.Repository, log *zap.Logger, opts ...Option) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		repo:     repo,
		notifier: nopNotifier{},
		clock:    application.SystemClock{},
		log:      log.Named("analyses"),
		store:    NewStore(),
		session:  NewSession(),
		tab:      domain.CategoryLogical,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store exposes the record store read-only to collaborators.
func (c *Controller) Store() *Store { return c.store }

// Init performs the initial list. The loading flag is cleared whatever the outcome.
func (c *Controller) Init(ctx context.Context) error {
	return c.Refresh(ctx)
}

// Refresh re-lists every record and replaces the store contents.
func (c *Controller) Refresh(ctx context.Context) error {
	c.ioMu.Lock()
	defer c.ioMu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Controller) refreshLocked(ctx context.Context) error {
	defer c.store.FinishLoading()

	records, err := c.repo.List(ctx)
	if err != nil {
		return c.ioFailure(ctx, "list", "", err)
	}
	if dropped := c.store.ReplaceAll(records, c.clock.Now()); dropped > 0 {
		c.log.Warn("duplicate ids in listing", zap.Int("dropped", dropped))
	}
	c.log.Debug("records refreshed", zap.Int("count", len(records)))

	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
	c.notifier.Notify(ctx, domain.Event{Kind: domain.EventRefreshed, Count: len(records)})
	return nil
}

// SelectTab switches the category whose records are visible.
func (c *Controller) SelectTab(cat domain.Category) error {
	if !cat.Valid() {
		return &domain.ValidationError{Fields: []string{domain.FieldCategory}}
	}
	c.mu.Lock()
	c.tab = cat
	c.mu.Unlock()
	return nil
}

func (c *Controller) SetSearchQuery(q string) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()
}

func (c *Controller) OpenForCreate() {
	c.mu.Lock()
	c.session.OpenForCreate()
	c.mu.Unlock()
}

// OpenForEdit loads the record with id from the store into the form.
func (c *Controller) OpenForEdit(id domain.ID) error {
	rec, ok := c.store.Find(id)
	if !ok {
		return fmt.Errorf("edit %s: %w", id, domain.ErrNotFound)
	}
	c.mu.Lock()
	c.session.OpenForEdit(rec)
	c.mu.Unlock()
	return nil
}

func (c *Controller) UpdateDraftField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.UpdateDraftField(field, value)
}

func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Cancel()
}

// Submit validates the draft and runs create or update. A validation failure
// never reaches the repository. On success the form is reset and the record
// set is refreshed; an error returned after a successful mutation comes from
// that refresh. On failure the draft is kept for retry.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	sub, err := c.session.BeginSubmit()
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.lastErr = err
		}
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	op, kind := "create", domain.EventCreated
	if sub.editingID != "" {
		op, kind = "update", domain.EventUpdated
		err = c.repo.Update(ctx, sub.editingID, sub.fields)
	} else {
		err = c.repo.Create(ctx, sub.fields)
	}

	if err != nil {
		c.mu.Lock()
		c.session.Fail(sub)
		c.mu.Unlock()
		return c.ioFailure(ctx, op, sub.editingID, err)
	}

	c.mu.Lock()
	if !c.session.Succeed(sub) {
		c.log.Debug("form reopened during submit", zap.String("op", op))
	}
	c.lastErr = nil
	c.mu.Unlock()

	c.log.Info("analysis saved", zap.String("op", op), zap.String("id", string(sub.editingID)))
	c.notifier.Notify(ctx, domain.Event{Kind: kind, ID: sub.editingID})
	return c.refreshLocked(ctx)
}

// RequestDelete opens the confirmation gate for id.
func (c *Controller) RequestDelete(id domain.ID) {
	c.mu.Lock()
	c.pendingDelete = id
	c.mu.Unlock()
}

// DeclineDelete closes the confirmation gate without touching anything else.
func (c *Controller) DeclineDelete(id domain.ID) {
	c.mu.Lock()
	if c.pendingDelete == id {
		c.pendingDelete = ""
	}
	c.mu.Unlock()
}

// ConfirmDelete deletes id after RequestDelete(id) and refreshes. Deleting an
// id the backend no longer holds is a success.
func (c *Controller) ConfirmDelete(ctx context.Context, id domain.ID) error {
	c.mu.Lock()
	if id == "" || c.pendingDelete != id {
		c.mu.Unlock()
		return fmt.Errorf("confirm delete %s without request: %w", id, domain.ErrInvalidTransition)
	}
	c.pendingDelete = ""
	c.mu.Unlock()

	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	if err := c.repo.Delete(ctx, id); err != nil {
		return c.ioFailure(ctx, "delete", id, err)
	}
	c.log.Info("analysis deleted", zap.String("id", string(id)))
	c.notifier.Notify(ctx, domain.Event{Kind: domain.EventDeleted, ID: id})
	return c.refreshLocked(ctx)
}

// Confirmer is the yes/no gate in front of a delete.
type Confirmer interface {
	Confirm(ctx context.Context, a domain.Analysis) (bool, error)
}

// Delete runs the whole request/confirm sequence through confirm. A declined
// confirmation returns false and changes nothing. The record passed to the
// confirmer carries only the id when it is not in the store.
func (c *Controller) Delete(ctx context.Context, id domain.ID, confirm Confirmer) (bool, error) {
	c.RequestDelete(id)
	rec, ok := c.store.Find(id)
	if !ok {
		rec = domain.Analysis{ID: id}
	}
	yes, err := confirm.Confirm(ctx, rec)
	if err != nil || !yes {
		c.DeclineDelete(id)
		return false, err
	}
	if err := c.ConfirmDelete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// SuggestAnalysis asks the advisor for a narrative and writes it into the draft.
func (c *Controller) SuggestAnalysis(ctx context.Context) error {
	if c.advisor == nil {
		return fmt.Errorf("advisor: %w", ErrNotConfigured)
	}
	c.mu.Lock()
	view, gen := c.session.View(), c.session.gen
	c.mu.Unlock()
	if view.State != Composing {
		return fmt.Errorf("suggest while %s: %w", view.State, domain.ErrInvalidTransition)
	}
	if strings.TrimSpace(view.Draft.Device) == "" {
		return &domain.ValidationError{Fields: []string{domain.FieldDevice}}
	}

	text, err := c.advisor.SuggestAnalysis(ctx, view.Draft)
	if err != nil {
		return fmt.Errorf("suggest analysis: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.gen != gen {
		return fmt.Errorf("form changed during suggestion: %w", domain.ErrInvalidTransition)
	}
	return c.session.SetAnalysis(text)
}

func (c *Controller) ioFailure(ctx context.Context, op string, id domain.ID, err error) error {
	ioErr := &domain.IOError{Op: op, ID: id, Err: err}
	c.log.Error("repository call failed",
		zap.String("op", op),
		zap.String("id", string(id)),
		zap.Error(err),
	)
	c.mu.Lock()
	c.lastErr = ioErr
	c.mu.Unlock()
	c.notifier.Notify(ctx, domain.Event{Kind: domain.EventFailure, ID: id, Op: op, Message: err.Error()})
	return ioErr
}

// State is what presentation renders.
type State struct {
	Tab           domain.Category         `json:"tab"`
	Search        string                  `json:"search"`
	Loading       bool                    `json:"loading"`
	Visible       []domain.Analysis       `json:"visible"`
	Counts        map[domain.Category]int `json:"counts"`
	Session       SessionView             `json:"session"`
	PendingDelete domain.ID               `json:"pending_delete,omitempty"`
	LastError     string                  `json:"last_error,omitempty"`
	RefreshedAt   *time.Time              `json:"refreshed_at,omitempty"`
}

// State returns a snapshot. While loading the visible set is always empty and
// must be rendered as a loading indicator, not as "no results".
func (c *Controller) State() State {
	records := c.store.Records()

	c.mu.Lock()
	st := State{
		Tab:           c.tab,
		Search:        c.query,
		Loading:       c.store.IsLoading(),
		Session:       c.session.View(),
		PendingDelete: c.pendingDelete,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	c.mu.Unlock()

	st.Visible = Visible(records, st.Tab, st.Search)
	st.Counts = CountByCategory(records)
	if at := c.store.RefreshedAt(); !at.IsZero() {
		st.RefreshedAt = &at
	}
	return st
}

// LastError returns the error recorded by the last failing intent, if any.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Event) {}

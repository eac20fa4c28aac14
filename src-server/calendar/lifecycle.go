package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

type ModalMode int

const (
	ModeNone ModalMode = iota
	ModeDetails
	ModeEdit
)

func (m ModalMode) String() string {
	switch m {
	case ModeDetails:
		return "details"
	case ModeEdit:
		return "edit"
	}
	return "none"
}

func (m ModalMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// State is the selection of the lifecycle controller. It is one of
// Idle, ViewingDetails or Editing.
type State interface {
	Mode() ModalMode
	// Selected returns the event under inspection or edit, if any.
	Selected() (Event, bool)
	isState()
}

type Idle struct{}

func (Idle) Mode() ModalMode         { return ModeNone }
func (Idle) Selected() (Event, bool) { return Event{}, false }
func (Idle) isState()                {}

type ViewingDetails struct {
	Event Event
}

func (ViewingDetails) Mode() ModalMode           { return ModeDetails }
func (s ViewingDetails) Selected() (Event, bool) { return s.Event, true }
func (ViewingDetails) isState()                  {}

// Editing with a nil Event is the create form.
type Editing struct {
	Event *Event
}

func (Editing) Mode() ModalMode { return ModeEdit }
func (s Editing) Selected() (Event, bool) {
	if s.Event == nil {
		return Event{}, false
	}
	return *s.Event, true
}
func (Editing) isState() {}

// Creating reports whether the form creates a new event.
func (s Editing) Creating() bool { return s.Event == nil }

const maxIDAttempts = 16

// Controller owns the event collection of one view session and is its
// only mutator. Repository writes happen first; the local collection
// changes only after the repository confirmed them.
//
// A Controller is not safe for concurrent use; callers serialize actions.
type Controller struct {
	repo    Repository
	events  []Event
	index   *Index
	state   State
	newID   func() string
	observe func(transition string, err error)
}

type Option func(*Controller)

// WithIDGenerator replaces uuid.NewString as the id source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithObserver is called after every action with its outcome.
func WithObserver(fn func(transition string, err error)) Option {
	return func(c *Controller) { c.observe = fn }
}

// NewController loads the initial collection from repo.
func NewController(ctx context.Context, repo Repository, opts ...Option) (*Controller, error) {
	events, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewController: %w", &CollaboratorError{Op: "list", Err: err})
	}
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, ok := seen[e.ID]; ok {
			return nil, fmt.Errorf("NewController: duplicate event id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	c := &Controller{
		repo:    repo,
		events:  events,
		state:   Idle{},
		newID:   uuid.NewString,
		observe: func(string, error) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reindex()
	return c, nil
}

func (c *Controller) State() State { return c.state }

// Index is rebuilt after every committed mutation.
func (c *Controller) Index() *Index { return c.index }

func (c *Controller) Events() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *Controller) Lookup(id string) (Event, bool) {
	if i := c.find(id); i >= 0 {
		return c.events[i], true
	}
	return Event{}, false
}

// Open shows the details of event id, replacing any current selection.
func (c *Controller) Open(id string) error {
	e, ok := c.Lookup(id)
	if !ok {
		return c.done("open", fmt.Errorf("(*Controller).Open: %w: %s", ErrNotFound, id))
	}
	c.state = ViewingDetails{Event: e}
	return c.done("open", nil)
}

// Reload replaces the collection with what the repository holds now, for
// writes made outside the controller. A selection whose event survived is
// refreshed, otherwise the controller goes back to Idle.
func (c *Controller) Reload(ctx context.Context) error {
	events, err := c.repo.List(ctx)
	if err != nil {
		return c.done("reload", &CollaboratorError{Op: "list", Err: err})
	}
	c.events = events
	c.reindex()

	switch s := c.state.(type) {
	case ViewingDetails:
		c.state = Idle{}
		if e, ok := c.Lookup(s.Event.ID); ok {
			c.state = ViewingDetails{Event: e}
		}
	case Editing:
		if s.Creating() {
			break
		}
		c.state = Idle{}
		if e, ok := c.Lookup(s.Event.ID); ok {
			c.state = Editing{Event: &e}
		}
	}
	return c.done("reload", nil)
}

// Edit switches from the details view to the edit form of the same event.
func (c *Controller) Edit() error {
	s, ok := c.state.(ViewingDetails)
	if !ok {
		return c.done("edit", fmt.Errorf("(*Controller).Edit: %w from %s", ErrInvalidTransition, c.state.Mode()))
	}
	selected := s.Event
	c.state = Editing{Event: &selected}
	return c.done("edit", nil)
}

// New opens an empty create form, replacing any current selection.
func (c *Controller) New() {
	c.state = Editing{}
	c.done("new", nil)
}

func (c *Controller) Close() error {
	switch c.state.(type) {
	case Idle:
		return c.done("close", nil)
	case ViewingDetails:
		c.state = Idle{}
		return c.done("close", nil)
	}
	return c.done("close", fmt.Errorf("(*Controller).Close: %w from %s", ErrInvalidTransition, c.state.Mode()))
}

func (c *Controller) Cancel() error {
	switch c.state.(type) {
	case Idle:
		return c.done("cancel", nil)
	case Editing:
		c.state = Idle{}
		return c.done("cancel", nil)
	}
	return c.done("cancel", fmt.Errorf("(*Controller).Cancel: %w from %s", ErrInvalidTransition, c.state.Mode()))
}

// Submit saves the edit form. In create mode a new event with a fresh id
// is appended; in edit mode the submitted fields are merged over the
// stored event. On a validation or repository failure nothing changes
// and the controller stays in Editing.
func (c *Controller) Submit(ctx context.Context, patch EventPatch) (Event, error) {
	s, ok := c.state.(Editing)
	if !ok {
		return Event{}, c.done("submit", fmt.Errorf("(*Controller).Submit: %w from %s", ErrInvalidTransition, c.state.Mode()))
	}
	if s.Creating() {
		e, err := c.create(ctx, patch)
		return e, c.done("create", err)
	}
	e, err := c.update(ctx, s.Event.ID, patch)
	return e, c.done("update", err)
}

func (c *Controller) create(ctx context.Context, patch EventPatch) (Event, error) {
	candidate, err := patch.Apply(Event{})
	if err != nil {
		return Event{}, err
	}
	id, err := c.uniqueID()
	if err != nil {
		return Event{}, err
	}
	candidate.ID = id

	saved, err := c.repo.Create(ctx, candidate)
	if err != nil {
		return Event{}, &CollaboratorError{Op: "create", Err: err}
	}
	saved.ID = id

	c.events = append(c.events, saved)
	c.reindex()
	c.state = Idle{}
	return saved, nil
}

func (c *Controller) update(ctx context.Context, id string, patch EventPatch) (Event, error) {
	i := c.find(id)
	if i < 0 {
		slog.Warn("submitted edit for an event that no longer exists", "id", id)
		c.state = Idle{}
		return Event{}, fmt.Errorf("(*Controller).Submit: %w: %s", ErrNotFound, id)
	}
	merged, err := patch.Apply(c.events[i])
	if err != nil {
		return Event{}, err
	}
	merged.ID = id

	saved, err := c.repo.Update(ctx, merged)
	switch {
	case errors.Is(err, ErrNotFound):
		slog.Warn("repository lost the edited event, dropping it locally", "id", id)
		c.remove(id)
		c.state = Idle{}
		return Event{}, fmt.Errorf("(*Controller).Submit: %w: %s", ErrNotFound, id)
	case err != nil:
		return Event{}, &CollaboratorError{Op: "update", Err: err}
	}
	saved.ID = id

	c.events[i] = saved
	c.reindex()
	c.state = Idle{}
	return saved, nil
}

// Delete removes the event shown in the details view. With nothing
// selected it does nothing, so a repeated click is harmless.
func (c *Controller) Delete(ctx context.Context) error {
	switch s := c.state.(type) {
	case Idle:
		slog.Debug("delete requested with no selection, ignoring")
		return c.done("delete", nil)
	case ViewingDetails:
		err := c.repo.Delete(ctx, s.Event.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			slog.Debug("deleted event was already gone", "id", s.Event.ID)
		case err != nil:
			return c.done("delete", &CollaboratorError{Op: "delete", Err: err})
		}
		c.remove(s.Event.ID)
		c.state = Idle{}
		return c.done("delete", nil)
	}
	return c.done("delete", fmt.Errorf("(*Controller).Delete: %w from %s", ErrInvalidTransition, c.state.Mode()))
}

func (c *Controller) uniqueID() (string, error) {
	for range maxIDAttempts {
		id := c.newID()
		if id != "" && c.find(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("(*Controller).uniqueID: no unique id after %d attempts", maxIDAttempts)
}

func (c *Controller) find(id string) int {
	for i := range c.events {
		if c.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) remove(id string) {
	if i := c.find(id); i >= 0 {
		c.events = append(c.events[:i], c.events[i+1:]...)
		c.reindex()
	}
}

func (c *Controller) reindex() {
	c.index = NewIndex(c.events)
}

func (c *Controller) done(transition string, err error) error {
	c.observe(transition, err)
	return err
}

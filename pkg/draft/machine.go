package draft

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"planner-notebook-be/pkg/kvstore"

	"github.com/google/uuid"
)

// Editing session states. Absence of the persisted record is the canonical
// "no draft" state; StateClosed never has a record on disk.
const (
	StateClosed              = "CLOSED"
	StateOpenUnsaved         = "OPEN_UNSAVED"
	StateOpenEditingExisting = "OPEN_EDITING_EXISTING"
)

const (
	KeyDraft     = "note-draft"
	KeyWasInNote = "was-in-note"

	// MaxAge is how long a recovered draft stays trustworthy. Older records
	// are discarded, not restored.
	MaxAge = 24 * time.Hour
)

// EditingRef points an open draft at the persisted note it edits.
type EditingRef struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// Record is the durable snapshot written on open and on every field change.
type Record struct {
	IsOpen     bool        `json:"is_open"`
	Title      string      `json:"title"`
	Body       string      `json:"body"`
	Color      string      `json:"color"`
	EditingRef *EditingRef `json:"editing_ref,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Recovery is what a successful Recover restores into the editing surface.
type Recovery struct {
	Title      string
	Body       string
	Color      string
	EditingRef *EditingRef
}

// Machine is the crash-safe draft state machine for one editing session.
type Machine struct {
	mu    sync.Mutex
	store kvstore.Store

	state      string
	title      string
	body       string
	color      string
	editingRef *EditingRef

	recovered bool // recovery runs exactly once per machine lifetime

	now      func() time.Time
	schedule func(func())
}

type Option func(*Machine)

// WithClock overrides time.Now, used by expiry tests.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithScheduler overrides how the post-recovery open-state flip is deferred.
// The default defers to a goroutine so the editing surface has a chance to
// mount before the state reads as open; tests inject a synchronous one.
func WithScheduler(schedule func(func())) Option {
	return func(m *Machine) { m.schedule = schedule }
}

func NewMachine(store kvstore.Store, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		state:    StateClosed,
		now:      time.Now,
		schedule: func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) State() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Fields() (title, body, color string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title, m.body, m.color
}

func (m *Machine) EditingRef() *EditingRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editingRef
}

// OpenNew starts a fresh unsaved note. The record hits disk immediately.
func (m *Machine) OpenNew() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateOpenUnsaved
	m.title, m.body, m.color = "", "", ""
	m.editingRef = nil
	return m.persistLocked()
}

// OpenExisting starts editing a persisted note.
func (m *Machine) OpenExisting(ref EditingRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateOpenEditingExisting
	m.title = ref.Title
	m.body, m.color = "", ""
	m.editingRef = &ref
	return m.persistLocked()
}

func (m *Machine) SetTitle(title string) error {
	return m.setField(func() { m.title = title })
}

func (m *Machine) SetBody(body string) error {
	return m.setField(func() { m.body = body })
}

func (m *Machine) SetColor(color string) error {
	return m.setField(func() { m.color = color })
}

func (m *Machine) setField(apply func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateClosed {
		return nil
	}
	apply()
	return m.persistLocked()
}

// Close deletes the record entirely rather than flagging it closed.
func (m *Machine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateClosed
	m.title, m.body, m.color = "", "", ""
	m.editingRef = nil

	if err := m.store.Delete(KeyDraft); err != nil {
		return fmt.Errorf("failed to clear draft record: %w", err)
	}
	return m.store.Delete(KeyWasInNote)
}

// Recover runs the crash-recovery sequence. It is a no-op after the first
// call. Field restoration is synchronous; the open-state flip is deferred
// through the scheduler so callers can mount the editing surface first.
func (m *Machine) Recover() (*Recovery, error) {
	m.mu.Lock()
	if m.recovered {
		m.mu.Unlock()
		return nil, nil
	}
	m.recovered = true

	raw, found, err := m.store.Get(KeyDraft)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to read draft record: %w", err)
	}
	if !found {
		m.mu.Unlock()
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// Corrupt record: discard, same as expiry.
		m.store.Delete(KeyDraft)
		m.mu.Unlock()
		return nil, nil
	}

	if m.now().Sub(rec.Timestamp) >= MaxAge {
		m.store.Delete(KeyDraft)
		m.store.Delete(KeyWasInNote)
		m.mu.Unlock()
		return nil, nil
	}

	m.title = rec.Title
	m.body = rec.Body
	m.color = rec.Color
	m.editingRef = rec.EditingRef
	m.mu.Unlock()

	m.schedule(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.editingRef != nil {
			m.state = StateOpenEditingExisting
		} else {
			m.state = StateOpenUnsaved
		}
	})

	return &Recovery{
		Title:      rec.Title,
		Body:       rec.Body,
		Color:      rec.Color,
		EditingRef: rec.EditingRef,
	}, nil
}

// ResolveEditingRef runs once the note list has loaded. When the referenced
// note no longer exists the draft degrades to Open-Unsaved: the recovered
// text survives but a save becomes a create instead of an update.
func (m *Machine) ResolveEditingRef(exists func(id uuid.UUID) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.editingRef == nil {
		return nil
	}
	if exists(m.editingRef.Id) {
		return nil
	}

	m.editingRef = nil
	m.state = StateOpenUnsaved
	return m.persistLocked()
}

func (m *Machine) persistLocked() error {
	rec := Record{
		IsOpen:     true,
		Title:      m.title,
		Body:       m.body,
		Color:      m.color,
		EditingRef: m.editingRef,
		Timestamp:  m.now(),
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := m.store.Set(KeyDraft, string(raw)); err != nil {
		return fmt.Errorf("failed to persist draft record: %w", err)
	}

	if m.state == StateOpenEditingExisting {
		return m.store.Set(KeyWasInNote, "1")
	}
	return m.store.Delete(KeyWasInNote)
}

package autosave

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Engine states. Saved is a display state: it holds for a fixed window after
// a successful write and then settles back to Idle.
type State string

const (
	StateIdle    State = "IDLE"
	StatePending State = "PENDING"
	StateSaving  State = "SAVING"
	StateSaved   State = "SAVED"
)

const (
	DefaultDebounce  = 2 * time.Second
	DefaultSavedHold = 2 * time.Second
)

// Snapshot carries the fields of one update write.
type Snapshot struct {
	Title   string
	Content string
	Color   string
}

// SaveFunc issues the single update write for a debounce cycle. A fired
// write is never rolled back, so it takes a background context and is
// allowed to finish even after Close.
type SaveFunc func(ctx context.Context, noteId uuid.UUID, snap Snapshot) error

// Engine coalesces rapid edits of an already-persisted note into throttled
// writes. At most one write per note is in flight at a time; an edit that
// arrives mid-write queues exactly one follow-up cycle.
type Engine struct {
	mu sync.Mutex

	save      SaveFunc
	debounce  time.Duration
	savedHold time.Duration

	state  State
	noteId *uuid.UUID
	latest Snapshot

	timer     *time.Timer
	holdTimer *time.Timer
	gen       int // invalidates timer fires from cancelled cycles
	dirty     bool
	closed    bool

	onState func(State)
}

type Option func(*Engine)

func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

func WithSavedHold(d time.Duration) Option {
	return func(e *Engine) { e.savedHold = d }
}

// WithStateListener observes transitions, used by the editor session to
// surface save status.
func WithStateListener(fn func(State)) Option {
	return func(e *Engine) { e.onState = fn }
}

func NewEngine(save SaveFunc, opts ...Option) *Engine {
	e := &Engine{
		save:      save,
		debounce:  DefaultDebounce,
		savedHold: DefaultSavedHold,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Bind attaches the engine to a persisted note. Edits without a bound note
// never arm the debounce.
func (e *Engine) Bind(noteId uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := noteId
	e.noteId = &id
}

// Edit records the newest field values and (re)arms the debounce window.
// The timer always fires with the latest snapshot, not the one it was armed
// with.
func (e *Engine) Edit(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.noteId == nil || strings.TrimSpace(snap.Title) == "" {
		return
	}

	e.latest = snap

	if e.state == StateSaving {
		// Queue one follow-up cycle instead of a second concurrent write.
		e.dirty = true
		return
	}

	e.armLocked()
}

func (e *Engine) armLocked() {
	if e.holdTimer != nil {
		e.holdTimer.Stop()
		e.holdTimer = nil
	}
	if e.timer != nil {
		e.timer.Stop()
	}

	e.gen++
	g := e.gen
	e.timer = time.AfterFunc(e.debounce, func() { e.fire(g) })
	e.setStateLocked(StatePending)
}

func (e *Engine) fire(gen int) {
	e.mu.Lock()
	if e.closed || gen != e.gen || e.state != StatePending {
		e.mu.Unlock()
		return
	}

	e.setStateLocked(StateSaving)
	snap := e.latest
	noteId := *e.noteId
	e.mu.Unlock()

	err := e.save(context.Background(), noteId, snap)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		// Result of an in-flight write after Close is discarded silently.
		return
	}

	if err != nil {
		// Not retried, not surfaced; the next edit re-arms the cycle.
		e.setStateLocked(StateIdle)
		if e.dirty {
			e.dirty = false
			e.armLocked()
		}
		return
	}

	if e.dirty {
		e.dirty = false
		e.armLocked()
		return
	}

	e.setStateLocked(StateSaved)
	g := e.gen
	e.holdTimer = time.AfterFunc(e.savedHold, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.closed && g == e.gen && e.state == StateSaved {
			e.setStateLocked(StateIdle)
		}
	})
}

// Close cancels any armed timer and discards queued work. An already-fired
// write completes fire-and-forget; its result is dropped.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.dirty = false
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.holdTimer != nil {
		e.holdTimer.Stop()
		e.holdTimer = nil
	}
	e.setStateLocked(StateIdle)
}

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	e.state = s
	if e.onState != nil {
		e.onState(s)
	}
}

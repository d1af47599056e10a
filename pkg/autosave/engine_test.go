package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saveRecorder struct {
	mu      sync.Mutex
	calls   []Snapshot
	err     error
	block   chan struct{} // when set, Save waits on it
	started chan struct{}
}

func (r *saveRecorder) Save(ctx context.Context, noteId uuid.UUID, snap Snapshot) error {
	r.mu.Lock()
	block := r.block
	started := r.started
	r.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, snap)
	return r.err
}

func (r *saveRecorder) snapshotCalls() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.calls))
	copy(out, r.calls)
	return out
}

func waitForState(t *testing.T, e *Engine, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("engine never reached state %s (stuck at %s)", want, e.State())
}

func TestEditCoalescesIntoOneSave(t *testing.T) {
	rec := &saveRecorder{}
	e := NewEngine(rec.Save, WithDebounce(20*time.Millisecond), WithSavedHold(20*time.Millisecond))
	e.Bind(uuid.New())

	// Rapid keystrokes inside one debounce window.
	e.Edit(Snapshot{Title: "T", Content: "a"})
	e.Edit(Snapshot{Title: "T", Content: "ab"})
	e.Edit(Snapshot{Title: "T", Content: "abc"})
	assert.Equal(t, StatePending, e.State())

	waitForState(t, e, StateSaved)

	calls := rec.snapshotCalls()
	require.Len(t, calls, 1)
	// The write carries the values at fire time, not at arm time.
	assert.Equal(t, "abc", calls[0].Content)

	waitForState(t, e, StateIdle)
}

func TestEditWithoutBoundNoteIsIgnored(t *testing.T) {
	rec := &saveRecorder{}
	e := NewEngine(rec.Save, WithDebounce(5*time.Millisecond))

	e.Edit(Snapshot{Title: "T", Content: "a"})
	assert.Equal(t, StateIdle, e.State())

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.snapshotCalls())
}

func TestEmptyTitleNeverArms(t *testing.T) {
	rec := &saveRecorder{}
	e := NewEngine(rec.Save, WithDebounce(5*time.Millisecond))
	e.Bind(uuid.New())

	e.Edit(Snapshot{Title: "   ", Content: "body"})
	assert.Equal(t, StateIdle, e.State())

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.snapshotCalls())
}

func TestEditDuringSaveQueuesOneFollowUp(t *testing.T) {
	rec := &saveRecorder{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	e := NewEngine(rec.Save, WithDebounce(5*time.Millisecond), WithSavedHold(5*time.Millisecond))
	e.Bind(uuid.New())

	e.Edit(Snapshot{Title: "T", Content: "first"})
	<-rec.started
	assert.Equal(t, StateSaving, e.State())

	// Two edits land while the write is in flight; they collapse into one
	// queued cycle with the newest values.
	e.Edit(Snapshot{Title: "T", Content: "second"})
	e.Edit(Snapshot{Title: "T", Content: "third"})

	rec.mu.Lock()
	block := rec.block
	rec.block = nil
	rec.mu.Unlock()
	close(block)

	<-rec.started // queued cycle fires exactly once
	waitForState(t, e, StateSaved)

	calls := rec.snapshotCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Content)
	assert.Equal(t, "third", calls[1].Content)
}

func TestSaveFailureIsSilent(t *testing.T) {
	rec := &saveRecorder{err: errors.New("boom")}
	e := NewEngine(rec.Save, WithDebounce(5*time.Millisecond))
	e.Bind(uuid.New())

	e.Edit(Snapshot{Title: "T", Content: "doomed"})
	waitForState(t, e, StateIdle)
	require.Len(t, rec.snapshotCalls(), 1)

	// The failure is not retried on its own; the next edit re-arms normally.
	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	e.Edit(Snapshot{Title: "T", Content: "retried"})
	waitForState(t, e, StateSaved)
	calls := rec.snapshotCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "retried", calls[1].Content)
}

func TestCloseDiscardsPendingWrite(t *testing.T) {
	rec := &saveRecorder{}
	e := NewEngine(rec.Save, WithDebounce(10*time.Millisecond))
	e.Bind(uuid.New())

	e.Edit(Snapshot{Title: "T", Content: "never saved"})
	e.Close()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, rec.snapshotCalls())
	assert.Equal(t, StateIdle, e.State())
}

func TestCloseDuringSaveDropsQueuedCycle(t *testing.T) {
	rec := &saveRecorder{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	e := NewEngine(rec.Save, WithDebounce(5*time.Millisecond))
	e.Bind(uuid.New())

	e.Edit(Snapshot{Title: "T", Content: "in flight"})
	<-rec.started

	e.Edit(Snapshot{Title: "T", Content: "queued"})
	e.Close()

	rec.mu.Lock()
	block := rec.block
	rec.block = nil
	rec.mu.Unlock()
	close(block)

	time.Sleep(30 * time.Millisecond)
	// The in-flight write completed but the queued cycle never fired.
	assert.Len(t, rec.snapshotCalls(), 1)
	assert.Equal(t, StateIdle, e.State())
}

func TestStateListenerObservesCycle(t *testing.T) {
	rec := &saveRecorder{}
	var mu sync.Mutex
	var seen []State
	e := NewEngine(rec.Save,
		WithDebounce(5*time.Millisecond),
		WithSavedHold(5*time.Millisecond),
		WithStateListener(func(s State) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		}),
	)
	e.Bind(uuid.New())

	e.Edit(Snapshot{Title: "T", Content: "x"})
	waitForState(t, e, StateIdle)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StatePending, StateSaving, StateSaved, StateIdle}, seen)
}

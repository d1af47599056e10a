package store

import (
	"time"

	"planner-notebook-be/pkg/autosave"
	"planner-notebook-be/pkg/draft"
)

// EditorSession is the in-memory state of one user's open editing surface:
// the crash-safe draft machine plus the debounced autosave engine bound to
// the note being edited (nil ref while drafting a new note).
type EditorSession struct {
	UserID   string           `json:"user_id"`
	Draft    *draft.Machine   `json:"-"`
	Autosave *autosave.Engine `json:"-"`
	OpenedAt time.Time        `json:"opened_at"`
}

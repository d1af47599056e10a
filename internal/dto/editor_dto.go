package dto

import (
	"github.com/google/uuid"
)

type OpenEditorRequest struct {
	// NoteId opens an existing note for edit; nil starts a new draft.
	NoteId *uuid.UUID `json:"note_id"`
}

type OpenEditorResponse struct {
	State   string `json:"state"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Color   string `json:"color"`
}

type EditorChangeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Color   string `json:"color"`
}

type EditorStatusResponse struct {
	State         string `json:"state"`           // draft machine state
	AutosaveState string `json:"autosave_state"`  // debounce engine state
	Title         string `json:"title"`
	Content       string `json:"content"`
	Color         string `json:"color"`
}

type RecoverDraftResponse struct {
	Recovered bool       `json:"recovered"`
	State     string     `json:"state,omitempty"`
	Title     string     `json:"title,omitempty"`
	Content   string     `json:"content,omitempty"`
	Color     string     `json:"color,omitempty"`
	NoteId    *uuid.UUID `json:"note_id,omitempty"`
}

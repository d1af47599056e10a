package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Title    string     `json:"title" validate:"required"`
	Content  string     `json:"content"`
	FolderId *uuid.UUID `json:"folder_id"`
	Color    string     `json:"color"`
}

type CreateNoteResponse struct {
	Id uuid.UUID `json:"id"`
	// Warning reports a non-fatal materialization failure: the note exists
	// but some collaborator rows may be missing until the next share pass.
	Warning string `json:"warning,omitempty"`
}

type ShowNoteResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	FolderId   *uuid.UUID `json:"folder_id"`
	Color      string     `json:"color"`
	OwnerId    uuid.UUID  `json:"owner_id"`
	Permission string     `json:"permission"` // owner, edit or view
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type UpdateNoteRequest struct {
	Id      uuid.UUID
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
	Color   string `json:"color"`
}

type UpdateNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type MoveNoteRequest struct {
	Id       uuid.UUID
	FolderId *uuid.UUID `json:"folder_id"`
}

type MoveNoteResponse struct {
	Id      uuid.UUID `json:"id"`
	Warning string    `json:"warning,omitempty"`
}

type NoteListItem struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	FolderId   *uuid.UUID `json:"folder_id"`
	Color      string     `json:"color"`
	OwnerId    uuid.UUID  `json:"owner_id"`
	IsShared   bool       `json:"is_shared"` // visible through a grant, not ownership
	Permission string     `json:"permission,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type SearchNotesResponse struct {
	Query string          `json:"query"`
	Notes []*NoteListItem `json:"notes"`
}

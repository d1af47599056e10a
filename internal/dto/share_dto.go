package dto

import (
	"github.com/google/uuid"
)

type ShareFolderRequest struct {
	FolderId     uuid.UUID `json:"folder_id" validate:"required"`
	TargetUserId uuid.UUID `json:"target_user_id" validate:"required"`
	Permission   string    `json:"permission" validate:"required,oneof=view edit"`
}

type ShareFolderResponse struct {
	FolderId     uuid.UUID `json:"folder_id"`
	TargetUserId uuid.UUID `json:"target_user_id"`
	// Materialized counts the per-note grant rows created alongside the
	// folder grant.
	Materialized int    `json:"materialized"`
	Warning      string `json:"warning,omitempty"`
}

type ShareNoteRequest struct {
	NoteId       uuid.UUID `json:"note_id" validate:"required"`
	TargetUserId uuid.UUID `json:"target_user_id" validate:"required"`
	Permission   string    `json:"permission" validate:"required,oneof=view edit"`
}

type ShareNoteResponse struct {
	NoteId       uuid.UUID `json:"note_id"`
	TargetUserId uuid.UUID `json:"target_user_id"`
}

type UnshareFolderRequest struct {
	FolderId     uuid.UUID `json:"folder_id" validate:"required"`
	TargetUserId uuid.UUID `json:"target_user_id" validate:"required"`
}

type UnshareNoteRequest struct {
	NoteId       uuid.UUID `json:"note_id" validate:"required"`
	TargetUserId uuid.UUID `json:"target_user_id" validate:"required"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// FolderCollaborator grants a user visibility over a folder and, through
// materialization, every note currently in it.
type FolderCollaborator struct {
	Id         uuid.UUID
	FolderId   uuid.UUID
	UserId     uuid.UUID
	Permission Permission
	InvitedBy  uuid.UUID
	CreatedAt  time.Time
}

// NoteCollaborator is a direct per-note grant. Rows materialized from a
// folder share are indistinguishable from explicit note shares, which is
// what makes per-note permission lookups and auditing uniform.
type NoteCollaborator struct {
	Id         uuid.UUID
	NoteId     uuid.UUID
	UserId     uuid.UUID
	Permission Permission
	InvitedBy  uuid.UUID
	CreatedAt  time.Time
}

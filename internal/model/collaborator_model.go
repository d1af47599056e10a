package model

import (
	"time"

	"github.com/google/uuid"
)

type FolderCollaborator struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FolderId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_folder_collab_pair,priority:1"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_folder_collab_pair,priority:2;index"`
	Permission string    `gorm:"type:varchar(10);not null;check:permission IN ('view', 'edit')"`
	InvitedBy  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (FolderCollaborator) TableName() string {
	return "folder_collaborators"
}

type NoteCollaborator struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NoteId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_note_collab_pair,priority:1"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_note_collab_pair,priority:2;index"`
	Permission string    `gorm:"type:varchar(10);not null;check:permission IN ('view', 'edit')"`
	InvitedBy  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (NoteCollaborator) TableName() string {
	return "note_collaborators"
}

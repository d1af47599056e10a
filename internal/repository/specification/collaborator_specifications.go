package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CollaboratorUser filters grant rows by their target user.
type CollaboratorUser struct {
	UserID uuid.UUID
}

func (s CollaboratorUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type GrantOnFolder struct {
	FolderID uuid.UUID
}

func (s GrantOnFolder) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("folder_id = ?", s.FolderID)
}

type GrantOnFolders struct {
	FolderIDs []uuid.UUID
}

func (s GrantOnFolders) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("folder_id IN ?", s.FolderIDs)
}

type GrantOnNote struct {
	NoteID uuid.UUID
}

func (s GrantOnNote) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("note_id = ?", s.NoteID)
}

type GrantOnNotes struct {
	NoteIDs []uuid.UUID
}

func (s GrantOnNotes) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("note_id IN ?", s.NoteIDs)
}

type InvitedBy struct {
	UserID uuid.UUID
}

func (s InvitedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("invited_by = ?", s.UserID)
}

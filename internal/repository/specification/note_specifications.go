package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByFolderID struct {
	FolderID uuid.UUID
}

func (s ByFolderID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("folder_id = ?", s.FolderID)
}

type ByFolderIDs struct {
	FolderIDs []uuid.UUID
}

func (s ByFolderIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("folder_id IN ?", s.FolderIDs)
}

// Unfiled selects notes that reference no folder.
type Unfiled struct{}

func (s Unfiled) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("folder_id IS NULL")
}

// NotInFolders keeps notes outside the given folders. Unfiled notes pass.
type NotInFolders struct {
	FolderIDs []uuid.UUID
}

func (s NotInFolders) Apply(db *gorm.DB) *gorm.DB {
	if len(s.FolderIDs) == 0 {
		return db
	}
	return db.Where("folder_id IS NULL OR folder_id NOT IN ?", s.FolderIDs)
}

// TitleSearch filters notes by title (case-insensitive). Content matching
// happens in the service after markup stripping, not in SQL.
type TitleSearch struct {
	Query string
}

func (s TitleSearch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title ILIKE ?", "%"+s.Query+"%")
}

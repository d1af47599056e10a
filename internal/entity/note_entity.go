package entity

import (
	"time"

	"github.com/google/uuid"
)

// Note content is an opaque serialized document produced by the editing
// surface; the engine never interprets it except to strip markup for search.
type Note struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string
	Content   string
	FolderId  *uuid.UUID `gorm:"type:uuid;index"` // weak reference, not ownership
	UserId    uuid.UUID  `gorm:"type:uuid;index"`
	Color     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

package contract

import (
	"context"

	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/repository/specification"

	"github.com/google/uuid"
)

type NoteCollaboratorRepository interface {
	Create(ctx context.Context, grant *entity.NoteCollaborator) error
	DeleteByPair(ctx context.Context, noteId, userId uuid.UUID) error
	// DeleteByNote removes every grant on a note. Used by note deletion only;
	// folder unshare never touches materialized per-note rows.
	DeleteByNote(ctx context.Context, noteId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NoteCollaborator, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NoteCollaborator, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

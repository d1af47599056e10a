package contract

import (
	"context"

	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/repository/specification"

	"github.com/google/uuid"
)

type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	Update(ctx context.Context, note *entity.Note) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// DetachFromFolder clears folder_id on every note in the folder. Used by
	// folder deletion, which must never cascade into the notes themselves.
	DetachFromFolder(ctx context.Context, folderId uuid.UUID) error
}

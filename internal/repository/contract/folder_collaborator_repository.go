package contract

import (
	"context"

	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FolderCollaboratorRepository interface {
	Create(ctx context.Context, grant *entity.FolderCollaborator) error
	// DeleteByPair removes the grant for (folder, user); absent rows are a no-op.
	DeleteByPair(ctx context.Context, folderId, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FolderCollaborator, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FolderCollaborator, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

package unitofwork

import (
	"context"

	"planner-notebook-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	FolderRepository() contract.FolderRepository
	NoteRepository() contract.NoteRepository
	FolderCollaboratorRepository() contract.FolderCollaboratorRepository
	NoteCollaboratorRepository() contract.NoteCollaboratorRepository
	NotificationRepository() contract.NotificationRepository
}

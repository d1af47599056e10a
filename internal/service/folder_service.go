package service

import (
	"context"
	"encoding/json"
	"time"

	"planner-notebook-be/internal/apperror"
	"planner-notebook-be/internal/dto"
	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/pkg/logger"
	"planner-notebook-be/internal/repository/specification"
	"planner-notebook-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IFolderService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateFolderRequest) (*dto.CreateFolderResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateFolderRequest) (*dto.UpdateFolderResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type folderService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewFolderService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	logger logger.ILogger,
) IFolderService {
	return &folderService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		logger:           logger,
	}
}

func (s *folderService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateFolderRequest) (*dto.CreateFolderResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	folder := entity.Folder{
		Id:        uuid.New(),
		Name:      req.Name,
		Icon:      req.Icon,
		Color:     req.Color,
		UserId:    userId,
		CreatedAt: time.Now(),
	}
	if err := uow.FolderRepository().Create(ctx, &folder); err != nil {
		return nil, apperror.NewStore("insert folder", err)
	}

	return &dto.CreateFolderResponse{Id: folder.Id}, nil
}

func (s *folderService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateFolderRequest) (*dto.UpdateFolderResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	folder, err := uow.FolderRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, apperror.NewStore("read folder", err)
	}
	if folder == nil {
		return nil, apperror.NewNotFound("Folder not found")
	}

	now := time.Now()
	folder.Name = req.Name
	folder.Icon = req.Icon
	folder.Color = req.Color
	folder.UpdatedAt = &now

	if err := uow.FolderRepository().Update(ctx, folder); err != nil {
		return nil, apperror.NewStore("update folder", err)
	}

	return &dto.UpdateFolderResponse{Id: folder.Id}, nil
}

// Delete removes a folder after detaching every note in it. Notes are never
// cascade-deleted; they fall back to the unfiled set.
func (s *folderService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	folder, err := uow.FolderRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return apperror.NewStore("read folder", err)
	}
	if folder == nil {
		return apperror.NewNotFound("Folder not found")
	}

	watchers := []uuid.UUID{userId}
	grants, err := uow.FolderCollaboratorRepository().FindAll(ctx, specification.GrantOnFolder{FolderID: id})
	if err == nil {
		for _, grant := range grants {
			watchers = append(watchers, grant.UserId)
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return apperror.NewStore("begin delete", err)
	}
	defer uow.Rollback()

	if err := uow.NoteRepository().DetachFromFolder(ctx, id); err != nil {
		return apperror.NewStore("detach notes", err)
	}
	for _, grant := range grants {
		if err := uow.FolderCollaboratorRepository().DeleteByPair(ctx, id, grant.UserId); err != nil {
			return apperror.NewStore("delete folder grant", err)
		}
	}
	if err := uow.FolderRepository().Delete(ctx, id); err != nil {
		return apperror.NewStore("delete folder", err)
	}

	if err := uow.Commit(); err != nil {
		return apperror.NewStore("commit delete", err)
	}

	s.publishInvalidate(ctx, watchers, "folder_deleted")
	return nil
}

func (s *folderService) publishInvalidate(ctx context.Context, userIds []uuid.UUID, reason string) {
	if s.publisherService == nil {
		return
	}
	msg := dto.InvalidateViewMessage{UserIds: userIds, Reason: reason}
	payload, _ := json.Marshal(msg)
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("folder", "Failed to publish invalidation message", map[string]interface{}{
			"reason": reason, "error": err.Error(),
		})
	}
}

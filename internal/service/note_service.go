package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"planner-notebook-be/internal/apperror"
	"planner-notebook-be/internal/dto"
	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/pkg/logger"
	"planner-notebook-be/internal/repository/contract"
	"planner-notebook-be/internal/repository/specification"
	"planner-notebook-be/internal/repository/unitofwork"
	"planner-notebook-be/pkg/events"

	"github.com/google/uuid"
)

type INoteService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowNoteResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error)
	Move(ctx context.Context, userId uuid.UUID, req *dto.MoveNoteRequest) (*dto.MoveNoteResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type noteService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	changeFeed       IChangeFeedPublisher
	logger           logger.ILogger
}

func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	changeFeed IChangeFeedPublisher,
	logger logger.ILogger,
) INoteService {
	return &noteService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		changeFeed:       changeFeed,
		logger:           logger,
	}
}

func (s *noteService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if req.FolderId != nil {
		if err := s.checkFolderWriteAccess(ctx, uow, *req.FolderId, userId); err != nil {
			return nil, err
		}
	}

	note := entity.Note{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		FolderId:  req.FolderId,
		UserId:    userId,
		Color:     req.Color,
		CreatedAt: time.Now(),
	}
	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, apperror.NewStore("insert note", err)
	}

	// A note born into a folder that already has collaborators is visible to
	// them immediately, so their per-note grants materialize right here.
	warning := ""
	if note.FolderId != nil {
		warning = s.materializeForFolderCollaborators(ctx, uow, &note)
	}

	return &dto.CreateNoteResponse{
		Id:      note.Id,
		Warning: warning,
	}, nil
}

func (s *noteService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, apperror.NewStore("read note", err)
	}
	if note == nil {
		return nil, apperror.NewNotFound("Note not found")
	}

	permission, err := s.resolvePermission(ctx, uow, note, userId)
	if err != nil {
		return nil, err
	}
	if permission == "" {
		return nil, apperror.NewPermission("You do not have access to this note")
	}

	return &dto.ShowNoteResponse{
		Id:         note.Id,
		Title:      note.Title,
		Content:    note.Content,
		FolderId:   note.FolderId,
		Color:      note.Color,
		OwnerId:    note.UserId,
		Permission: permission,
		CreatedAt:  note.CreatedAt,
		UpdatedAt:  note.UpdatedAt,
	}, nil
}

func (s *noteService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, apperror.NewStore("read note", err)
	}
	if note == nil {
		return nil, apperror.NewNotFound("Note not found")
	}

	permission, err := s.resolvePermission(ctx, uow, note, userId)
	if err != nil {
		return nil, err
	}
	if permission != permissionOwner && permission != string(entity.PermissionEdit) {
		return nil, apperror.NewPermission("Editing this note requires an edit grant")
	}

	now := time.Now()
	note.Title = req.Title
	note.Content = req.Content
	note.Color = req.Color
	note.UpdatedAt = &now

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, apperror.NewStore("update note", err)
	}

	s.invalidateWatchers(ctx, uow, note, "note_updated")

	return &dto.UpdateNoteResponse{Id: note.Id}, nil
}

// Move changes the folder reference. Moving into a folder that has
// collaborators materializes their per-note grants, same as creation.
func (s *noteService) Move(ctx context.Context, userId uuid.UUID, req *dto.MoveNoteRequest) (*dto.MoveNoteResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, apperror.NewStore("read note", err)
	}
	if note == nil {
		return nil, apperror.NewNotFound("Note not found")
	}
	if note.UserId != userId {
		return nil, apperror.NewPermission("Only the note owner can move it")
	}

	if req.FolderId != nil {
		if err := s.checkFolderWriteAccess(ctx, uow, *req.FolderId, userId); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	note.FolderId = req.FolderId
	note.UpdatedAt = &now

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		return nil, apperror.NewStore("move note", err)
	}

	warning := ""
	if note.FolderId != nil {
		warning = s.materializeForFolderCollaborators(ctx, uow, note)
	}

	return &dto.MoveNoteResponse{
		Id:      note.Id,
		Warning: warning,
	}, nil
}

func (s *noteService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return apperror.NewStore("read note", err)
	}
	if note == nil {
		return apperror.NewNotFound("Note not found")
	}
	if note.UserId != userId {
		return apperror.NewPermission("Only the note owner can delete it")
	}

	// Grant holders are collected before their rows go away so they still
	// receive the invalidation.
	watchers := []uuid.UUID{note.UserId}
	grants, err := uow.NoteCollaboratorRepository().FindAll(ctx, specification.GrantOnNote{NoteID: id})
	if err == nil {
		for _, grant := range grants {
			watchers = append(watchers, grant.UserId)
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return apperror.NewStore("begin delete", err)
	}
	defer uow.Rollback()

	if err := uow.NoteCollaboratorRepository().DeleteByNote(ctx, id); err != nil {
		return apperror.NewStore("delete note grants", err)
	}
	if err := uow.NoteRepository().Delete(ctx, id); err != nil {
		return apperror.NewStore("delete note", err)
	}

	if err := uow.Commit(); err != nil {
		return apperror.NewStore("commit delete", err)
	}

	s.publishInvalidate(ctx, watchers, "note_deleted")
	return nil
}

// resolvePermission returns "owner", "edit", "view", or "" when the user has
// no path to the note at all. Direct grants win over folder-derived ones.
func (s *noteService) resolvePermission(ctx context.Context, uow unitofwork.UnitOfWork, note *entity.Note, userId uuid.UUID) (string, error) {
	if note.UserId == userId {
		return permissionOwner, nil
	}

	direct, err := uow.NoteCollaboratorRepository().FindOne(ctx,
		specification.GrantOnNote{NoteID: note.Id},
		specification.CollaboratorUser{UserID: userId},
	)
	if err != nil {
		return "", apperror.NewStore("read note grant", err)
	}
	if direct != nil {
		return string(direct.Permission), nil
	}

	if note.FolderId == nil {
		return "", nil
	}
	derived, err := uow.FolderCollaboratorRepository().FindOne(ctx,
		specification.GrantOnFolder{FolderID: *note.FolderId},
		specification.CollaboratorUser{UserID: userId},
	)
	if err != nil {
		return "", apperror.NewStore("read folder grant", err)
	}
	if derived != nil {
		return string(derived.Permission), nil
	}
	return "", nil
}

func (s *noteService) checkFolderWriteAccess(ctx context.Context, uow unitofwork.UnitOfWork, folderId, userId uuid.UUID) error {
	folder, err := uow.FolderRepository().FindOne(ctx, specification.ByID{ID: folderId})
	if err != nil {
		return apperror.NewStore("read folder", err)
	}
	if folder == nil {
		return apperror.NewNotFound("Folder not found")
	}
	if folder.UserId == userId {
		return nil
	}

	grant, err := uow.FolderCollaboratorRepository().FindOne(ctx,
		specification.GrantOnFolder{FolderID: folderId},
		specification.CollaboratorUser{UserID: userId},
	)
	if err != nil {
		return apperror.NewStore("read folder grant", err)
	}
	if grant == nil || grant.Permission != entity.PermissionEdit {
		return apperror.NewPermission("Writing into this folder requires an edit grant")
	}
	return nil
}

// materializeForFolderCollaborators creates one grant per current folder
// collaborator on the given note, each with the collaborator's existing
// folder permission. Idempotent; failures degrade to a warning.
func (s *noteService) materializeForFolderCollaborators(ctx context.Context, uow unitofwork.UnitOfWork, note *entity.Note) string {
	collaborators, err := uow.FolderCollaboratorRepository().FindAll(ctx, specification.GrantOnFolder{FolderID: *note.FolderId})
	if err != nil {
		s.logger.Warn("note", "Failed to read folder collaborators for materialization", map[string]interface{}{
			"note_id": note.Id, "error": err.Error(),
		})
		return "could not materialize collaborator access; re-share the folder to complete it"
	}
	if len(collaborators) == 0 {
		return ""
	}

	existing, err := uow.NoteCollaboratorRepository().FindAll(ctx, specification.GrantOnNote{NoteID: note.Id})
	if err != nil {
		s.logger.Warn("note", "Failed to read existing note grants", map[string]interface{}{
			"note_id": note.Id, "error": err.Error(),
		})
		return "could not materialize collaborator access; re-share the folder to complete it"
	}
	alreadyGranted := make(map[uuid.UUID]bool, len(existing))
	for _, g := range existing {
		alreadyGranted[g.UserId] = true
	}

	affected := make([]uuid.UUID, 0, len(collaborators))
	failed := 0
	for _, collab := range collaborators {
		if collab.UserId == note.UserId || alreadyGranted[collab.UserId] {
			continue
		}

		grant := entity.NoteCollaborator{
			Id:         uuid.New(),
			NoteId:     note.Id,
			UserId:     collab.UserId,
			Permission: collab.Permission,
			InvitedBy:  note.UserId,
			CreatedAt:  time.Now(),
		}
		if err := uow.NoteCollaboratorRepository().Create(ctx, &grant); err != nil {
			if errors.Is(err, contract.ErrDuplicateGrant) {
				continue
			}
			failed++
			s.logger.Warn("note", "Failed to materialize note grant", map[string]interface{}{
				"note_id": note.Id, "user_id": collab.UserId, "error": err.Error(),
			})
			continue
		}
		affected = append(affected, collab.UserId)
	}

	for _, userId := range affected {
		s.publishChange(ctx, userId, events.TypeNoteCreated, map[string]interface{}{
			"note_id":   note.Id,
			"folder_id": note.FolderId,
		})
	}
	if len(affected) > 0 {
		s.publishInvalidate(ctx, affected, "note_created")
	}

	if failed > 0 {
		return fmt.Sprintf("%d collaborator grants could not be created; re-share the folder to complete them", failed)
	}
	return ""
}

// invalidateWatchers tells every direct grant holder (and the owner) that
// the note changed.
func (s *noteService) invalidateWatchers(ctx context.Context, uow unitofwork.UnitOfWork, note *entity.Note, reason string) {
	userIds := []uuid.UUID{note.UserId}
	grants, err := uow.NoteCollaboratorRepository().FindAll(ctx, specification.GrantOnNote{NoteID: note.Id})
	if err != nil {
		s.logger.Warn("note", "Failed to list note grants for invalidation", map[string]interface{}{
			"note_id": note.Id, "error": err.Error(),
		})
	} else {
		for _, grant := range grants {
			userIds = append(userIds, grant.UserId)
		}
	}
	s.publishInvalidate(ctx, userIds, reason)
}

func (s *noteService) publishChange(ctx context.Context, targetUserId uuid.UUID, eventType string, payload map[string]interface{}) {
	if s.changeFeed == nil {
		return
	}
	event := events.BaseEvent{
		Type:       eventType,
		Data:       payload,
		OccurredAt: time.Now(),
	}
	if err := s.changeFeed.Publish(ctx, targetUserId, event); err != nil {
		s.logger.Warn("note", "Failed to publish change-feed event", map[string]interface{}{
			"event": eventType, "user_id": targetUserId, "error": err.Error(),
		})
	}
}

func (s *noteService) publishInvalidate(ctx context.Context, userIds []uuid.UUID, reason string) {
	if s.publisherService == nil {
		return
	}
	msg := dto.InvalidateViewMessage{UserIds: userIds, Reason: reason}
	payload, _ := json.Marshal(msg)
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("note", "Failed to publish invalidation message", map[string]interface{}{
			"reason": reason, "error": err.Error(),
		})
	}
}

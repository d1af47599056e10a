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
	"planner-notebook-be/internal/pkg/mailer"
	"planner-notebook-be/internal/repository/contract"
	"planner-notebook-be/internal/repository/specification"
	"planner-notebook-be/internal/repository/unitofwork"
	"planner-notebook-be/pkg/events"

	"github.com/google/uuid"
)

// IChangeFeedPublisher pushes collaborator-change events onto the external
// change feed, addressed per affected user.
type IChangeFeedPublisher interface {
	Publish(ctx context.Context, targetUserId uuid.UUID, event events.Event) error
}

type IShareService interface {
	ShareFolder(ctx context.Context, granterId uuid.UUID, req *dto.ShareFolderRequest) (*dto.ShareFolderResponse, error)
	ShareNote(ctx context.Context, granterId uuid.UUID, req *dto.ShareNoteRequest) (*dto.ShareNoteResponse, error)
	UnshareFolder(ctx context.Context, actorId uuid.UUID, req *dto.UnshareFolderRequest) error
	UnshareNote(ctx context.Context, actorId uuid.UUID, req *dto.UnshareNoteRequest) error
}

type shareService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	changeFeed       IChangeFeedPublisher
	emailService     mailer.IEmailService
	logger           logger.ILogger
}

func NewShareService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	changeFeed IChangeFeedPublisher,
	emailService mailer.IEmailService,
	logger logger.ILogger,
) IShareService {
	return &shareService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		changeFeed:       changeFeed,
		emailService:     emailService,
		logger:           logger,
	}
}

func (s *shareService) ShareFolder(ctx context.Context, granterId uuid.UUID, req *dto.ShareFolderRequest) (*dto.ShareFolderResponse, error) {
	permission := entity.Permission(req.Permission)
	if !permission.Valid() {
		return nil, apperror.NewValidation("permission must be view or edit")
	}
	if req.TargetUserId == granterId {
		return nil, apperror.NewValidation("cannot share a folder with yourself")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Ownership is verified against the current row, never a cached value.
	folder, err := uow.FolderRepository().FindOne(ctx, specification.ByID{ID: req.FolderId})
	if err != nil {
		return nil, apperror.NewStore("read folder", err)
	}
	if folder == nil {
		return nil, apperror.NewNotFound("Folder not found")
	}
	if folder.UserId != granterId {
		return nil, apperror.NewPermission("Only the folder owner can share it")
	}

	target, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: req.TargetUserId})
	if err != nil {
		return nil, apperror.NewStore("read target user", err)
	}
	if target == nil {
		return nil, apperror.NewNotFound("Target user not found")
	}

	existing, err := uow.FolderCollaboratorRepository().FindOne(ctx,
		specification.GrantOnFolder{FolderID: req.FolderId},
		specification.CollaboratorUser{UserID: req.TargetUserId},
	)
	if err != nil {
		return nil, apperror.NewStore("read folder grant", err)
	}
	if existing != nil {
		return nil, apperror.NewDuplicate("Folder is already shared with this user")
	}

	grant := entity.FolderCollaborator{
		Id:         uuid.New(),
		FolderId:   req.FolderId,
		UserId:     req.TargetUserId,
		Permission: permission,
		InvitedBy:  granterId,
		CreatedAt:  time.Now(),
	}
	if err := uow.FolderCollaboratorRepository().Create(ctx, &grant); err != nil {
		return nil, apperror.NewStore("insert folder grant", err)
	}

	// The grant row is committed at this point; materialization failures are
	// reported as a warning so the caller can retry the whole (idempotent)
	// operation instead of losing the share.
	materialized, warning := s.materializeFolderGrant(ctx, uow, folder.Id, req.TargetUserId, granterId, permission)

	s.notifyShare(ctx, uow, granterId, req.TargetUserId, events.TypeFolderShared, "folder", folder.Name, string(permission), target.Email, map[string]interface{}{
		"folder_id":  folder.Id,
		"permission": string(permission),
	})

	return &dto.ShareFolderResponse{
		FolderId:     folder.Id,
		TargetUserId: req.TargetUserId,
		Materialized: materialized,
		Warning:      warning,
	}, nil
}

func (s *shareService) ShareNote(ctx context.Context, granterId uuid.UUID, req *dto.ShareNoteRequest) (*dto.ShareNoteResponse, error) {
	permission := entity.Permission(req.Permission)
	if !permission.Valid() {
		return nil, apperror.NewValidation("permission must be view or edit")
	}
	if req.TargetUserId == granterId {
		return nil, apperror.NewValidation("cannot share a note with yourself")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: req.NoteId})
	if err != nil {
		return nil, apperror.NewStore("read note", err)
	}
	if note == nil {
		return nil, apperror.NewNotFound("Note not found")
	}
	if note.UserId != granterId {
		return nil, apperror.NewPermission("Only the note owner can share it")
	}

	target, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: req.TargetUserId})
	if err != nil {
		return nil, apperror.NewStore("read target user", err)
	}
	if target == nil {
		return nil, apperror.NewNotFound("Target user not found")
	}

	existing, err := uow.NoteCollaboratorRepository().FindOne(ctx,
		specification.GrantOnNote{NoteID: req.NoteId},
		specification.CollaboratorUser{UserID: req.TargetUserId},
	)
	if err != nil {
		return nil, apperror.NewStore("read note grant", err)
	}
	if existing != nil {
		return nil, apperror.NewDuplicate("Note is already shared with this user")
	}

	grant := entity.NoteCollaborator{
		Id:         uuid.New(),
		NoteId:     req.NoteId,
		UserId:     req.TargetUserId,
		Permission: permission,
		InvitedBy:  granterId,
		CreatedAt:  time.Now(),
	}
	if err := uow.NoteCollaboratorRepository().Create(ctx, &grant); err != nil {
		return nil, apperror.NewStore("insert note grant", err)
	}

	s.notifyShare(ctx, uow, granterId, req.TargetUserId, events.TypeNoteShared, "note", note.Title, string(permission), target.Email, map[string]interface{}{
		"note_id":    note.Id,
		"permission": string(permission),
	})

	return &dto.ShareNoteResponse{
		NoteId:       note.Id,
		TargetUserId: req.TargetUserId,
	}, nil
}

// UnshareFolder removes the folder grant only. Per-note rows materialized
// from it stay in place; reconciling them is an explicit product decision
// that has not been made, so no cascade happens here.
func (s *shareService) UnshareFolder(ctx context.Context, actorId uuid.UUID, req *dto.UnshareFolderRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	folder, err := uow.FolderRepository().FindOne(ctx, specification.ByID{ID: req.FolderId})
	if err != nil {
		return apperror.NewStore("read folder", err)
	}
	if folder == nil {
		return apperror.NewNotFound("Folder not found")
	}
	// The inviting owner revokes any grant; a recipient may remove their own.
	if folder.UserId != actorId && req.TargetUserId != actorId {
		return apperror.NewPermission("Only the folder owner or the recipient can remove this share")
	}

	if err := uow.FolderCollaboratorRepository().DeleteByPair(ctx, req.FolderId, req.TargetUserId); err != nil {
		return apperror.NewStore("delete folder grant", err)
	}

	s.publishChange(ctx, req.TargetUserId, events.TypeFolderUnshared, map[string]interface{}{
		"folder_id": folder.Id,
	})
	s.publishInvalidate(ctx, []uuid.UUID{req.TargetUserId}, "folder_unshared")
	return nil
}

func (s *shareService) UnshareNote(ctx context.Context, actorId uuid.UUID, req *dto.UnshareNoteRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: req.NoteId})
	if err != nil {
		return apperror.NewStore("read note", err)
	}
	if note == nil {
		return apperror.NewNotFound("Note not found")
	}
	if note.UserId != actorId && req.TargetUserId != actorId {
		return apperror.NewPermission("Only the note owner or the recipient can remove this share")
	}

	if err := uow.NoteCollaboratorRepository().DeleteByPair(ctx, req.NoteId, req.TargetUserId); err != nil {
		return apperror.NewStore("delete note grant", err)
	}

	s.publishChange(ctx, req.TargetUserId, events.TypeNoteUnshared, map[string]interface{}{
		"note_id": note.Id,
	})
	s.publishInvalidate(ctx, []uuid.UUID{req.TargetUserId}, "note_unshared")
	return nil
}

// materializeFolderGrant inserts one per-note grant for every note currently
// in the folder, skipping notes the target already holds a grant on and
// notes the target owns. Returns how many rows were created plus a warning
// when some inserts failed.
func (s *shareService) materializeFolderGrant(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	folderId, targetUserId, granterId uuid.UUID,
	permission entity.Permission,
) (int, string) {
	notes, err := uow.NoteRepository().FindAll(ctx, specification.ByFolderID{FolderID: folderId})
	if err != nil {
		s.logger.Warn("share", "Failed to list folder notes for materialization", map[string]interface{}{
			"folder_id": folderId, "error": err.Error(),
		})
		return 0, "could not materialize per-note access; retry the share to complete it"
	}
	if len(notes) == 0 {
		return 0, ""
	}

	noteIds := make([]uuid.UUID, 0, len(notes))
	for _, note := range notes {
		noteIds = append(noteIds, note.Id)
	}

	existingGrants, err := uow.NoteCollaboratorRepository().FindAll(ctx,
		specification.GrantOnNotes{NoteIDs: noteIds},
		specification.CollaboratorUser{UserID: targetUserId},
	)
	if err != nil {
		s.logger.Warn("share", "Failed to read existing note grants", map[string]interface{}{
			"folder_id": folderId, "error": err.Error(),
		})
		return 0, "could not materialize per-note access; retry the share to complete it"
	}
	alreadyGranted := make(map[uuid.UUID]bool, len(existingGrants))
	for _, g := range existingGrants {
		alreadyGranted[g.NoteId] = true
	}

	created := 0
	failed := 0
	for _, note := range notes {
		if alreadyGranted[note.Id] {
			continue
		}
		if note.UserId == targetUserId {
			// A grant naming its own owner as target is never written.
			continue
		}

		grant := entity.NoteCollaborator{
			Id:         uuid.New(),
			NoteId:     note.Id,
			UserId:     targetUserId,
			Permission: permission,
			InvitedBy:  granterId,
			CreatedAt:  time.Now(),
		}
		if err := uow.NoteCollaboratorRepository().Create(ctx, &grant); err != nil {
			if errors.Is(err, contract.ErrDuplicateGrant) {
				// Lost a race against a concurrent share; the grant exists.
				continue
			}
			failed++
			s.logger.Warn("share", "Failed to materialize note grant", map[string]interface{}{
				"note_id": note.Id, "user_id": targetUserId, "error": err.Error(),
			})
			continue
		}
		created++
	}

	if failed > 0 {
		return created, fmt.Sprintf("%d of %d note grants could not be created; retry the share to complete them", failed, created+failed)
	}
	return created, ""
}

// notifyShare runs the best-effort side channel of a successful share:
// notification row, change-feed event, invalidation message, invite email.
// None of these can fail the share itself.
func (s *shareService) notifyShare(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	granterId, targetUserId uuid.UUID,
	eventType, itemType, itemName, permission, targetEmail string,
	metadata map[string]interface{},
) {
	granter, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: granterId})
	if err != nil || granter == nil {
		s.logger.Warn("share", "Could not resolve granter for notification", map[string]interface{}{
			"granter_id": granterId,
		})
		granter = &entity.User{FullName: "Someone"}
	}

	notification := entity.Notification{
		Id:        uuid.New(),
		UserId:    targetUserId,
		ActorId:   &granterId,
		TypeCode:  eventType,
		Title:     fmt.Sprintf("%s shared a %s with you", granter.FullName, itemType),
		Message:   fmt.Sprintf("%q is now available in your shared items (%s access)", itemName, permission),
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := uow.NotificationRepository().Create(ctx, &notification); err != nil {
		s.logger.Warn("share", "Failed to write share notification", map[string]interface{}{
			"user_id": targetUserId, "error": err.Error(),
		})
	}

	s.publishChange(ctx, targetUserId, eventType, metadata)
	s.publishInvalidate(ctx, []uuid.UUID{targetUserId}, eventType)

	go func() {
		if err := s.emailService.SendShareInvite(targetEmail, granter.FullName, itemType, itemName, permission); err != nil {
			s.logger.Warn("share", "Failed to send share invite email", map[string]interface{}{
				"email": targetEmail, "error": err.Error(),
			})
		}
	}()
}

func (s *shareService) publishChange(ctx context.Context, targetUserId uuid.UUID, eventType string, payload map[string]interface{}) {
	if s.changeFeed == nil {
		return
	}
	event := events.BaseEvent{
		Type:       eventType,
		Data:       payload,
		OccurredAt: time.Now(),
	}
	if err := s.changeFeed.Publish(ctx, targetUserId, event); err != nil {
		s.logger.Warn("share", "Failed to publish change-feed event", map[string]interface{}{
			"event": eventType, "user_id": targetUserId, "error": err.Error(),
		})
	}
}

func (s *shareService) publishInvalidate(ctx context.Context, userIds []uuid.UUID, reason string) {
	if s.publisherService == nil {
		return
	}
	msg := dto.InvalidateViewMessage{UserIds: userIds, Reason: reason}
	payload, _ := json.Marshal(msg)
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("share", "Failed to publish invalidation message", map[string]interface{}{
			"reason": reason, "error": err.Error(),
		})
	}
}

package service

import (
	"context"
	"time"

	"planner-notebook-be/internal/apperror"
	"planner-notebook-be/internal/dto"
	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/pkg/logger"
	"planner-notebook-be/internal/repository/memory"
	"planner-notebook-be/internal/repository/specification"
	"planner-notebook-be/internal/repository/unitofwork"
	"planner-notebook-be/pkg/autosave"
	"planner-notebook-be/pkg/draft"
	"planner-notebook-be/pkg/kvstore"
	"planner-notebook-be/pkg/store"

	"github.com/google/uuid"
)

// IEditorService drives one editing session per user: the crash-safe draft
// machine plus the autosave engine bound to the note under edit.
type IEditorService interface {
	Open(ctx context.Context, userId uuid.UUID, req *dto.OpenEditorRequest) (*dto.OpenEditorResponse, error)
	Change(ctx context.Context, userId uuid.UUID, req *dto.EditorChangeRequest) (*dto.EditorStatusResponse, error)
	Close(ctx context.Context, userId uuid.UUID) error
	Recover(ctx context.Context, userId uuid.UUID) (*dto.RecoverDraftResponse, error)
	Status(ctx context.Context, userId uuid.UUID) (*dto.EditorStatusResponse, error)

	// EndSession cancels the user's timers on sign-out. The draft record
	// stays on disk so the next session can recover it.
	EndSession(userId uuid.UUID)
}

type editorService struct {
	uowFactory  unitofwork.RepositoryFactory
	noteService INoteService
	sessions    *memory.EditorSessionRepository
	draftStore  kvstore.Store
	debounce    time.Duration
	logger      logger.ILogger
}

func NewEditorService(
	uowFactory unitofwork.RepositoryFactory,
	noteService INoteService,
	sessions *memory.EditorSessionRepository,
	draftStore kvstore.Store,
	debounce time.Duration,
	logger logger.ILogger,
) IEditorService {
	if debounce <= 0 {
		debounce = autosave.DefaultDebounce
	}
	return &editorService{
		uowFactory:  uowFactory,
		noteService: noteService,
		sessions:    sessions,
		draftStore:  draftStore,
		debounce:    debounce,
		logger:      logger,
	}
}

func (s *editorService) Open(ctx context.Context, userId uuid.UUID, req *dto.OpenEditorRequest) (*dto.OpenEditorResponse, error) {
	session := s.getOrCreateSession(userId)

	if req.NoteId == nil {
		if err := session.Draft.OpenNew(); err != nil {
			return nil, apperror.NewStore("persist draft", err)
		}
		return s.openResponse(session), nil
	}

	// Editing an existing note needs write access; a view grant only reads.
	shown, err := s.noteService.Show(ctx, userId, *req.NoteId)
	if err != nil {
		return nil, err
	}
	if shown.Permission != permissionOwner && shown.Permission != string(entity.PermissionEdit) {
		return nil, apperror.NewPermission("Editing this note requires an edit grant")
	}

	if err := session.Draft.OpenExisting(draft.EditingRef{Id: shown.Id, Title: shown.Title}); err != nil {
		return nil, apperror.NewStore("persist draft", err)
	}
	if err := session.Draft.SetBody(shown.Content); err != nil {
		return nil, apperror.NewStore("persist draft", err)
	}
	if err := session.Draft.SetColor(shown.Color); err != nil {
		return nil, apperror.NewStore("persist draft", err)
	}
	session.Autosave.Bind(shown.Id)

	return s.openResponse(session), nil
}

func (s *editorService) Change(ctx context.Context, userId uuid.UUID, req *dto.EditorChangeRequest) (*dto.EditorStatusResponse, error) {
	session, found := s.sessions.Get(userId.String())
	if !found || session.Draft.State() == draft.StateClosed {
		return nil, apperror.NewNotFound("No open editing session")
	}

	if err := session.Draft.SetTitle(req.Title); err != nil {
		return nil, apperror.NewStore("persist draft", err)
	}
	if err := session.Draft.SetBody(req.Content); err != nil {
		return nil, apperror.NewStore("persist draft", err)
	}
	if err := session.Draft.SetColor(req.Color); err != nil {
		return nil, apperror.NewStore("persist draft", err)
	}

	// Only counts toward autosave when bound to an existing note; the
	// engine itself drops blank-title edits.
	session.Autosave.Edit(autosave.Snapshot{
		Title:   req.Title,
		Content: req.Content,
		Color:   req.Color,
	})

	return s.statusResponse(session), nil
}

func (s *editorService) Close(ctx context.Context, userId uuid.UUID) error {
	session, found := s.sessions.Get(userId.String())
	if !found {
		return nil
	}

	// Pending or in-flight autosave work is discarded, not flushed.
	session.Autosave.Close()
	if err := session.Draft.Close(); err != nil {
		return apperror.NewStore("clear draft", err)
	}
	s.sessions.Delete(userId.String())
	return nil
}

func (s *editorService) Recover(ctx context.Context, userId uuid.UUID) (*dto.RecoverDraftResponse, error) {
	session := s.getOrCreateSession(userId)

	recovery, err := session.Draft.Recover()
	if err != nil {
		return nil, apperror.NewStore("read draft", err)
	}
	if recovery == nil {
		return &dto.RecoverDraftResponse{Recovered: false}, nil
	}

	res := &dto.RecoverDraftResponse{
		Recovered: true,
		Title:     recovery.Title,
		Content:   recovery.Body,
		Color:     recovery.Color,
	}

	if recovery.EditingRef != nil {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		err := session.Draft.ResolveEditingRef(func(id uuid.UUID) bool {
			note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: id})
			return err == nil && note != nil
		})
		if err != nil {
			s.logger.Warn("editor", "Failed to resolve recovered editing ref", map[string]interface{}{
				"user_id": userId, "error": err.Error(),
			})
		}
		if ref := session.Draft.EditingRef(); ref != nil {
			id := ref.Id
			res.NoteId = &id
			session.Autosave.Bind(id)
		}
	}

	res.State = session.Draft.State()
	return res, nil
}

func (s *editorService) Status(ctx context.Context, userId uuid.UUID) (*dto.EditorStatusResponse, error) {
	session, found := s.sessions.Get(userId.String())
	if !found {
		return &dto.EditorStatusResponse{
			State:         draft.StateClosed,
			AutosaveState: string(autosave.StateIdle),
		}, nil
	}
	return s.statusResponse(session), nil
}

func (s *editorService) EndSession(userId uuid.UUID) {
	session, found := s.sessions.Get(userId.String())
	if !found {
		return
	}
	session.Autosave.Close()
	s.sessions.Delete(userId.String())
}

func (s *editorService) getOrCreateSession(userId uuid.UUID) *store.EditorSession {
	if session, found := s.sessions.Get(userId.String()); found {
		return session
	}

	machine := draft.NewMachine(kvstore.NewNamespaced(s.draftStore, userId.String()))
	engine := autosave.NewEngine(
		s.saveFuncFor(userId),
		autosave.WithDebounce(s.debounce),
	)

	session := &store.EditorSession{
		UserID:   userId.String(),
		Draft:    machine,
		Autosave: engine,
		OpenedAt: time.Now(),
	}
	s.sessions.Save(session)
	return session
}

// saveFuncFor issues the debounced update write through the note service so
// permission checks stay in one place. Failures are logged and swallowed;
// the engine returns to Idle and the next edit re-arms the cycle.
func (s *editorService) saveFuncFor(userId uuid.UUID) autosave.SaveFunc {
	return func(ctx context.Context, noteId uuid.UUID, snap autosave.Snapshot) error {
		_, err := s.noteService.Update(ctx, userId, &dto.UpdateNoteRequest{
			Id:      noteId,
			Title:   snap.Title,
			Content: snap.Content,
			Color:   snap.Color,
		})
		if err != nil {
			s.logger.Warn("editor", "Autosave write failed", map[string]interface{}{
				"note_id": noteId, "user_id": userId, "error": err.Error(),
			})
		}
		return err
	}
}

func (s *editorService) openResponse(session *store.EditorSession) *dto.OpenEditorResponse {
	title, body, color := session.Draft.Fields()
	return &dto.OpenEditorResponse{
		State:   session.Draft.State(),
		Title:   title,
		Content: body,
		Color:   color,
	}
}

func (s *editorService) statusResponse(session *store.EditorSession) *dto.EditorStatusResponse {
	title, body, color := session.Draft.Fields()
	return &dto.EditorStatusResponse{
		State:         session.Draft.State(),
		AutosaveState: string(session.Autosave.State()),
		Title:         title,
		Content:       body,
		Color:         color,
	}
}

package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/repository/contract"
	"planner-notebook-be/internal/repository/specification"
	"planner-notebook-be/internal/repository/unitofwork"
	"planner-notebook-be/pkg/events"

	"github.com/google/uuid"
)

// In-memory repositories backing the service tests. They interpret the same
// specifications the GORM implementations translate to SQL, so services run
// unchanged against them. The mutex covers autosave timers writing from
// their own goroutines.
type memoryStore struct {
	mu sync.Mutex

	users         []*entity.User
	refreshTokens []*entity.UserRefreshToken
	folders       []*entity.Folder
	notes         []*entity.Note
	folderGrants  []*entity.FolderCollaborator
	noteGrants    []*entity.NoteCollaborator
	notifications []*entity.Notification

	// Error hooks for failure-path tests.
	noteGrantCreateErr func(*entity.NoteCollaborator) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) noteContent(id uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, note := range s.notes {
		if note.Id == id {
			return note.Content
		}
	}
	return ""
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// --- note repository ---

type memNoteRepo struct{ s *memoryStore }

func (r *memNoteRepo) match(note *entity.Note, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if note.Id != sp.ID {
				return false
			}
		case specification.ByIDs:
			if !containsID(sp.IDs, note.Id) {
				return false
			}
		case specification.OwnedBy:
			if note.UserId != sp.UserID {
				return false
			}
		case specification.ByFolderID:
			if note.FolderId == nil || *note.FolderId != sp.FolderID {
				return false
			}
		case specification.ByFolderIDs:
			if note.FolderId == nil || !containsID(sp.FolderIDs, *note.FolderId) {
				return false
			}
		case specification.Unfiled:
			if note.FolderId != nil {
				return false
			}
		case specification.NotInFolders:
			if note.FolderId != nil && containsID(sp.FolderIDs, *note.FolderId) {
				return false
			}
		case specification.TitleSearch:
			if !strings.Contains(strings.ToLower(note.Title), strings.ToLower(sp.Query)) {
				return false
			}
		}
	}
	return true
}

func (r *memNoteRepo) Create(ctx context.Context, note *entity.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *note
	r.s.notes = append(r.s.notes, &clone)
	return nil
}

func (r *memNoteRepo) Update(ctx context.Context, note *entity.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, existing := range r.s.notes {
		if existing.Id == note.Id {
			clone := *note
			r.s.notes[i] = &clone
			return nil
		}
	}
	return nil
}

func (r *memNoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.notes[:0]
	for _, note := range r.s.notes {
		if note.Id != id {
			kept = append(kept, note)
		}
	}
	r.s.notes = kept
	return nil
}

func (r *memNoteRepo) DetachFromFolder(ctx context.Context, folderId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, note := range r.s.notes {
		if note.FolderId != nil && *note.FolderId == folderId {
			note.FolderId = nil
		}
	}
	return nil
}

func (r *memNoteRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, note := range r.s.notes {
		if r.match(note, specs) {
			clone := *note
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memNoteRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Note
	for _, note := range r.s.notes {
		if r.match(note, specs) {
			clone := *note
			out = append(out, &clone)
		}
	}
	for _, spec := range specs {
		if _, ok := spec.(specification.CreatedDesc); ok {
			sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		}
	}
	return out, nil
}

func (r *memNoteRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// --- folder repository ---

type memFolderRepo struct{ s *memoryStore }

func (r *memFolderRepo) match(folder *entity.Folder, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if folder.Id != sp.ID {
				return false
			}
		case specification.ByIDs:
			if !containsID(sp.IDs, folder.Id) {
				return false
			}
		case specification.OwnedBy:
			if folder.UserId != sp.UserID {
				return false
			}
		}
	}
	return true
}

func (r *memFolderRepo) Create(ctx context.Context, folder *entity.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *folder
	r.s.folders = append(r.s.folders, &clone)
	return nil
}

func (r *memFolderRepo) Update(ctx context.Context, folder *entity.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, existing := range r.s.folders {
		if existing.Id == folder.Id {
			clone := *folder
			r.s.folders[i] = &clone
		}
	}
	return nil
}

func (r *memFolderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.folders[:0]
	for _, folder := range r.s.folders {
		if folder.Id != id {
			kept = append(kept, folder)
		}
	}
	r.s.folders = kept
	return nil
}

func (r *memFolderRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, folder := range r.s.folders {
		if r.match(folder, specs) {
			clone := *folder
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memFolderRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Folder
	for _, folder := range r.s.folders {
		if r.match(folder, specs) {
			clone := *folder
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memFolderRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// --- folder collaborator repository ---

type memFolderGrantRepo struct{ s *memoryStore }

func (r *memFolderGrantRepo) match(grant *entity.FolderCollaborator, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.CollaboratorUser:
			if grant.UserId != sp.UserID {
				return false
			}
		case specification.GrantOnFolder:
			if grant.FolderId != sp.FolderID {
				return false
			}
		case specification.GrantOnFolders:
			if !containsID(sp.FolderIDs, grant.FolderId) {
				return false
			}
		case specification.InvitedBy:
			if grant.InvitedBy != sp.UserID {
				return false
			}
		}
	}
	return true
}

func (r *memFolderGrantRepo) Create(ctx context.Context, grant *entity.FolderCollaborator) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.folderGrants {
		if existing.FolderId == grant.FolderId && existing.UserId == grant.UserId {
			return contract.ErrDuplicateGrant
		}
	}
	clone := *grant
	r.s.folderGrants = append(r.s.folderGrants, &clone)
	return nil
}

func (r *memFolderGrantRepo) DeleteByPair(ctx context.Context, folderId, userId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.folderGrants[:0]
	for _, grant := range r.s.folderGrants {
		if grant.FolderId != folderId || grant.UserId != userId {
			kept = append(kept, grant)
		}
	}
	r.s.folderGrants = kept
	return nil
}

func (r *memFolderGrantRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FolderCollaborator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, grant := range r.s.folderGrants {
		if r.match(grant, specs) {
			clone := *grant
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memFolderGrantRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FolderCollaborator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.FolderCollaborator
	for _, grant := range r.s.folderGrants {
		if r.match(grant, specs) {
			clone := *grant
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memFolderGrantRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// --- note collaborator repository ---

type memNoteGrantRepo struct{ s *memoryStore }

func (r *memNoteGrantRepo) match(grant *entity.NoteCollaborator, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.CollaboratorUser:
			if grant.UserId != sp.UserID {
				return false
			}
		case specification.GrantOnNote:
			if grant.NoteId != sp.NoteID {
				return false
			}
		case specification.GrantOnNotes:
			if !containsID(sp.NoteIDs, grant.NoteId) {
				return false
			}
		case specification.InvitedBy:
			if grant.InvitedBy != sp.UserID {
				return false
			}
		}
	}
	return true
}

func (r *memNoteGrantRepo) Create(ctx context.Context, grant *entity.NoteCollaborator) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.noteGrantCreateErr != nil {
		if err := r.s.noteGrantCreateErr(grant); err != nil {
			return err
		}
	}
	for _, existing := range r.s.noteGrants {
		if existing.NoteId == grant.NoteId && existing.UserId == grant.UserId {
			return contract.ErrDuplicateGrant
		}
	}
	clone := *grant
	r.s.noteGrants = append(r.s.noteGrants, &clone)
	return nil
}

func (r *memNoteGrantRepo) DeleteByPair(ctx context.Context, noteId, userId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.noteGrants[:0]
	for _, grant := range r.s.noteGrants {
		if grant.NoteId != noteId || grant.UserId != userId {
			kept = append(kept, grant)
		}
	}
	r.s.noteGrants = kept
	return nil
}

func (r *memNoteGrantRepo) DeleteByNote(ctx context.Context, noteId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.noteGrants[:0]
	for _, grant := range r.s.noteGrants {
		if grant.NoteId != noteId {
			kept = append(kept, grant)
		}
	}
	r.s.noteGrants = kept
	return nil
}

func (r *memNoteGrantRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NoteCollaborator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, grant := range r.s.noteGrants {
		if r.match(grant, specs) {
			clone := *grant
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memNoteGrantRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NoteCollaborator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.NoteCollaborator
	for _, grant := range r.s.noteGrants {
		if r.match(grant, specs) {
			clone := *grant
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memNoteGrantRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

// --- user repository ---

type memUserRepo struct{ s *memoryStore }

func (r *memUserRepo) match(user *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if user.Id != sp.ID {
				return false
			}
		case specification.ByIDs:
			if !containsID(sp.IDs, user.Id) {
				return false
			}
		case specification.ByEmail:
			if user.Email != sp.Email {
				return false
			}
		case specification.ActiveUsers:
			if user.Status != entity.UserStatusActive {
				return false
			}
		}
	}
	return true
}

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *user
	r.s.users = append(r.s.users, &clone)
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, existing := range r.s.users {
		if existing.Id == user.Id {
			clone := *user
			r.s.users[i] = &clone
		}
	}
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.users[:0]
	for _, user := range r.s.users {
		if user.Id != id {
			kept = append(kept, user)
		}
	}
	r.s.users = kept
	return nil
}

func (r *memUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if r.match(user, specs) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.User
	for _, user := range r.s.users {
		if r.match(user, specs) {
			clone := *user
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *memUserRepo) CreateRefreshToken(ctx context.Context, token *entity.UserRefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *token
	r.s.refreshTokens = append(r.s.refreshTokens, &clone)
	return nil
}

func (r *memUserRepo) FindRefreshToken(ctx context.Context, specs ...specification.Specification) (*entity.UserRefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, token := range r.s.refreshTokens {
		matched := true
		for _, spec := range specs {
			if sp, ok := spec.(specification.ByTokenHash); ok && token.TokenHash != sp.Hash {
				matched = false
			}
		}
		if matched {
			clone := *token
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, token := range r.s.refreshTokens {
		if token.TokenHash == tokenHash {
			token.Revoked = true
		}
	}
	return nil
}

// --- notification repository ---

type memNotificationRepo struct{ s *memoryStore }

func (r *memNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	clone := *notification
	r.s.notifications = append(r.s.notifications, &clone)
	return nil
}

func (r *memNotificationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Notification
	for _, notification := range r.s.notifications {
		matched := true
		for _, spec := range specs {
			if sp, ok := spec.(specification.OwnedBy); ok && notification.UserId != sp.UserID {
				matched = false
			}
		}
		if matched {
			clone := *notification
			out = append(out, &clone)
		}
	}
	for _, spec := range specs {
		if _, ok := spec.(specification.CreatedDesc); ok {
			sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		}
	}
	for _, spec := range specs {
		if sp, ok := spec.(specification.Pagination); ok {
			if sp.Offset < len(out) {
				out = out[sp.Offset:]
			} else {
				out = nil
			}
			if sp.Limit > 0 && sp.Limit < len(out) {
				out = out[:sp.Limit]
			}
		}
	}
	return out, nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, userId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, notification := range r.s.notifications {
		if notification.Id == id && notification.UserId == userId {
			notification.IsRead = true
		}
	}
	return nil
}

func (r *memNotificationRepo) CountUnread(ctx context.Context, userId uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, notification := range r.s.notifications {
		if notification.UserId == userId && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

// --- unit of work ---

type memUnitOfWork struct {
	s         *memoryStore
	begun     int
	committed int
	rolled    int
}

func (u *memUnitOfWork) Begin(ctx context.Context) error { u.begun++; return nil }
func (u *memUnitOfWork) Commit() error                   { u.committed++; return nil }
func (u *memUnitOfWork) Rollback() error                 { u.rolled++; return nil }

func (u *memUnitOfWork) UserRepository() contract.UserRepository { return &memUserRepo{u.s} }
func (u *memUnitOfWork) FolderRepository() contract.FolderRepository {
	return &memFolderRepo{u.s}
}
func (u *memUnitOfWork) NoteRepository() contract.NoteRepository { return &memNoteRepo{u.s} }
func (u *memUnitOfWork) FolderCollaboratorRepository() contract.FolderCollaboratorRepository {
	return &memFolderGrantRepo{u.s}
}
func (u *memUnitOfWork) NoteCollaboratorRepository() contract.NoteCollaboratorRepository {
	return &memNoteGrantRepo{u.s}
}
func (u *memUnitOfWork) NotificationRepository() contract.NotificationRepository {
	return &memNotificationRepo{u.s}
}

type memFactory struct{ uow *memUnitOfWork }

func newMemFactory(s *memoryStore) *memFactory {
	return &memFactory{uow: &memUnitOfWork{s: s}}
}

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

// --- side-channel fakes ---

type capturedEvent struct {
	UserId uuid.UUID
	Event  events.Event
}

type fakeChangeFeed struct {
	mu        sync.Mutex
	published []capturedEvent
}

func (f *fakeChangeFeed) Publish(ctx context.Context, targetUserId uuid.UUID, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, capturedEvent{UserId: targetUserId, Event: event})
	return nil
}

type fakeBusPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakeBusPublisher) Publish(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeMailer struct{}

func (f *fakeMailer) SendShareInvite(toEmail, inviterName, itemType, itemName, permission string) error {
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}

func (nopLogger) Info(module, message string, details map[string]interface{}) {}

func (nopLogger) Warn(module, message string, details map[string]interface{}) {}

func (nopLogger) Error(module, message string, details map[string]interface{}) {}

func (nopLogger) Sync() error { return nil }

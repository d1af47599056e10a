package service

import (
	"context"
	"testing"
	"time"

	"planner-notebook-be/internal/apperror"
	"planner-notebook-be/internal/dto"
	"planner-notebook-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteFixture struct {
	store   *memoryStore
	feed    *fakeChangeFeed
	bus     *fakeBusPublisher
	service INoteService
}

func newNoteFixture() *noteFixture {
	store := newMemoryStore()
	feed := &fakeChangeFeed{}
	bus := &fakeBusPublisher{}
	svc := NewNoteService(newMemFactory(store), bus, feed, nopLogger{})
	return &noteFixture{store: store, feed: feed, bus: bus, service: svc}
}

func (f *noteFixture) addFolder(owner uuid.UUID) *entity.Folder {
	folder := &entity.Folder{Id: uuid.New(), Name: "Folder", UserId: owner, CreatedAt: time.Now()}
	f.store.folders = append(f.store.folders, folder)
	return folder
}

func (f *noteFixture) addNote(owner uuid.UUID, folderId *uuid.UUID, title string) *entity.Note {
	note := &entity.Note{Id: uuid.New(), Title: title, FolderId: folderId, UserId: owner, CreatedAt: time.Now()}
	f.store.notes = append(f.store.notes, note)
	return note
}

func (f *noteFixture) grantFolder(folderId, userId uuid.UUID, permission entity.Permission) {
	f.store.folderGrants = append(f.store.folderGrants, &entity.FolderCollaborator{
		Id: uuid.New(), FolderId: folderId, UserId: userId, Permission: permission,
	})
}

func (f *noteFixture) grantNote(noteId, userId uuid.UUID, permission entity.Permission) {
	f.store.noteGrants = append(f.store.noteGrants, &entity.NoteCollaborator{
		Id: uuid.New(), NoteId: noteId, UserId: userId, Permission: permission,
	})
}

func TestCreateNoteInSharedFolderMaterializesGrants(t *testing.T) {
	f := newNoteFixture()
	owner := uuid.New()
	viewCollab := uuid.New()
	editCollab := uuid.New()

	folder := f.addFolder(owner)
	f.grantFolder(folder.Id, viewCollab, entity.PermissionView)
	f.grantFolder(folder.Id, editCollab, entity.PermissionEdit)

	res, err := f.service.Create(context.Background(), owner, &dto.CreateNoteRequest{
		Title:    "New note",
		FolderId: &folder.Id,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warning)

	// Each collaborator gets a grant carrying their folder-level permission.
	require.Len(t, f.store.noteGrants, 2)
	byUser := make(map[uuid.UUID]entity.Permission)
	for _, g := range f.store.noteGrants {
		assert.Equal(t, res.Id, g.NoteId)
		assert.Equal(t, owner, g.InvitedBy)
		byUser[g.UserId] = g.Permission
	}
	assert.Equal(t, entity.PermissionView, byUser[viewCollab])
	assert.Equal(t, entity.PermissionEdit, byUser[editCollab])

	assert.Len(t, f.feed.published, 2)
}

func TestCreateNoteUnfiledSkipsMaterialization(t *testing.T) {
	f := newNoteFixture()
	owner := uuid.New()

	res, err := f.service.Create(context.Background(), owner, &dto.CreateNoteRequest{Title: "Loose"})
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.Empty(t, f.store.noteGrants)
}

func TestCreateNoteIntoForeignFolderRequiresEditGrant(t *testing.T) {
	f := newNoteFixture()
	owner := uuid.New()
	viewer := uuid.New()

	folder := f.addFolder(owner)
	f.grantFolder(folder.Id, viewer, entity.PermissionView)

	_, err := f.service.Create(context.Background(), viewer, &dto.CreateNoteRequest{
		Title:    "Not allowed",
		FolderId: &folder.Id,
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindPermission, apperror.KindOf(err))
	assert.Empty(t, f.store.notes)
}

func TestShowResolvesPermissionPaths(t *testing.T) {
	f := newNoteFixture()
	owner := uuid.New()
	direct := uuid.New()
	viaFolder := uuid.New()
	outsider := uuid.New()

	folder := f.addFolder(owner)
	note := f.addNote(owner, &folder.Id, "Plan")
	f.grantNote(note.Id, direct, entity.PermissionEdit)
	f.grantFolder(folder.Id, viaFolder, entity.PermissionView)

	shown, err := f.service.Show(context.Background(), owner, note.Id)
	require.NoError(t, err)
	assert.Equal(t, "owner", shown.Permission)

	shown, err = f.service.Show(context.Background(), direct, note.Id)
	require.NoError(t, err)
	assert.Equal(t, "edit", shown.Permission)

	shown, err = f.service.Show(context.Background(), viaFolder, note.Id)
	require.NoError(t, err)
	assert.Equal(t, "view", shown.Permission)

	_, err = f.service.Show(context.Background(), outsider, note.Id)
	require.Error(t, err)
	assert.Equal(t, apperror.KindPermission, apperror.KindOf(err))
}

func TestUpdateRequiresEditGrant(t *testing.T) {
	f := newNoteFixture()
	owner := uuid.New()
	viewer := uuid.New()
	editor := uuid.New()

	note := f.addNote(owner, nil, "Plan")
	f.grantNote(note.Id, viewer, entity.PermissionView)
	f.grantNote(note.Id, editor, entity.PermissionEdit)

	_, err := f.service.Update(context.Background(), viewer, &dto.UpdateNoteRequest{
		Id: note.Id, Title: "Changed",
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindPermission, apperror.KindOf(err))

	_, err = f.service.Update(context.Background(), editor, &dto.UpdateNoteRequest{
		Id: note.Id, Title: "Changed", Content: "v2",
	})
	require.NoError(t, err)

	stored := f.store.notes[0]
	assert.Equal(t, "Changed", stored.Title)
	assert.Equal(t, "v2", stored.Content)
	require.NotNil(t, stored.UpdatedAt)
}

func TestMoveIntoSharedFolderMaterializes(t *testing.T) {
	f := newNoteFixture()
	owner := uuid.New()
	collab := uuid.New()

	folder := f.addFolder(owner)
	f.grantFolder(folder.Id, collab, entity.PermissionView)
	note := f.addNote(owner, nil, "Loose")

	res, err := f.service.Move(context.Background(), owner, &dto.MoveNoteRequest{
		Id: note.Id, FolderId: &folder.Id,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warning)

	require.Len(t, f.store.noteGrants, 1)
	assert.Equal(t, collab, f.store.noteGrants[0].UserId)

	stored := f.store.notes[0]
	require.NotNil(t, stored.FolderId)
	assert.Equal(t, folder.Id, *stored.FolderId)
}

func TestMoveByNonOwnerRejected(t *testing.T) {
	f := newNoteFixture()
	owner := uuid.New()
	editor := uuid.New()

	note := f.addNote(owner, nil, "Plan")
	f.grantNote(note.Id, editor, entity.PermissionEdit)

	_, err := f.service.Move(context.Background(), editor, &dto.MoveNoteRequest{Id: note.Id})
	require.Error(t, err)
	assert.Equal(t, apperror.KindPermission, apperror.KindOf(err))
}

func TestDeleteRemovesGrantsAndNotifiesWatchers(t *testing.T) {
	f := newNoteFixture()
	owner := uuid.New()
	watcher := uuid.New()

	note := f.addNote(owner, nil, "Plan")
	f.grantNote(note.Id, watcher, entity.PermissionView)

	err := f.service.Delete(context.Background(), owner, note.Id)
	require.NoError(t, err)

	assert.Empty(t, f.store.notes)
	assert.Empty(t, f.store.noteGrants)
	// The watcher's grant was already gone when the invalidation fired, so
	// the recipients were collected up front.
	require.NotEmpty(t, f.bus.payloads)
}

func TestDeleteByNonOwnerRejected(t *testing.T) {
	f := newNoteFixture()
	owner := uuid.New()
	editor := uuid.New()

	note := f.addNote(owner, nil, "Plan")
	f.grantNote(note.Id, editor, entity.PermissionEdit)

	err := f.service.Delete(context.Background(), editor, note.Id)
	require.Error(t, err)
	assert.Equal(t, apperror.KindPermission, apperror.KindOf(err))
	assert.Len(t, f.store.notes, 1)
}

func TestShowMissingNote(t *testing.T) {
	f := newNoteFixture()

	_, err := f.service.Show(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

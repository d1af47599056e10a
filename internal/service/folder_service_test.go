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

func newFolderService(store *memoryStore, bus *fakeBusPublisher) IFolderService {
	return NewFolderService(newMemFactory(store), bus, nopLogger{})
}

func TestCreateAndUpdateFolder(t *testing.T) {
	store := newMemoryStore()
	svc := newFolderService(store, &fakeBusPublisher{})
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, &dto.CreateFolderRequest{
		Name: "Work", Icon: "briefcase", Color: "blue",
	})
	require.NoError(t, err)
	require.Len(t, store.folders, 1)

	_, err = svc.Update(context.Background(), owner, &dto.UpdateFolderRequest{
		Id: created.Id, Name: "Projects",
	})
	require.NoError(t, err)
	assert.Equal(t, "Projects", store.folders[0].Name)

	// Someone else's update attempt reads as absent, never as forbidden.
	_, err = svc.Update(context.Background(), uuid.New(), &dto.UpdateFolderRequest{
		Id: created.Id, Name: "Hijacked",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, "Projects", store.folders[0].Name)
}

func TestDeleteFolderDetachesNotes(t *testing.T) {
	store := newMemoryStore()
	bus := &fakeBusPublisher{}
	svc := newFolderService(store, bus)
	owner := uuid.New()
	collab := uuid.New()

	folder := &entity.Folder{Id: uuid.New(), Name: "Work", UserId: owner, CreatedAt: time.Now()}
	store.folders = append(store.folders, folder)
	note := &entity.Note{Id: uuid.New(), Title: "Plan", FolderId: &folder.Id, UserId: owner, CreatedAt: time.Now()}
	store.notes = append(store.notes, note)
	store.folderGrants = append(store.folderGrants, &entity.FolderCollaborator{
		Id: uuid.New(), FolderId: folder.Id, UserId: collab, Permission: entity.PermissionView,
	})
	// A materialized per-note grant from an earlier share.
	store.noteGrants = append(store.noteGrants, &entity.NoteCollaborator{
		Id: uuid.New(), NoteId: note.Id, UserId: collab, Permission: entity.PermissionView,
	})

	require.NoError(t, svc.Delete(context.Background(), owner, folder.Id))

	// The folder and its grants are gone; the note survives unfiled, and its
	// materialized grant stays with it.
	assert.Empty(t, store.folders)
	assert.Empty(t, store.folderGrants)
	require.Len(t, store.notes, 1)
	assert.Nil(t, store.notes[0].FolderId)
	assert.Len(t, store.noteGrants, 1)
	assert.NotEmpty(t, bus.payloads)
}

func TestDeleteFolderByNonOwner(t *testing.T) {
	store := newMemoryStore()
	svc := newFolderService(store, &fakeBusPublisher{})
	owner := uuid.New()

	folder := &entity.Folder{Id: uuid.New(), Name: "Work", UserId: owner, CreatedAt: time.Now()}
	store.folders = append(store.folders, folder)

	err := svc.Delete(context.Background(), uuid.New(), folder.Id)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Len(t, store.folders, 1)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"planner-notebook-be/internal/apperror"
	"planner-notebook-be/internal/dto"
	"planner-notebook-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shareFixture struct {
	store   *memoryStore
	feed    *fakeChangeFeed
	bus     *fakeBusPublisher
	service IShareService
}

func newShareFixture() *shareFixture {
	store := newMemoryStore()
	feed := &fakeChangeFeed{}
	bus := &fakeBusPublisher{}
	svc := NewShareService(newMemFactory(store), bus, feed, &fakeMailer{}, nopLogger{})
	return &shareFixture{store: store, feed: feed, bus: bus, service: svc}
}

func (f *shareFixture) addUser(name string) *entity.User {
	user := &entity.User{
		Id:       uuid.New(),
		Email:    name + "@example.com",
		FullName: name,
		Status:   entity.UserStatusActive,
	}
	f.store.users = append(f.store.users, user)
	return user
}

func (f *shareFixture) addFolder(owner uuid.UUID, name string) *entity.Folder {
	folder := &entity.Folder{
		Id:        uuid.New(),
		Name:      name,
		UserId:    owner,
		CreatedAt: time.Now(),
	}
	f.store.folders = append(f.store.folders, folder)
	return folder
}

func (f *shareFixture) addNote(owner uuid.UUID, folderId *uuid.UUID, title string) *entity.Note {
	note := &entity.Note{
		Id:        uuid.New(),
		Title:     title,
		FolderId:  folderId,
		UserId:    owner,
		CreatedAt: time.Now(),
	}
	f.store.notes = append(f.store.notes, note)
	return note
}

func TestShareFolderMaterializesNoteGrants(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	target := f.addUser("target")
	folder := f.addFolder(granter.Id, "Work")
	noteA := f.addNote(granter.Id, &folder.Id, "Plan")
	noteB := f.addNote(granter.Id, &folder.Id, "Notes")
	// The target already owns a note sitting in the shared folder; no grant
	// row may name them on it.
	targetOwned := f.addNote(target.Id, &folder.Id, "Mine")

	res, err := f.service.ShareFolder(context.Background(), granter.Id, &dto.ShareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: target.Id,
		Permission:   "edit",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Materialized)
	assert.Empty(t, res.Warning)

	require.Len(t, f.store.folderGrants, 1)
	assert.Equal(t, entity.PermissionEdit, f.store.folderGrants[0].Permission)
	assert.Equal(t, granter.Id, f.store.folderGrants[0].InvitedBy)

	granted := make(map[uuid.UUID]bool)
	for _, g := range f.store.noteGrants {
		assert.Equal(t, target.Id, g.UserId)
		assert.Equal(t, entity.PermissionEdit, g.Permission)
		granted[g.NoteId] = true
	}
	assert.True(t, granted[noteA.Id])
	assert.True(t, granted[noteB.Id])
	assert.False(t, granted[targetOwned.Id])

	require.Len(t, f.store.notifications, 1)
	assert.Equal(t, target.Id, f.store.notifications[0].UserId)
	assert.NotEmpty(t, f.bus.payloads)
}

func TestShareFolderIsIdempotent(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	target := f.addUser("target")
	folder := f.addFolder(granter.Id, "Work")
	f.addNote(granter.Id, &folder.Id, "Plan")

	req := &dto.ShareFolderRequest{FolderId: folder.Id, TargetUserId: target.Id, Permission: "view"}

	_, err := f.service.ShareFolder(context.Background(), granter.Id, req)
	require.NoError(t, err)

	_, err = f.service.ShareFolder(context.Background(), granter.Id, req)
	require.Error(t, err)
	assert.True(t, apperror.IsDuplicate(err))

	assert.Len(t, f.store.folderGrants, 1)
	assert.Len(t, f.store.noteGrants, 1)
}

func TestShareFolderRejectsSelfShare(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	folder := f.addFolder(granter.Id, "Work")

	_, err := f.service.ShareFolder(context.Background(), granter.Id, &dto.ShareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: granter.Id,
		Permission:   "view",
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestShareFolderRejectsInvalidPermission(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	target := f.addUser("target")
	folder := f.addFolder(granter.Id, "Work")

	_, err := f.service.ShareFolder(context.Background(), granter.Id, &dto.ShareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: target.Id,
		Permission:   "admin",
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestShareFolderRequiresOwnership(t *testing.T) {
	f := newShareFixture()
	owner := f.addUser("owner")
	intruder := f.addUser("intruder")
	target := f.addUser("target")
	folder := f.addFolder(owner.Id, "Work")

	_, err := f.service.ShareFolder(context.Background(), intruder.Id, &dto.ShareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: target.Id,
		Permission:   "view",
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindPermission, apperror.KindOf(err))
	assert.Empty(t, f.store.folderGrants)
}

func TestShareFolderPartialMaterializationWarns(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	target := f.addUser("target")
	folder := f.addFolder(granter.Id, "Work")
	f.addNote(granter.Id, &folder.Id, "Plan")
	poisoned := f.addNote(granter.Id, &folder.Id, "Broken")

	f.store.noteGrantCreateErr = func(grant *entity.NoteCollaborator) error {
		if grant.NoteId == poisoned.Id {
			return errors.New("connection reset")
		}
		return nil
	}

	res, err := f.service.ShareFolder(context.Background(), granter.Id, &dto.ShareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: target.Id,
		Permission:   "view",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Materialized)
	assert.Contains(t, res.Warning, "1 of 2")

	// The folder grant survived the partial failure; retrying the share is
	// how the missing rows get filled in.
	assert.Len(t, f.store.folderGrants, 1)
}

func TestShareFolderRetryFillsMissingGrants(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	target := f.addUser("target")
	folder := f.addFolder(granter.Id, "Work")
	f.addNote(granter.Id, &folder.Id, "Plan")
	poisoned := f.addNote(granter.Id, &folder.Id, "Broken")

	failing := true
	f.store.noteGrantCreateErr = func(grant *entity.NoteCollaborator) error {
		if failing && grant.NoteId == poisoned.Id {
			return errors.New("connection reset")
		}
		return nil
	}

	req := &dto.ShareFolderRequest{FolderId: folder.Id, TargetUserId: target.Id, Permission: "view"}
	res, err := f.service.ShareFolder(context.Background(), granter.Id, req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Warning)

	// The retry reports duplicate (the folder grant exists) but a manual
	// unshare+reshare completes the missing rows.
	failing = false
	require.NoError(t, f.service.UnshareFolder(context.Background(), granter.Id, &dto.UnshareFolderRequest{
		FolderId: folder.Id, TargetUserId: target.Id,
	}))
	res, err = f.service.ShareFolder(context.Background(), granter.Id, req)
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.Len(t, f.store.noteGrants, 2)
}

func TestShareNoteCreatesGrant(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	target := f.addUser("target")
	note := f.addNote(granter.Id, nil, "Standalone")

	res, err := f.service.ShareNote(context.Background(), granter.Id, &dto.ShareNoteRequest{
		NoteId:       note.Id,
		TargetUserId: target.Id,
		Permission:   "view",
	})
	require.NoError(t, err)
	assert.Equal(t, note.Id, res.NoteId)

	require.Len(t, f.store.noteGrants, 1)
	assert.Equal(t, entity.PermissionView, f.store.noteGrants[0].Permission)
	assert.Equal(t, granter.Id, f.store.noteGrants[0].InvitedBy)

	_, err = f.service.ShareNote(context.Background(), granter.Id, &dto.ShareNoteRequest{
		NoteId:       note.Id,
		TargetUserId: target.Id,
		Permission:   "view",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsDuplicate(err))
	assert.Len(t, f.store.noteGrants, 1)
}

func TestShareNoteUnknownTarget(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	note := f.addNote(granter.Id, nil, "Standalone")

	_, err := f.service.ShareNote(context.Background(), granter.Id, &dto.ShareNoteRequest{
		NoteId:       note.Id,
		TargetUserId: uuid.New(),
		Permission:   "view",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUnshareFolderPreservesMaterializedNoteGrants(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	target := f.addUser("target")
	folder := f.addFolder(granter.Id, "Work")
	note := f.addNote(granter.Id, &folder.Id, "Plan")

	_, err := f.service.ShareFolder(context.Background(), granter.Id, &dto.ShareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: target.Id,
		Permission:   "view",
	})
	require.NoError(t, err)
	require.Len(t, f.store.noteGrants, 1)

	err = f.service.UnshareFolder(context.Background(), granter.Id, &dto.UnshareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: target.Id,
	})
	require.NoError(t, err)

	// The folder grant is gone but the materialized per-note row stays: the
	// note keeps surfacing in the target's shared view until unshared
	// note-by-note.
	assert.Empty(t, f.store.folderGrants)
	require.Len(t, f.store.noteGrants, 1)
	assert.Equal(t, note.Id, f.store.noteGrants[0].NoteId)
	assert.Equal(t, target.Id, f.store.noteGrants[0].UserId)
}

func TestUnshareFolderKeepsDirectNoteShare(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	target := f.addUser("target")
	folder := f.addFolder(granter.Id, "Work")
	note := f.addNote(granter.Id, &folder.Id, "Plan")

	// Direct note share first; the later folder share skips the existing
	// grant instead of duplicating or overwriting it.
	_, err := f.service.ShareNote(context.Background(), granter.Id, &dto.ShareNoteRequest{
		NoteId:       note.Id,
		TargetUserId: target.Id,
		Permission:   "edit",
	})
	require.NoError(t, err)

	res, err := f.service.ShareFolder(context.Background(), granter.Id, &dto.ShareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: target.Id,
		Permission:   "view",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Materialized)

	err = f.service.UnshareFolder(context.Background(), granter.Id, &dto.UnshareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: target.Id,
	})
	require.NoError(t, err)

	require.Len(t, f.store.noteGrants, 1)
	assert.Equal(t, entity.PermissionEdit, f.store.noteGrants[0].Permission)
}

func TestUnshareNoteByRecipient(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	target := f.addUser("target")
	note := f.addNote(granter.Id, nil, "Standalone")

	_, err := f.service.ShareNote(context.Background(), granter.Id, &dto.ShareNoteRequest{
		NoteId:       note.Id,
		TargetUserId: target.Id,
		Permission:   "view",
	})
	require.NoError(t, err)

	// The recipient removes themselves.
	err = f.service.UnshareNote(context.Background(), target.Id, &dto.UnshareNoteRequest{
		NoteId:       note.Id,
		TargetUserId: target.Id,
	})
	require.NoError(t, err)
	assert.Empty(t, f.store.noteGrants)
}

func TestUnshareFolderByOutsiderRejected(t *testing.T) {
	f := newShareFixture()
	granter := f.addUser("granter")
	target := f.addUser("target")
	outsider := f.addUser("outsider")
	folder := f.addFolder(granter.Id, "Work")

	_, err := f.service.ShareFolder(context.Background(), granter.Id, &dto.ShareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: target.Id,
		Permission:   "view",
	})
	require.NoError(t, err)

	err = f.service.UnshareFolder(context.Background(), outsider.Id, &dto.UnshareFolderRequest{
		FolderId:     folder.Id,
		TargetUserId: target.Id,
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindPermission, apperror.KindOf(err))
	assert.Len(t, f.store.folderGrants, 1)
}

package service

import (
	"context"
	"sort"
	"strings"

	"planner-notebook-be/internal/apperror"
	"planner-notebook-be/internal/dto"
	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/repository/specification"
	"planner-notebook-be/internal/repository/unitofwork"
	"planner-notebook-be/pkg/lexical"

	"github.com/google/uuid"
)

// Note list filters. Anything else is parsed as a folder id.
const (
	FilterOwnedUnfiled = "owned-unfiled"
	FilterShared       = "shared"
)

const permissionOwner = "owner"

// IViewService composes the merged read view: owned notes, directly shared
// notes, and notes visible through a shared folder, de-duplicated. It is a
// pure read layer; every call reflects the latest committed rows.
type IViewService interface {
	ListFolders(ctx context.Context, userId uuid.UUID) ([]*dto.FolderListItem, error)
	ListNotes(ctx context.Context, userId uuid.UUID, filter string) ([]*dto.NoteListItem, error)
	Search(ctx context.Context, userId uuid.UUID, query string) (*dto.SearchNotesResponse, error)
}

type viewService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewViewService(uowFactory unitofwork.RepositoryFactory) IViewService {
	return &viewService{
		uowFactory: uowFactory,
	}
}

func (s *viewService) ListFolders(ctx context.Context, userId uuid.UUID) ([]*dto.FolderListItem, error) {
	result := make([]*dto.FolderListItem, 0)
	if userId == uuid.Nil {
		// No identity, no view.
		return result, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	owned, err := uow.FolderRepository().FindAll(ctx, specification.OwnedBy{UserID: userId})
	if err != nil {
		return nil, apperror.NewStore("read owned folders", err)
	}
	for _, folder := range owned {
		result = append(result, folderListItem(folder, false))
	}

	grants, err := uow.FolderCollaboratorRepository().FindAll(ctx, specification.CollaboratorUser{UserID: userId})
	if err != nil {
		return nil, apperror.NewStore("read folder grants", err)
	}
	if len(grants) > 0 {
		folderIds := make([]uuid.UUID, 0, len(grants))
		for _, grant := range grants {
			folderIds = append(folderIds, grant.FolderId)
		}
		shared, err := uow.FolderRepository().FindAll(ctx, specification.ByIDs{IDs: folderIds})
		if err != nil {
			return nil, apperror.NewStore("read shared folders", err)
		}
		for _, folder := range shared {
			result = append(result, folderListItem(folder, true))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *viewService) ListNotes(ctx context.Context, userId uuid.UUID, filter string) ([]*dto.NoteListItem, error) {
	if userId == uuid.Nil {
		return make([]*dto.NoteListItem, 0), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	sets, err := s.composeSets(ctx, uow, userId)
	if err != nil {
		return nil, err
	}

	var items []*dto.NoteListItem
	switch filter {
	case FilterOwnedUnfiled, "":
		items = sets.ownedItems()
	case FilterShared:
		items = sets.sharedItems()
	default:
		folderId, err := uuid.Parse(filter)
		if err != nil {
			return nil, apperror.NewValidation("filter must be owned-unfiled, shared, or a folder id")
		}
		items = filterByFolder(sets.allItems(), folderId)
	}

	sortByCreatedDesc(items)
	return items, nil
}

// Search scans the union of all three sets, matching case-insensitively
// against the title and against the content stripped to plain text.
func (s *viewService) Search(ctx context.Context, userId uuid.UUID, query string) (*dto.SearchNotesResponse, error) {
	res := &dto.SearchNotesResponse{Query: query, Notes: make([]*dto.NoteListItem, 0)}
	if userId == uuid.Nil || strings.TrimSpace(query) == "" {
		return res, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	sets, err := s.composeSets(ctx, uow, userId)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	for _, item := range sets.allItems() {
		if strings.Contains(strings.ToLower(item.Title), needle) {
			res.Notes = append(res.Notes, item)
			continue
		}
		plain := lexical.PlainText(item.Content)
		if strings.Contains(strings.ToLower(plain), needle) {
			res.Notes = append(res.Notes, item)
		}
	}

	sortByCreatedDesc(res.Notes)
	return res, nil
}

// noteSets holds the three source partitions of the merged view.
type noteSets struct {
	owned []*entity.Note // owned, minus notes sitting in a shared folder
	// direct and viaFolder can overlap each other and carry grant permissions.
	direct     []*entity.Note
	viaFolder  []*entity.Note
	permission map[uuid.UUID]string
}

func (s *viewService) composeSets(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*noteSets, error) {
	sets := &noteSets{permission: make(map[uuid.UUID]string)}

	ownedAll, err := uow.NoteRepository().FindAll(ctx, specification.OwnedBy{UserID: userId})
	if err != nil {
		return nil, apperror.NewStore("read owned notes", err)
	}

	// A folder with any collaborator pulls its notes out of the owned
	// partition; they surface through the shared partition only.
	folderIds := make([]uuid.UUID, 0)
	seenFolder := make(map[uuid.UUID]bool)
	for _, note := range ownedAll {
		if note.FolderId != nil && !seenFolder[*note.FolderId] {
			seenFolder[*note.FolderId] = true
			folderIds = append(folderIds, *note.FolderId)
		}
	}
	sharedFolders := make(map[uuid.UUID]bool)
	if len(folderIds) > 0 {
		folderGrants, err := uow.FolderCollaboratorRepository().FindAll(ctx, specification.GrantOnFolders{FolderIDs: folderIds})
		if err != nil {
			return nil, apperror.NewStore("read folder grant presence", err)
		}
		for _, grant := range folderGrants {
			sharedFolders[grant.FolderId] = true
		}
	}
	for _, note := range ownedAll {
		if note.FolderId != nil && sharedFolders[*note.FolderId] {
			continue
		}
		sets.owned = append(sets.owned, note)
		sets.permission[note.Id] = permissionOwner
	}

	directGrants, err := uow.NoteCollaboratorRepository().FindAll(ctx, specification.CollaboratorUser{UserID: userId})
	if err != nil {
		return nil, apperror.NewStore("read note grants", err)
	}
	if len(directGrants) > 0 {
		noteIds := make([]uuid.UUID, 0, len(directGrants))
		for _, grant := range directGrants {
			noteIds = append(noteIds, grant.NoteId)
		}
		notes, err := uow.NoteRepository().FindAll(ctx, specification.ByIDs{IDs: noteIds})
		if err != nil {
			return nil, apperror.NewStore("read directly shared notes", err)
		}
		byNote := make(map[uuid.UUID]entity.Permission, len(directGrants))
		for _, grant := range directGrants {
			byNote[grant.NoteId] = grant.Permission
		}
		for _, note := range notes {
			sets.direct = append(sets.direct, note)
			sets.permission[note.Id] = string(byNote[note.Id])
		}
	}

	collabGrants, err := uow.FolderCollaboratorRepository().FindAll(ctx, specification.CollaboratorUser{UserID: userId})
	if err != nil {
		return nil, apperror.NewStore("read collaborating folders", err)
	}
	if len(collabGrants) > 0 {
		collabFolderIds := make([]uuid.UUID, 0, len(collabGrants))
		byFolder := make(map[uuid.UUID]entity.Permission, len(collabGrants))
		for _, grant := range collabGrants {
			collabFolderIds = append(collabFolderIds, grant.FolderId)
			byFolder[grant.FolderId] = grant.Permission
		}
		notes, err := uow.NoteRepository().FindAll(ctx, specification.ByFolderIDs{FolderIDs: collabFolderIds})
		if err != nil {
			return nil, apperror.NewStore("read folder-shared notes", err)
		}
		for _, note := range notes {
			sets.viaFolder = append(sets.viaFolder, note)
			// A direct grant's permission wins over the derived one.
			if _, ok := sets.permission[note.Id]; !ok {
				sets.permission[note.Id] = string(byFolder[*note.FolderId])
			}
		}
	}

	return sets, nil
}

func (n *noteSets) ownedItems() []*dto.NoteListItem {
	items := make([]*dto.NoteListItem, 0, len(n.owned))
	for _, note := range n.owned {
		items = append(items, noteListItem(note, false, n.permission[note.Id]))
	}
	return items
}

func (n *noteSets) sharedItems() []*dto.NoteListItem {
	items := make([]*dto.NoteListItem, 0, len(n.direct)+len(n.viaFolder))
	seen := make(map[uuid.UUID]bool)
	for _, note := range append(append([]*entity.Note{}, n.direct...), n.viaFolder...) {
		if seen[note.Id] {
			continue
		}
		seen[note.Id] = true
		items = append(items, noteListItem(note, true, n.permission[note.Id]))
	}
	return items
}

func (n *noteSets) allItems() []*dto.NoteListItem {
	items := n.ownedItems()
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		seen[item.Id] = true
	}
	for _, item := range n.sharedItems() {
		if seen[item.Id] {
			continue
		}
		seen[item.Id] = true
		items = append(items, item)
	}
	return items
}

func filterByFolder(items []*dto.NoteListItem, folderId uuid.UUID) []*dto.NoteListItem {
	filtered := make([]*dto.NoteListItem, 0)
	for _, item := range items {
		if item.FolderId != nil && *item.FolderId == folderId {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func sortByCreatedDesc(items []*dto.NoteListItem) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func noteListItem(note *entity.Note, isShared bool, permission string) *dto.NoteListItem {
	return &dto.NoteListItem{
		Id:         note.Id,
		Title:      note.Title,
		Content:    note.Content,
		FolderId:   note.FolderId,
		Color:      note.Color,
		OwnerId:    note.UserId,
		IsShared:   isShared,
		Permission: permission,
		CreatedAt:  note.CreatedAt,
		UpdatedAt:  note.UpdatedAt,
	}
}

func folderListItem(folder *entity.Folder, isShared bool) *dto.FolderListItem {
	return &dto.FolderListItem{
		Id:        folder.Id,
		Name:      folder.Name,
		Icon:      folder.Icon,
		Color:     folder.Color,
		OwnerId:   folder.UserId,
		IsShared:  isShared,
		CreatedAt: folder.CreatedAt,
		UpdatedAt: folder.UpdatedAt,
	}
}

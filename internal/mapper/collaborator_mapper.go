package mapper

import (
	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/model"
)

type CollaboratorMapper struct{}

func NewCollaboratorMapper() *CollaboratorMapper {
	return &CollaboratorMapper{}
}

func (m *CollaboratorMapper) FolderToEntity(c *model.FolderCollaborator) *entity.FolderCollaborator {
	if c == nil {
		return nil
	}
	return &entity.FolderCollaborator{
		Id:         c.Id,
		FolderId:   c.FolderId,
		UserId:     c.UserId,
		Permission: entity.Permission(c.Permission),
		InvitedBy:  c.InvitedBy,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *CollaboratorMapper) FolderToModel(c *entity.FolderCollaborator) *model.FolderCollaborator {
	if c == nil {
		return nil
	}
	return &model.FolderCollaborator{
		Id:         c.Id,
		FolderId:   c.FolderId,
		UserId:     c.UserId,
		Permission: string(c.Permission),
		InvitedBy:  c.InvitedBy,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *CollaboratorMapper) FolderToEntities(rows []*model.FolderCollaborator) []*entity.FolderCollaborator {
	entities := make([]*entity.FolderCollaborator, len(rows))
	for i, c := range rows {
		entities[i] = m.FolderToEntity(c)
	}
	return entities
}

func (m *CollaboratorMapper) NoteToEntity(c *model.NoteCollaborator) *entity.NoteCollaborator {
	if c == nil {
		return nil
	}
	return &entity.NoteCollaborator{
		Id:         c.Id,
		NoteId:     c.NoteId,
		UserId:     c.UserId,
		Permission: entity.Permission(c.Permission),
		InvitedBy:  c.InvitedBy,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *CollaboratorMapper) NoteToModel(c *entity.NoteCollaborator) *model.NoteCollaborator {
	if c == nil {
		return nil
	}
	return &model.NoteCollaborator{
		Id:         c.Id,
		NoteId:     c.NoteId,
		UserId:     c.UserId,
		Permission: string(c.Permission),
		InvitedBy:  c.InvitedBy,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *CollaboratorMapper) NoteToEntities(rows []*model.NoteCollaborator) []*entity.NoteCollaborator {
	entities := make([]*entity.NoteCollaborator, len(rows))
	for i, c := range rows {
		entities[i] = m.NoteToEntity(c)
	}
	return entities
}

package implementation

import (
	"context"
	"errors"

	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/mapper"
	"planner-notebook-be/internal/model"
	"planner-notebook-be/internal/repository/contract"
	"planner-notebook-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteCollaboratorRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CollaboratorMapper
}

func NewNoteCollaboratorRepository(db *gorm.DB) contract.NoteCollaboratorRepository {
	return &NoteCollaboratorRepositoryImpl{
		db:     db,
		mapper: mapper.NewCollaboratorMapper(),
	}
}

func (r *NoteCollaboratorRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *NoteCollaboratorRepositoryImpl) Create(ctx context.Context, grant *entity.NoteCollaborator) error {
	m := r.mapper.NoteToModel(grant)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return contract.ErrDuplicateGrant
		}
		return err
	}
	*grant = *r.mapper.NoteToEntity(m)
	return nil
}

func (r *NoteCollaboratorRepositoryImpl) DeleteByPair(ctx context.Context, noteId, userId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("note_id = ? AND user_id = ?", noteId, userId).
		Delete(&model.NoteCollaborator{}).Error
}

func (r *NoteCollaboratorRepositoryImpl) DeleteByNote(ctx context.Context, noteId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("note_id = ?", noteId).
		Delete(&model.NoteCollaborator{}).Error
}

func (r *NoteCollaboratorRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.NoteCollaborator, error) {
	var m model.NoteCollaborator
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.NoteToEntity(&m), nil
}

func (r *NoteCollaboratorRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.NoteCollaborator, error) {
	var models []*model.NoteCollaborator
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.NoteToEntities(models), nil
}

func (r *NoteCollaboratorRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.NoteCollaborator{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

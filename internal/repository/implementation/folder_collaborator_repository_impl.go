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

type FolderCollaboratorRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CollaboratorMapper
}

func NewFolderCollaboratorRepository(db *gorm.DB) contract.FolderCollaboratorRepository {
	return &FolderCollaboratorRepositoryImpl{
		db:     db,
		mapper: mapper.NewCollaboratorMapper(),
	}
}

func (r *FolderCollaboratorRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FolderCollaboratorRepositoryImpl) Create(ctx context.Context, grant *entity.FolderCollaborator) error {
	m := r.mapper.FolderToModel(grant)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return contract.ErrDuplicateGrant
		}
		return err
	}
	*grant = *r.mapper.FolderToEntity(m)
	return nil
}

func (r *FolderCollaboratorRepositoryImpl) DeleteByPair(ctx context.Context, folderId, userId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("folder_id = ? AND user_id = ?", folderId, userId).
		Delete(&model.FolderCollaborator{}).Error
}

func (r *FolderCollaboratorRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FolderCollaborator, error) {
	var m model.FolderCollaborator
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.FolderToEntity(&m), nil
}

func (r *FolderCollaboratorRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FolderCollaborator, error) {
	var models []*model.FolderCollaborator
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.FolderToEntities(models), nil
}

func (r *FolderCollaboratorRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.FolderCollaborator{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

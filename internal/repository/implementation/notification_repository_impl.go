package implementation

import (
	"context"
	"encoding/json"
	"time"

	"planner-notebook-be/internal/entity"
	"planner-notebook-be/internal/model"
	"planner-notebook-be/internal/repository/contract"
	"planner-notebook-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) contract.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, n *entity.Notification) error {
	var meta datatypes.JSON
	if n.Metadata != nil {
		raw, err := json.Marshal(n.Metadata)
		if err != nil {
			return err
		}
		meta = datatypes.JSON(raw)
	}

	m := &model.Notification{
		Id:         n.Id,
		UserId:     n.UserId,
		ActorId:    n.ActorId,
		TypeCode:   n.TypeCode,
		EntityType: n.EntityType,
		EntityId:   n.EntityId,
		Title:      n.Title,
		Message:    n.Message,
		Metadata:   meta,
		IsRead:     n.IsRead,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *NotificationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Notification, error) {
	var models []*model.Notification
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entities := make([]*entity.Notification, len(models))
	for i, m := range models {
		var meta map[string]interface{}
		if len(m.Metadata) > 0 {
			_ = json.Unmarshal(m.Metadata, &meta)
		}
		entities[i] = &entity.Notification{
			Id:         m.Id,
			UserId:     m.UserId,
			ActorId:    m.ActorId,
			TypeCode:   m.TypeCode,
			EntityType: m.EntityType,
			EntityId:   m.EntityId,
			Title:      m.Title,
			Message:    m.Message,
			Metadata:   meta,
			IsRead:     m.IsRead,
			ReadAt:     m.ReadAt,
			CreatedAt:  m.CreatedAt,
		}
	}
	return entities, nil
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id uuid.UUID, userId uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userId).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
}

func (r *NotificationRepositoryImpl) CountUnread(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = false", userId).
		Count(&count).Error
	return count, err
}

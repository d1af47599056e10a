package service

import (
	"context"

	"planner-notebook-be/internal/apperror"
	"planner-notebook-be/internal/dto"
	"planner-notebook-be/internal/repository/specification"
	"planner-notebook-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type INotificationService interface {
	List(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*dto.NotificationItem, error)
	MarkRead(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	UnreadCount(ctx context.Context, userId uuid.UUID) (*dto.UnreadCountResponse, error)
}

type notificationService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewNotificationService(uowFactory unitofwork.RepositoryFactory) INotificationService {
	return &notificationService{
		uowFactory: uowFactory,
	}
}

func (s *notificationService) List(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*dto.NotificationItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	rows, err := uow.NotificationRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.CreatedDesc{},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, apperror.NewStore("read notifications", err)
	}

	items := make([]*dto.NotificationItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, &dto.NotificationItem{
			Id:        row.Id,
			TypeCode:  row.TypeCode,
			Title:     row.Title,
			Message:   row.Message,
			Metadata:  row.Metadata,
			IsRead:    row.IsRead,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NotificationRepository().MarkRead(ctx, id, userId); err != nil {
		return apperror.NewStore("mark notification read", err)
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userId uuid.UUID) (*dto.UnreadCountResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.NotificationRepository().CountUnread(ctx, userId)
	if err != nil {
		return nil, apperror.NewStore("count unread notifications", err)
	}
	return &dto.UnreadCountResponse{Count: count}, nil
}

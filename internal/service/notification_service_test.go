package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"planner-notebook-be/internal/entity"
	"planner-notebook-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addNotification(store *memoryStore, userId uuid.UUID, title string, age time.Duration) *entity.Notification {
	row := &entity.Notification{
		Id:        uuid.New(),
		UserId:    userId,
		TypeCode:  events.TypeFolderShared,
		Title:     title,
		Message:   title,
		CreatedAt: time.Now().Add(-age),
	}
	store.notifications = append(store.notifications, row)
	return row
}

func TestNotificationListNewestFirst(t *testing.T) {
	store := newMemoryStore()
	svc := NewNotificationService(newMemFactory(store))
	user := uuid.New()
	other := uuid.New()

	addNotification(store, user, "oldest", 3*time.Hour)
	addNotification(store, user, "newest", time.Hour)
	addNotification(store, other, "foreign", time.Minute)

	items, err := svc.List(context.Background(), user, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "newest", items[0].Title)
	assert.Equal(t, "oldest", items[1].Title)
}

func TestNotificationListCapsLimit(t *testing.T) {
	store := newMemoryStore()
	svc := NewNotificationService(newMemFactory(store))
	user := uuid.New()

	for i := 0; i < 25; i++ {
		addNotification(store, user, fmt.Sprintf("n%d", i), time.Duration(i)*time.Minute)
	}

	// Out-of-range limits fall back to the default page size.
	items, err := svc.List(context.Background(), user, 500, 0)
	require.NoError(t, err)
	assert.Len(t, items, 20)

	items, err = svc.List(context.Background(), user, 10, 20)
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestNotificationMarkReadAndUnreadCount(t *testing.T) {
	store := newMemoryStore()
	svc := NewNotificationService(newMemFactory(store))
	user := uuid.New()
	other := uuid.New()

	first := addNotification(store, user, "first", time.Hour)
	addNotification(store, user, "second", time.Minute)
	foreign := addNotification(store, other, "foreign", time.Minute)

	count, err := svc.UnreadCount(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Count)

	require.NoError(t, svc.MarkRead(context.Background(), user, first.Id))
	// Marking a row that belongs to someone else changes nothing.
	require.NoError(t, svc.MarkRead(context.Background(), user, foreign.Id))

	count, err = svc.UnreadCount(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Count)

	foreignCount, err := svc.UnreadCount(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, int64(1), foreignCount.Count)
}

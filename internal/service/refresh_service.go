package service

import (
	"context"
	"encoding/json"
	"strings"

	"planner-notebook-be/internal/dto"
	"planner-notebook-be/internal/pkg/logger"
	"planner-notebook-be/internal/websocket"
	pkgnats "planner-notebook-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IRefreshService is the single view-invalidation entry point. Local
// mutations and change-feed deliveries both funnel into the in-process bus;
// this consumer turns each message into a push telling the affected users to
// recompute their merged view. Nothing else triggers a refresh.
type IRefreshService interface {
	Consume(ctx context.Context) error
}

type refreshService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	subscriber *pkgnats.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewRefreshService(
	pubSub *gochannel.GoChannel,
	topicName string,
	subscriber *pkgnats.Subscriber,
	hub *websocket.Hub,
	logger logger.ILogger,
) IRefreshService {
	return &refreshService{
		pubSub:     pubSub,
		topicName:  topicName,
		subscriber: subscriber,
		hub:        hub,
		logger:     logger,
	}
}

func (s *refreshService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(msg)
		}
	}()

	// Change-feed events from other instances re-enter through the same
	// bus so every invalidation takes one path.
	if s.subscriber != nil {
		err := s.subscriber.SubscribeAll("view-refresh", func(ctx context.Context, targetUserId uuid.UUID, eventType string, payload map[string]interface{}) error {
			if s.hub != nil {
				s.hub.PushNotification(targetUserId, map[string]interface{}{
					"event":   eventType,
					"payload": payload,
				})
			}
			invalidate := dto.InvalidateViewMessage{
				UserIds: []uuid.UUID{targetUserId},
				Reason:  strings.ToLower(eventType),
			}
			data, _ := json.Marshal(invalidate)
			return s.pubSub.Publish(s.topicName, message.NewMessage(watermill.NewUUID(), data))
		})
		if err != nil {
			s.logger.Warn("refresh", "Change-feed subscription unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return nil
}

func (s *refreshService) processMessage(msg *message.Message) {
	var payload dto.InvalidateViewMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("refresh", "Failed to unmarshal invalidation message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed messages would retry forever
		return
	}

	seen := make(map[uuid.UUID]bool, len(payload.UserIds))
	for _, userId := range payload.UserIds {
		if seen[userId] || userId == uuid.Nil {
			continue
		}
		seen[userId] = true
		if s.hub != nil {
			s.hub.PushInvalidate(userId, payload.Reason)
		}
	}

	msg.Ack()
}

package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ChangeHandler processes one change-feed event addressed to a user.
type ChangeHandler func(ctx context.Context, targetUserId uuid.UUID, eventType string, payload map[string]interface{}) error

// Subscriber listens for collaborator-change events from NATS.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Subscriber{nc: nc, js: js}, nil
}

// SubscribeUser consumes the feed filtered server-side to one user's rows
// (subject collab.note.<user_id>.>). Used by the realtime invalidation path.
func (s *Subscriber) SubscribeUser(userId uuid.UUID, durableName string, handler ChangeHandler) error {
	return s.subscribe(fmt.Sprintf("collab.note.%s.>", userId), durableName, handler)
}

// SubscribeAll consumes the whole feed. Used by a single-process deployment
// where one consumer fans out to connected users.
func (s *Subscriber) SubscribeAll(durableName string, handler ChangeHandler) error {
	return s.subscribe("collab.note.>", durableName, handler)
}

func (s *Subscriber) subscribe(subject string, durableName string, handler ChangeHandler) error {
	ctx := context.Background()

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	_, err = consumer.Consume(func(msg jetstream.Msg) {
		userId, eventType, ok := parseSubject(msg.Subject())
		if !ok {
			log.Printf("Error: unexpected change-feed subject %q", msg.Subject())
			msg.Ack() // unparseable subjects would retry forever
			return
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Data(), &payload); err != nil {
			log.Printf("Error unmarshalling change event data: %v", err)
			msg.Ack()
			return
		}

		if err := handler(context.Background(), userId, eventType, payload); err != nil {
			log.Printf("Error handling change event: %v", err)
			msg.Nak()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	return nil
}

// parseSubject splits collab.note.<user_id>.<event_type>.
func parseSubject(subject string) (uuid.UUID, string, bool) {
	parts := strings.Split(subject, ".")
	if len(parts) != 4 || parts[0] != "collab" || parts[1] != "note" {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, parts[3], true
}

func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}

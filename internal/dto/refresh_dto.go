package dto

import (
	"github.com/google/uuid"
)

// InvalidateViewMessage is published on the in-process bus after every
// completed mutation, and re-published by the change-feed subscriber. The
// refresh service is the only consumer.
type InvalidateViewMessage struct {
	UserIds []uuid.UUID `json:"user_ids"`
	Reason  string      `json:"reason"`
}

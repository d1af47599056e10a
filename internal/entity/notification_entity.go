package entity

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	ActorId    *uuid.UUID
	TypeCode   string
	EntityType string
	EntityId   *uuid.UUID
	Title      string
	Message    string
	Metadata   map[string]interface{}
	IsRead     bool
	ReadAt     *time.Time
	CreatedAt  time.Time
}

package events

import "time"

// Event codes used across the sharing engine.
const (
	TypeFolderShared   = "FOLDER_SHARED"
	TypeFolderUnshared = "FOLDER_UNSHARED"
	TypeNoteShared     = "NOTE_SHARED"
	TypeNoteUnshared   = "NOTE_UNSHARED"
	TypeNoteCreated    = "NOTE_CREATED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTE_SHARED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation services publish.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

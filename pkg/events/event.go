package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_INDEXED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the generic implementation used by publishers and by the
// subscriber when reconstructing events off the wire.
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

const DocumentIndexedType = "document.indexed"

// NewDocumentIndexed announces that a source document finished (re)indexing.
func NewDocumentIndexed(sourceURL string, chunks int) Event {
	return BaseEvent{
		Type: DocumentIndexedType,
		Data: map[string]interface{}{
			"source_url": sourceURL,
			"chunks":     chunks,
		},
		OccurredAt: time.Now(),
	}
}

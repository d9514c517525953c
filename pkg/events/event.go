package events

import "time"

// Event is the contract every bus event satisfies.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TURN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

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

// NewTurnCompleted records one finished conversation turn against a
// search session: what kind of refinement ran and how far the space
// narrowed.
func NewTurnCompleted(sessionID, refineType string, spaceSize int) Event {
	return BaseEvent{
		Type: "TURN_COMPLETED",
		Data: map[string]interface{}{
			"session_id":  sessionID,
			"refine_type": refineType,
			"space_size":  spaceSize,
		},
		OccurredAt: time.Now(),
	}
}

// NewSessionReset records a rollback of the search space to its previous
// snapshot.
func NewSessionReset(sessionID string, spaceSize int) Event {
	return BaseEvent{
		Type: "SESSION_RESET",
		Data: map[string]interface{}{
			"session_id": sessionID,
			"space_size": spaceSize,
		},
		OccurredAt: time.Now(),
	}
}

// NewDatasetIndexed records that a corpus entry got fresh embeddings.
func NewDatasetIndexed(datasetName string) Event {
	return BaseEvent{
		Type: "DATASET_INDEXED",
		Data: map[string]interface{}{
			"dataset_name": datasetName,
		},
		OccurredAt: time.Now(),
	}
}

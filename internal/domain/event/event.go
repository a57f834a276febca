package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by emitters and handlers
const (
	KeyPreviousStatus = "previous_status"
	KeyNewStatus      = "new_status"
	KeyFeedback       = "feedback"
	KeySignatureID    = "signature_id"
	KeyTitle          = "title"
	KeyProfessorID    = "professor_id"
	KeyAllocated      = "bolsas_disponibilizadas"
)

// Event represents a domain event emitted after a lifecycle transaction commits
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	ProjectID     int64                  `json:"project_id"`
	ActorID       int64                  `json:"actor_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event stamped with at
func NewEvent(eventType Type, projectID, actorID int64, payload map[string]interface{}, at time.Time) *Event {
	return NewEventWithCorrelation(eventType, projectID, actorID, payload, at, uuid.NewString())
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, projectID, actorID int64, payload map[string]interface{}, at time.Time, correlationID string) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		ProjectID:     projectID,
		ActorID:       actorID,
		Payload:       payload,
		Timestamp:     at,
		CorrelationID: correlationID,
	}
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

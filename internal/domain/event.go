package domain

import "time"

// Event is one observed occurrence as it travels on the wire between the
// tracker and the ingestion endpoint.
type Event struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
	UserID     string         `json:"userId,omitempty"`
	SessionID  string         `json:"sessionId"`
	Timestamp  int64          `json:"timestamp"`
}

// Normalize replaces nil properties with an empty map.
func (e *Event) Normalize() {
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
}

// Batch is the body accepted by the ingestion endpoint.
type Batch struct {
	Events []Event `json:"events"`
}

// EventBatch is a Batch after it was accepted by the server.
type EventBatch struct {
	ID         string    `json:"id"`
	IP         string    `json:"ip"`
	ReceivedAt time.Time `json:"received_at"`
	Events     []Event   `json:"events"`
}

func (b *EventBatch) EnrichWith(id, clientIP string, receivedAt time.Time) {
	b.ID = id
	b.IP = clientIP
	b.ReceivedAt = receivedAt
}

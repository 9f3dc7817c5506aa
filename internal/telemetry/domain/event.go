package domain

import "time"

// Event is a session lifecycle event (login, refresh, invalidation, logout)
// as serialized onto the telemetry topic and into OTel log records.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	EventType string    `json:"eventType"`
	Source    string    `json:"source"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

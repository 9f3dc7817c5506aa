package domain

import "time"

// AuditLog is a persisted session lifecycle event.
type AuditLog struct {
	ID        string
	UserID    string
	EventType string
	Source    string
	Metadata  string
	CreatedAt time.Time
}

// Package audit persists session lifecycle events as an audit trail.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"eventfair/backend/internal/audit/domain"
	auditrepo "eventfair/backend/internal/audit/repository"
)

// Source is recorded on every entry written by this process.
const Source = "session-service"

// Logger writes session lifecycle events to the audit repository.
// RecordSessionEvent is best-effort: failures are logged and do not affect the caller.
type Logger struct {
	repo auditrepo.Repository
	now  func() time.Time
}

// NewLogger returns a Logger that persists to repo.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo, now: time.Now}
}

// RecordSessionEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) RecordSessionEvent(ctx context.Context, userID, eventType, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventType: eventType,
		Source:    Source,
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s: %v", eventType, err)
	}
}

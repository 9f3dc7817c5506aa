package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eventfair/backend/internal/audit/domain"
)

// fakeRepository implements repository.Repository in memory.
type fakeRepository struct {
	mu        sync.Mutex
	entries   []*domain.AuditLog
	createErr error
}

func (f *fakeRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, a)
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.entries {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.AuditLog
	for _, a := range f.entries {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestRecordSessionEvent_PersistsEntry(t *testing.T) {
	repo := &fakeRepository{}
	logger := NewLogger(repo)
	logger.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	logger.RecordSessionEvent(context.Background(), "user-1", "session.login", "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.ID == "" {
		t.Error("entry ID should be assigned")
	}
	if entry.UserID != "user-1" || entry.EventType != "session.login" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.Source != Source {
		t.Errorf("source = %q, want %q", entry.Source, Source)
	}
	if !entry.CreatedAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v", entry.CreatedAt)
	}
}

func TestRecordSessionEvent_RepositoryFailureIsSwallowed(t *testing.T) {
	repo := &fakeRepository{createErr: errors.New("db down")}
	logger := NewLogger(repo)

	// Must not panic or propagate.
	logger.RecordSessionEvent(context.Background(), "user-1", "session.refresh_failed", "timeout")
}

func TestRecordSessionEvent_NilRepoIsNoop(t *testing.T) {
	logger := NewLogger(nil)
	logger.RecordSessionEvent(context.Background(), "user-1", "session.login", "")
}

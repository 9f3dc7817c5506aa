package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"eventfair/backend/internal/telemetry/domain"
)

// Recorder fans session lifecycle events out to the configured emitters
// (Kafka producer, OTel logs). Emission is async and best-effort; it never
// blocks or fails the session path.
type Recorder struct {
	emitters []EventEmitter
	source   string
	now      func() time.Time
}

// NewRecorder returns a Recorder emitting to the given emitters. Nil emitters
// are skipped, so optional sinks can be passed unconditionally.
func NewRecorder(source string, emitters ...EventEmitter) *Recorder {
	kept := make([]EventEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			kept = append(kept, e)
		}
	}
	return &Recorder{emitters: kept, source: source, now: time.Now}
}

// RecordSessionEvent builds the event and hands it to every emitter asynchronously.
func (r *Recorder) RecordSessionEvent(ctx context.Context, userID, eventType, metadata string) {
	if r == nil || len(r.emitters) == 0 {
		return
	}
	event := &domain.Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventType: eventType,
		Source:    r.source,
		Metadata:  metadata,
		CreatedAt: r.now().UTC(),
	}
	for _, e := range r.emitters {
		EmitAsync(e, ctx, event)
	}
}

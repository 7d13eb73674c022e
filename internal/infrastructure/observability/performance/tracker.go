package performance

import (
	"sync"
	"time"

	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
)

const maxRetainedMarkers = 512

// Tracker issues markers and retains a bounded history of completed operations.
type Tracker struct {
	mu      sync.Mutex
	markers []*Marker
	logger  *logging.ChanneledLogger

	// SlowThreshold flags operations that took longer than expected.
	SlowThreshold time.Duration
}

// NewTracker creates a performance tracker.
func NewTracker(logger *logging.ChanneledLogger) *Tracker {
	return &Tracker{
		markers:       make([]*Marker, 0, maxRetainedMarkers),
		logger:        logger,
		SlowThreshold: 2 * time.Second,
	}
}

// StartOperation begins tracking a named operation for a subject.
func (t *Tracker) StartOperation(operation, subjectID string) *Marker {
	return &Marker{
		Operation: operation,
		SubjectID: subjectID,
		StartTime: time.Now(),
		tracker:   t,
	}
}

func (t *Tracker) record(m *Marker) {
	t.mu.Lock()
	t.markers = append(t.markers, m)
	if len(t.markers) > maxRetainedMarkers {
		t.markers = t.markers[len(t.markers)-maxRetainedMarkers:]
	}
	t.mu.Unlock()

	if t.logger != nil && t.SlowThreshold > 0 && m.Duration > t.SlowThreshold {
		t.logger.Alert().Warn("Slow operation",
			"operation", m.Operation,
			"subjectId", m.SubjectID,
			"duration", m.Duration,
		)
	}
}

// Recent returns a copy of the most recent completed markers, newest last.
func (t *Tracker) Recent(limit int) []*Marker {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > len(t.markers) {
		limit = len(t.markers)
	}
	out := make([]*Marker, limit)
	copy(out, t.markers[len(t.markers)-limit:])
	return out
}

// Package audit keeps a bounded, in-memory history of processed submissions.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"scouthub/internal/domain"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 1000

// Log is a fixed-size ring of audit entries. Once full, the oldest entry is
// evicted on each append. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	next    int
	full    bool
	now     func() time.Time
}

// New creates a log holding at most capacity entries.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{entries: make([]domain.AuditEntry, capacity), now: time.Now}
}

// Append stores e, filling in ID and ReceivedAt when they are zero.
func (l *Log) Append(e domain.AuditEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = l.now().UTC()
	}
	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// List returns the retained entries oldest first.
func (l *Log) List() []domain.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		return append([]domain.AuditEntry{}, l.entries[:l.next]...)
	}
	out := make([]domain.AuditEntry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	return append(out, l.entries[:l.next]...)
}

// Len reports how many entries are retained.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}

// Capacity returns the maximum number of retained entries.
func (l *Log) Capacity() int { return len(l.entries) }

var _ domain.AuditLog = (*Log)(nil)

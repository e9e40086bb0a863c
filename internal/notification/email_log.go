package notification

import (
	"sync"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// EmailLog is a bounded, process-lifetime record of send attempts.
type EmailLog struct {
	mu      sync.Mutex
	records []domain.EmailRecord
	next    int
	full    bool
}

// NewEmailLog keeps at most capacity records, dropping the oldest.
func NewEmailLog(capacity int) *EmailLog {
	if capacity <= 0 {
		capacity = 500
	}
	return &EmailLog{records: make([]domain.EmailRecord, capacity)}
}

// Append stores a record.
func (l *EmailLog) Append(rec domain.EmailRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[l.next] = rec
	l.next = (l.next + 1) % len(l.records)
	if l.next == 0 {
		l.full = true
	}
}

// Records returns a copy, oldest first.
func (l *EmailLog) Records() []domain.EmailRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		return append([]domain.EmailRecord(nil), l.records[:l.next]...)
	}
	out := make([]domain.EmailRecord, 0, len(l.records))
	out = append(out, l.records[l.next:]...)
	return append(out, l.records[:l.next]...)
}

// Len reports how many records are held.
func (l *EmailLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.records)
	}
	return l.next
}

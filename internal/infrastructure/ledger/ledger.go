// Package ledger implements the in-memory daily engagement ledger: an
// append-only, process-scoped store of user selection events with windowed
// queries over the subject's local calendar day. The durable store owns the
// authoritative copy; the ledger exists so day-window policy checks and
// aggregations never touch the database on the read path.
package ledger

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Record is the contract a ledger entry must satisfy. Identifiers are unique
// and monotonically assigned by the durable store; CreatedAt carries the
// timezone-adjusted creation timestamp.
type Record interface {
	ID() int64
	Subject() int
	Target() int
	Category() int
	CreatedAt() time.Time
}

// Ledger is an append-only store of records indexed by identifier and
// queryable by (subject, local day). Records are never mutated or removed in
// normal operation; Reset exists only for process-restart style reloads.
// All methods are safe for concurrent use.
type Ledger[R Record] struct {
	mu      sync.RWMutex
	byID    map[int64]struct{}
	records []R

	clock  clockwork.Clock
	logger *zap.Logger
}

// New creates an empty ledger. The clock resolves "today" at query time;
// tests inject a fake clock to pin the day boundary.
func New[R Record](clock clockwork.Clock, logger *zap.Logger) *Ledger[R] {
	return &Ledger[R]{
		byID:   make(map[int64]struct{}),
		clock:  clock,
		logger: logger,
	}
}

// TryAdd inserts record unless a record with the same identifier already
// exists. The duplicate insert is a no-op returning false, which guards
// against double delivery from the write path. The record is visible to all
// readers as soon as TryAdd returns.
func (l *Ledger[R]) TryAdd(record R) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byID[record.ID()]; exists {
		l.logger.Debug("ledger duplicate insert ignored", zap.Int64("id", record.ID()))

		return false
	}

	l.byID[record.ID()] = struct{}{}
	l.records = append(l.records, record)

	return true
}

// ForSubjectToday returns, in insertion order, the subject's records whose
// creation timestamp falls on today's local calendar date under loc. "Today"
// is resolved at the moment of the call.
func (l *Ledger[R]) ForSubjectToday(subjectID int, loc *time.Location) []R {
	now := l.clock.Now()

	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []R

	for _, record := range l.records {
		if record.Subject() == subjectID && sameLocalDay(record.CreatedAt(), now, loc) {
			matched = append(matched, record)
		}
	}

	return matched
}

// AllToday returns every record created on today's local calendar date under
// loc, in insertion order. Used for global aggregation.
func (l *Ledger[R]) AllToday(loc *time.Location) []R {
	now := l.clock.Now()

	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []R

	for _, record := range l.records {
		if sameLocalDay(record.CreatedAt(), now, loc) {
			matched = append(matched, record)
		}
	}

	return matched
}

// Len reports the number of records held.
func (l *Ledger[R]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.records)
}

// Reset drops every record. Called when rebuilding from the durable store,
// which is the source of truth across restarts.
func (l *Ledger[R]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.byID = make(map[int64]struct{})
	l.records = nil
	l.logger.Info("ledger reset")
}

// sameLocalDay reports whether a and b share a calendar date after
// conversion to loc.
func sameLocalDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()

	return ay == by && am == bm && ad == bd
}

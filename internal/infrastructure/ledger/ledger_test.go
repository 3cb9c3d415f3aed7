// Package ledger contains unit tests for the daily engagement ledger.
package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testRecord is a minimal Record implementation for ledger tests.
type testRecord struct {
	id        int64
	subject   int
	target    int
	category  int
	createdAt time.Time
}

func (r testRecord) ID() int64            { return r.id }
func (r testRecord) Subject() int         { return r.subject }
func (r testRecord) Target() int          { return r.target }
func (r testRecord) Category() int        { return r.category }
func (r testRecord) CreatedAt() time.Time { return r.createdAt }

func newTestLedger(now time.Time) (*Ledger[testRecord], *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(now)

	return New[testRecord](clock, zap.NewNop()), clock
}

func TestTryAdd(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("inserts a new record", func(t *testing.T) {
		l, _ := newTestLedger(now)

		added := l.TryAdd(testRecord{id: 1, subject: 7, createdAt: now})

		assert.True(t, added)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("rejects a duplicate identifier", func(t *testing.T) {
		l, _ := newTestLedger(now)

		require.True(t, l.TryAdd(testRecord{id: 1, subject: 7, createdAt: now}))

		added := l.TryAdd(testRecord{id: 1, subject: 8, createdAt: now})

		assert.False(t, added)
		assert.Equal(t, 1, l.Len())
	})
}

func TestForSubjectToday(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("filters by subject and local day", func(t *testing.T) {
		l, _ := newTestLedger(now)

		l.TryAdd(testRecord{id: 1, subject: 7, target: 10, createdAt: now})
		l.TryAdd(testRecord{id: 2, subject: 7, target: 20, createdAt: now.Add(-25 * time.Hour)})
		l.TryAdd(testRecord{id: 3, subject: 8, target: 10, createdAt: now})

		records := l.ForSubjectToday(7, time.UTC)

		require.Len(t, records, 1)
		assert.Equal(t, int64(1), records[0].ID())
	})

	t.Run("returns records in insertion order", func(t *testing.T) {
		l, _ := newTestLedger(now)

		l.TryAdd(testRecord{id: 3, subject: 7, createdAt: now})
		l.TryAdd(testRecord{id: 1, subject: 7, createdAt: now})
		l.TryAdd(testRecord{id: 2, subject: 7, createdAt: now})

		records := l.ForSubjectToday(7, time.UTC)

		require.Len(t, records, 3)
		assert.Equal(t, int64(3), records[0].ID())
		assert.Equal(t, int64(1), records[1].ID())
		assert.Equal(t, int64(2), records[2].ID())
	})

	t.Run("day boundary is the local calendar date", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)

		// 23:59 local on March 9th
		beforeMidnight := time.Date(2024, 3, 9, 23, 59, 0, 0, loc)
		l, clock := newTestLedger(beforeMidnight.UTC())

		l.TryAdd(testRecord{id: 1, subject: 7, createdAt: beforeMidnight})

		assert.Len(t, l.ForSubjectToday(7, loc), 1)

		// two minutes later the local date has rolled over
		clock.Advance(2 * time.Minute)

		assert.Empty(t, l.ForSubjectToday(7, loc))
	})

	t.Run("same instant falls on different dates in different timezones", func(t *testing.T) {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)

		// 23:00 UTC on March 9th is already March 10th in Tokyo
		instant := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
		l, _ := newTestLedger(instant)

		l.TryAdd(testRecord{id: 1, subject: 7, createdAt: instant})

		assert.Len(t, l.ForSubjectToday(7, time.UTC), 1)
		assert.Len(t, l.ForSubjectToday(7, tokyo), 1)

		// a record from 22:00 UTC March 8th is March 9th in Tokyo: neither window matches
		l.TryAdd(testRecord{id: 2, subject: 7, createdAt: instant.Add(-25 * time.Hour)})

		assert.Len(t, l.ForSubjectToday(7, time.UTC), 1)
		assert.Len(t, l.ForSubjectToday(7, tokyo), 1)
	})
}

func TestAllToday(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	l, _ := newTestLedger(now)

	l.TryAdd(testRecord{id: 1, subject: 7, createdAt: now})
	l.TryAdd(testRecord{id: 2, subject: 8, createdAt: now})
	l.TryAdd(testRecord{id: 3, subject: 9, createdAt: now.Add(-24 * time.Hour)})

	records := l.AllToday(time.UTC)

	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].ID())
	assert.Equal(t, int64(2), records[1].ID())
}

func TestReset(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	l, _ := newTestLedger(now)

	l.TryAdd(testRecord{id: 1, subject: 7, createdAt: now})
	l.Reset()

	assert.Equal(t, 0, l.Len())
	assert.True(t, l.TryAdd(testRecord{id: 1, subject: 7, createdAt: now}))
}

func TestConcurrentTryAdd(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	l, _ := newTestLedger(now)

	var wg sync.WaitGroup

	// 20 goroutines race on 100 shared identifiers; each id must win exactly once
	for g := 0; g < 20; g++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for id := int64(1); id <= 100; id++ {
				l.TryAdd(testRecord{id: id, subject: int(id % 5), createdAt: now})
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 100, l.Len())
}

func TestCountsByCategory(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	records := []testRecord{
		{id: 1, subject: 1, target: 10, category: 1, createdAt: now},
		{id: 2, subject: 2, target: 20, category: 2, createdAt: now},
		{id: 3, subject: 3, target: 10, category: 1, createdAt: now},
		{id: 4, subject: 4, target: 30, category: 1, createdAt: now},
	}

	counts := CountsByCategory(records, 10)

	require.Len(t, counts, 2)

	// groups surface in first-occurrence order
	assert.Equal(t, CategoryCount{Category: 1, TargetCount: 2, GlobalCount: 3}, counts[0])
	assert.Equal(t, CategoryCount{Category: 2, TargetCount: 0, GlobalCount: 1}, counts[1])
}

func TestCountsByCategoryEmpty(t *testing.T) {
	assert.Empty(t, CountsByCategory([]testRecord{}, 10))
}

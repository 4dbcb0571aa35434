package patientid

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/patient-registry/pkg/metrics"
)

type atomicSequence struct {
	value int64
}

func (s *atomicSequence) Next(_ context.Context, _ string) (int64, error) {
	return atomic.AddInt64(&s.value, 1), nil
}

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(2000+year, 6, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestFormat(t *testing.T) {
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "PT25000001", Format(at, 1))
	assert.Equal(t, "PT25000042", Format(at, 42))
	assert.Equal(t, "PT25999999", Format(at, 999999))
}

func TestFormatWidensPastSixDigits(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "PT261000000", Format(at, 1000000))
}

func TestNextStartsAtOne(t *testing.T) {
	a := NewAllocator(&atomicSequence{}, metrics.NewTestMetrics()).WithClock(fixedClock(25))

	id, err := a.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PT25000001", id)

	id, err = a.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PT25000002", id)
}

func TestNextSequenceSurvivesYearBoundary(t *testing.T) {
	seq := &atomicSequence{}
	a := NewAllocator(seq, metrics.NewTestMetrics()).WithClock(fixedClock(25))

	id, err := a.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PT25000001", id)

	// The counter carries over into the next year; only the year digits
	// change.
	a.WithClock(fixedClock(26))
	id, err = a.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PT26000002", id)
}

func TestNextConcurrentAllocationsAreUnique(t *testing.T) {
	const n = 200

	a := NewAllocator(&atomicSequence{}, metrics.NewTestMetrics()).WithClock(fixedClock(25))

	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.Next(context.Background())
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate identifier %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

package patientid

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/pkg/metrics"
)

const (
	prefix       = "PT"
	sequenceName = "patient_id"
)

// Allocator produces human-readable patient identifiers: a fixed prefix,
// the two-digit allocation year, and a zero-padded sequence value, e.g.
// PT25000001. The sequence is global and monotonic; it does not reset at
// a year boundary, so the year component only records when the identifier
// was issued.
//
// Uniqueness under concurrent creates rests entirely on the sequence
// backend's atomic increment; the allocator never reads back the last
// issued identifier.
type Allocator struct {
	seq     repository.SequenceRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAllocator(seq repository.SequenceRepository, m *metrics.Metrics) *Allocator {
	return &Allocator{
		seq:     seq,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock overrides the allocator's clock. Test hook.
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

func (a *Allocator) Next(ctx context.Context) (string, error) {
	value, err := a.seq.Next(ctx, sequenceName)
	if err != nil {
		return "", fmt.Errorf("failed to allocate patient id: %w", err)
	}
	a.metrics.PatientIDsAllocated.Inc()
	return Format(a.now(), value), nil
}

// RecordCollision counts an identifier that was allocated but lost to a
// uniqueness conflict on insert, forcing a retry.
func (a *Allocator) RecordCollision() {
	a.metrics.PatientIDRetries.Inc()
}

// Format renders an identifier for the given allocation time and sequence
// value. Values beyond six digits widen the identifier rather than wrap.
func Format(t time.Time, value int64) string {
	return fmt.Sprintf("%s%02d%06d", prefix, t.Year()%100, value)
}

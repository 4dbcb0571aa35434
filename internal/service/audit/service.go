package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/internal/repository"
	"github.com/clinicore/patient-registry/pkg/metrics"
)

// Recorder appends compliance events. Callers invoke it after their
// primary effect is durable, so an entry never references a state that
// was not reached.
type Recorder interface {
	Record(ctx context.Context, userID, patientID uuid.UUID, action model.AuditAction, origin model.RequestOrigin) error
}

type Service struct {
	repo    repository.AuditRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo repository.AuditRepository, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		metrics: m,
		now:     time.Now,
	}
}

// Record durably appends one audit entry with a server-assigned timestamp.
// A failed write is never swallowed: the lost-event counter fires and the
// error is returned so the caller can raise the operator alarm. The caller
// must not fail its already-committed operation because of it.
func (s *Service) Record(ctx context.Context, userID, patientID uuid.UUID, action model.AuditAction, origin model.RequestOrigin) error {
	entry := &model.AuditLog{
		ID:        uuid.New(),
		UserID:    userID,
		PatientID: patientID,
		Action:    action,
		IPAddress: origin.IPAddress,
		UserAgent: origin.UserAgent,
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.metrics.AuditEventsLost.WithLabelValues(string(action)).Inc()
		return fmt.Errorf("audit write failed for action %s: %w", action, err)
	}

	s.metrics.AuditEventsWritten.WithLabelValues(string(action)).Inc()
	return nil
}

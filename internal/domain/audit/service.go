package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vettrack/vettrack/pkg/fault"
)

// Service writes and reads audit records. Writes are best-effort from the
// caller's point of view: a failed audit insert must not roll back the
// mutation it describes, so callers log the error and carry on.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record inserts one audit row. A nil diff means the mutation changed
// nothing observable and no row is written.
func (s *Service) Record(ctx context.Context, actor Actor, entityType string, entityID uuid.UUID, action string, diff []byte) error {
	if diff == nil {
		return nil
	}
	l := &Log{
		ID:           uuid.New(),
		ActorUserID:  actor.UserID,
		ActorDisplay: actor.Display,
		EntityType:   entityType,
		EntityID:     entityID,
		Action:       action,
		Diff:         diff,
		OriginIP:     actor.IP,
		OccurredAt:   time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, l); err != nil {
		return fault.AuditWrite(err)
	}
	return nil
}

// MustRecord is Record with the degraded-success policy applied: failures
// are logged at warn level and swallowed. diffErr carries the diff builder's
// error so a row that could not even be built still leaves a warning.
func (s *Service) MustRecord(ctx context.Context, actor Actor, entityType string, entityID uuid.UUID, action string, diff []byte, diffErr error) {
	if diffErr != nil {
		s.logger.Warn().
			Err(diffErr).
			Str("entity_type", entityType).
			Str("entity_id", entityID.String()).
			Str("action", action).
			Msg("audit diff not built")
		return
	}
	if err := s.Record(ctx, actor, entityType, entityID, action, diff); err != nil {
		s.logger.Warn().
			Err(err).
			Str("entity_type", entityType).
			Str("entity_id", entityID.String()).
			Str("action", action).
			Msg("audit record not written")
	}
}

func (s *Service) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*Log, int, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID, limit, offset)
}

func (s *Service) ListForActor(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Log, int, error) {
	return s.repo.ListByActor(ctx, userID, limit, offset)
}

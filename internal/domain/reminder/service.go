package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/internal/domain/patient"
	"github.com/vettrack/vettrack/internal/platform/notification"
	"github.com/vettrack/vettrack/pkg/fault"
)

type Service struct {
	repo     Repository
	patients patient.Repository
	audit    *audit.Service
	notifier notification.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, patients patient.Repository, auditSvc *audit.Service, notifier notification.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		audit:    auditSvc,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateReminder(ctx context.Context, actor audit.Actor, r *Reminder) error {
	if r.Status == "" {
		r.Status = StatusPending
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if _, err := s.patients.GetByID(ctx, r.PatientID); err != nil {
		return err
	}
	r.CreatedBy = actor.UserID
	if err := s.repo.Create(ctx, r); err != nil {
		return fault.Storage("creating reminder", err)
	}
	diff, diffErr := audit.Created(r)
	s.audit.MustRecord(ctx, actor, audit.EntityReminder, r.ID, audit.ActionCreate, diff, diffErr)
	s.notify(ctx, r, "scheduled")
	return nil
}

func (s *Service) GetReminder(ctx context.Context, id uuid.UUID) (*Reminder, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateInput applies as a merge patch: nil fields stay untouched, empty
// strings clear optional fields. Status transitions go through MarkDone
// and Dismiss, not here.
type UpdateInput struct {
	Title *string    `json:"title"`
	Note  *string    `json:"note"`
	DueAt *time.Time `json:"due_at"`
}

func (s *Service) UpdateReminder(ctx context.Context, actor audit.Actor, id uuid.UUID, in UpdateInput) (*Reminder, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *r

	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.Note != nil {
		r.Note = optional(*in.Note)
	}
	if in.DueAt != nil {
		r.DueAt = *in.DueAt
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fault.Storage("updating reminder", err)
	}
	diff, diffErr := audit.Changed(audit.ActionUpdate, before, r)
	s.audit.MustRecord(ctx, actor, audit.EntityReminder, r.ID, audit.ActionUpdate, diff, diffErr)
	return r, nil
}

// MarkDone completes a pending reminder. Completing an already done
// reminder is a no-op; a dismissed reminder cannot become done.
func (s *Service) MarkDone(ctx context.Context, actor audit.Actor, id uuid.UUID) (*Reminder, error) {
	return s.transition(ctx, actor, id, StatusDone)
}

// Dismiss drops a pending reminder without completing it. Dismissing an
// already dismissed reminder is a no-op; a done reminder cannot be dismissed.
func (s *Service) Dismiss(ctx context.Context, actor audit.Actor, id uuid.UUID) (*Reminder, error) {
	return s.transition(ctx, actor, id, StatusDismissed)
}

func (s *Service) transition(ctx context.Context, actor audit.Actor, id uuid.UUID, target string) (*Reminder, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == target {
		return r, nil
	}
	if r.Status != StatusPending {
		return nil, fault.InvalidStatef("reminder %s is %s and cannot become %s", id, r.Status, target)
	}
	before := *r

	r.Status = target
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, fault.Storage("updating reminder status", err)
	}
	diff, diffErr := audit.Changed(audit.ActionStatus, before, r)
	s.audit.MustRecord(ctx, actor, audit.EntityReminder, r.ID, audit.ActionStatus, diff, diffErr)
	return r, nil
}

func (s *Service) DeleteReminder(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fault.Storage("deleting reminder", err)
	}
	diff, diffErr := audit.Deleted(r)
	s.audit.MustRecord(ctx, actor, audit.EntityReminder, id, audit.ActionDelete, diff, diffErr)
	return nil
}

func (s *Service) ListReminders(ctx context.Context, f ListFilter, limit, offset int) ([]*Reminder, int, error) {
	if f.PatientID != uuid.Nil {
		if _, err := s.patients.GetByID(ctx, f.PatientID); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.List(ctx, f, limit, offset)
}

// ListOverdue returns pending reminders whose due time has passed.
func (s *Service) ListOverdue(ctx context.Context, limit, offset int) ([]*Reminder, int, error) {
	now := s.now()
	return s.repo.List(ctx, ListFilter{Status: StatusPending, DueBefore: &now}, limit, offset)
}

// notify is best effort. A failed notification never fails the mutation.
func (s *Service) notify(ctx context.Context, r *Reminder, kind string) {
	if s.notifier == nil {
		return
	}
	note := ""
	if r.Note != nil {
		note = *r.Note
	}
	msg := notification.Message{
		ReminderID: r.ID,
		PatientID:  r.PatientID,
		Kind:       kind,
		Note:       note,
		DueAt:      r.DueAt,
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Warn().Err(err).Str("reminder_id", r.ID.String()).Msg("reminder notification not delivered")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

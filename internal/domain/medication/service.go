package medication

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/internal/domain/patient"
	"github.com/vettrack/vettrack/pkg/fault"
)

type Service struct {
	repo     Repository
	patients patient.Repository
	audit    *audit.Service
	now      func() time.Time
}

func NewService(repo Repository, patients patient.Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, patients: patients, audit: auditSvc, now: func() time.Time { return time.Now().UTC() }}
}

// Prescribe starts a medication course for a patient.
func (s *Service) Prescribe(ctx context.Context, actor audit.Actor, m *Medication) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if _, err := s.patients.GetByID(ctx, m.PatientID); err != nil {
		return err
	}
	m.CreatedBy = actor.UserID
	if m.StartDate == nil {
		now := s.now()
		m.StartDate = &now
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return fault.Storage("creating medication", err)
	}

	m.NextDueAt = NextDose(m, s.now())
	if m.NextDueAt != nil {
		if err := s.repo.Update(ctx, m); err != nil {
			return fault.Storage("scheduling medication", err)
		}
	}
	diff, diffErr := audit.Created(m)
	s.audit.MustRecord(ctx, actor, audit.EntityMedication, m.ID, audit.ActionCreate, diff, diffErr)
	return nil
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateInput applies as a merge patch: nil fields stay untouched, empty
// strings clear optional fields.
type UpdateInput struct {
	Name      *string    `json:"name"`
	Dosage    *string    `json:"dosage"`
	Route     *string    `json:"route"`
	Frequency *string    `json:"frequency"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (s *Service) UpdateMedication(ctx context.Context, actor audit.Actor, id uuid.UUID, in UpdateInput) (*Medication, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *m

	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.Dosage != nil {
		m.Dosage = optional(*in.Dosage)
	}
	if in.Route != nil {
		m.Route = optional(*in.Route)
	}
	if in.Frequency != nil {
		m.Frequency = optional(*in.Frequency)
	}
	if in.StartDate != nil {
		m.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		m.EndDate = in.EndDate
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if in.Frequency != nil || in.EndDate != nil {
		m.NextDueAt = NextDose(m, s.now())
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fault.Storage("updating medication", err)
	}
	diff, diffErr := audit.Changed(audit.ActionUpdate, before, m)
	s.audit.MustRecord(ctx, actor, audit.EntityMedication, m.ID, audit.ActionUpdate, diff, diffErr)
	return m, nil
}

// EndMedication closes the course. Ending an already ended course is a no-op.
func (s *Service) EndMedication(ctx context.Context, actor audit.Actor, id uuid.UUID) (*Medication, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if m.EndDate != nil && !m.EndDate.After(now) {
		return m, nil
	}
	before := *m

	m.EndDate = &now
	m.NextDueAt = nil
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fault.Storage("ending medication", err)
	}
	diff, diffErr := audit.Changed(audit.ActionStatus, before, m)
	s.audit.MustRecord(ctx, actor, audit.EntityMedication, m.ID, audit.ActionStatus, diff, diffErr)
	return m, nil
}

func (s *Service) DeleteMedication(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fault.Storage("deleting medication", err)
	}
	diff, diffErr := audit.Deleted(m)
	s.audit.MustRecord(ctx, actor, audit.EntityMedication, id, audit.ActionDelete, diff, diffErr)
	return nil
}

// RecordDose appends an administration event and advances the schedule.
// Concurrent recorders race on last_administered_at; the later write wins.
func (s *Service) RecordDose(ctx context.Context, actor audit.Actor, d *DoseEvent) (*Medication, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	m, err := s.repo.GetByID(ctx, d.MedicationID)
	if err != nil {
		return nil, err
	}
	d.RecordedBy = actor.UserID

	if err := s.repo.CreateDose(ctx, d); err != nil {
		return nil, fault.Storage("recording dose", err)
	}

	if m.LastAdministeredAt == nil || d.AdministeredAt.After(*m.LastAdministeredAt) {
		m.LastAdministeredAt = &d.AdministeredAt
	}
	m.NextDueAt = NextDose(m, s.now())
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fault.Storage("advancing dose schedule", err)
	}

	diff, diffErr := audit.Created(d)
	s.audit.MustRecord(ctx, actor, audit.EntityMedication, m.ID, audit.ActionDose, diff, diffErr)
	return m, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, activeOnly bool, limit, offset int) ([]*Medication, int, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByPatient(ctx, patientID, activeOnly, limit, offset)
}

func (s *Service) ListDoses(ctx context.Context, medicationID uuid.UUID, limit, offset int) ([]*DoseEvent, int, error) {
	if _, err := s.repo.GetByID(ctx, medicationID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListDoses(ctx, medicationID, limit, offset)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package visit

import (
	"context"
	"encoding/json"
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
}

func NewService(repo Repository, patients patient.Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, patients: patients, audit: auditSvc}
}

func (s *Service) CreateVisit(ctx context.Context, actor audit.Actor, v *Visit) error {
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now().UTC()
	}
	v.CreatedBy = actor.UserID
	if err := v.Validate(); err != nil {
		return err
	}
	if _, err := s.patients.GetByID(ctx, v.PatientID); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return fault.Storage("creating visit", err)
	}
	diff, diffErr := audit.Created(v)
	s.audit.MustRecord(ctx, actor, audit.EntityVisit, v.ID, audit.ActionCreate, diff, diffErr)
	return nil
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

type UpdateInput struct {
	VisitedAt       *time.Time      `json:"visited_at"`
	Reason          *string         `json:"reason"`
	Vitals          json.RawMessage `json:"vitals"`
	ExamNotes       *string         `json:"exam_notes"`
	Diagnoses       *string         `json:"diagnoses"`
	Procedures      *string         `json:"procedures"`
	Recommendations *string         `json:"recommendations"`
}

func (s *Service) UpdateVisit(ctx context.Context, actor audit.Actor, id uuid.UUID, in UpdateInput) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *v

	if in.VisitedAt != nil {
		v.VisitedAt = *in.VisitedAt
	}
	if in.Reason != nil {
		v.Reason = optional(*in.Reason)
	}
	if in.Vitals != nil {
		v.Vitals = in.Vitals
	}
	if in.ExamNotes != nil {
		v.ExamNotes = optional(*in.ExamNotes)
	}
	if in.Diagnoses != nil {
		v.Diagnoses = optional(*in.Diagnoses)
	}
	if in.Procedures != nil {
		v.Procedures = optional(*in.Procedures)
	}
	if in.Recommendations != nil {
		v.Recommendations = optional(*in.Recommendations)
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fault.Storage("updating visit", err)
	}
	diff, diffErr := audit.Changed(audit.ActionUpdate, before, v)
	s.audit.MustRecord(ctx, actor, audit.EntityVisit, v.ID, audit.ActionUpdate, diff, diffErr)
	return v, nil
}

func (s *Service) DeleteVisit(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fault.Storage("deleting visit", err)
	}
	diff, diffErr := audit.Deleted(v)
	s.audit.MustRecord(ctx, actor, audit.EntityVisit, id, audit.ActionDelete, diff, diffErr)
	return nil
}

func (s *Service) ListVisitsByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByPatient(ctx, patientID, from, to, limit, offset)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

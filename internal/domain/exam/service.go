package exam

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/internal/domain/examtemplate"
	"github.com/vettrack/vettrack/internal/domain/patient"
	"github.com/vettrack/vettrack/internal/domain/visit"
	"github.com/vettrack/vettrack/pkg/fault"
)

type Service struct {
	repo      Repository
	patients  patient.Repository
	visits    visit.Repository
	templates examtemplate.Repository
	audit     *audit.Service
}

func NewService(repo Repository, patients patient.Repository, visits visit.Repository, templates examtemplate.Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, patients: patients, visits: visits, templates: templates, audit: auditSvc}
}

// CreateExam opens a draft exam against a template, capturing the template
// version at creation so later revisions never reinterpret the results.
func (s *Service) CreateExam(ctx context.Context, actor audit.Actor, e *Exam) error {
	if e.PerformedAt.IsZero() {
		e.PerformedAt = time.Now().UTC()
	}
	e.Status = StatusDraft
	e.PerformedBy = actor.UserID
	if err := e.Validate(); err != nil {
		return err
	}

	if _, err := s.patients.GetByID(ctx, e.PatientID); err != nil {
		return err
	}
	tmpl, err := s.templates.GetByID(ctx, e.TemplateID)
	if err != nil {
		return err
	}
	if !tmpl.IsActive {
		return fault.InvalidStatef("exam template %s is retired", tmpl.ID)
	}
	e.TemplateVersion = tmpl.Version

	if e.VisitID != nil {
		v, err := s.visits.GetByID(ctx, *e.VisitID)
		if err != nil {
			return err
		}
		if v.PatientID != e.PatientID {
			return fault.InvalidInputf("visit %s does not belong to patient %s", v.ID, e.PatientID)
		}
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return fault.Storage("creating exam", err)
	}
	diff, diffErr := audit.Created(e)
	s.audit.MustRecord(ctx, actor, audit.EntityExam, e.ID, audit.ActionCreate, diff, diffErr)
	return nil
}

func (s *Service) GetExam(ctx context.Context, id uuid.UUID) (*Exam, error) {
	return s.repo.GetByID(ctx, id)
}

type UpdateInput struct {
	PerformedAt *time.Time      `json:"performed_at"`
	Vitals      json.RawMessage `json:"vitals"`
	Results     json.RawMessage `json:"results"`
}

// UpdateExam edits a draft. Final exams are immutable.
func (s *Service) UpdateExam(ctx context.Context, actor audit.Actor, id uuid.UUID, in UpdateInput) (*Exam, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusFinal {
		return nil, fault.InvalidStatef("exam %s is final and cannot be edited", id)
	}
	before := *e

	if in.PerformedAt != nil {
		e.PerformedAt = *in.PerformedAt
	}
	if in.Vitals != nil {
		e.Vitals = in.Vitals
	}
	if in.Results != nil {
		e.Results = in.Results
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fault.Storage("updating exam", err)
	}
	diff, diffErr := audit.Changed(audit.ActionUpdate, before, e)
	s.audit.MustRecord(ctx, actor, audit.EntityExam, e.ID, audit.ActionUpdate, diff, diffErr)
	return e, nil
}

// FinalizeExam moves draft to final. Finalizing an already final exam is a
// no-op and records no audit row.
func (s *Service) FinalizeExam(ctx context.Context, actor audit.Actor, id uuid.UUID) (*Exam, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusFinal {
		return e, nil
	}
	before := *e

	e.Status = StatusFinal
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, fault.Storage("finalizing exam", err)
	}
	diff, diffErr := audit.Changed(audit.ActionFinalize, before, e)
	s.audit.MustRecord(ctx, actor, audit.EntityExam, e.ID, audit.ActionFinalize, diff, diffErr)
	return e, nil
}

// DeleteExam removes a draft. Final exams are part of the clinical record
// and cannot be deleted.
func (s *Service) DeleteExam(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.Status == StatusFinal {
		return fault.InvalidStatef("exam %s is final and cannot be deleted", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fault.Storage("deleting exam", err)
	}
	diff, diffErr := audit.Deleted(e)
	s.audit.MustRecord(ctx, actor, audit.EntityExam, id, audit.ActionDelete, diff, diffErr)
	return nil
}

func (s *Service) ListExamsByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Exam, int, error) {
	if status != "" && status != StatusDraft && status != StatusFinal {
		return nil, 0, fault.InvalidInputf("unknown exam status %q", status)
	}
	return s.repo.ListByPatient(ctx, patientID, status, limit, offset)
}

func (s *Service) ListExamsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Exam, error) {
	return s.repo.ListByVisit(ctx, visitID)
}

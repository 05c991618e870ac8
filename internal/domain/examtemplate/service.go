package examtemplate

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/pkg/fault"
)

type Service struct {
	repo  Repository
	audit *audit.Service
}

func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, audit: auditSvc}
}

// CreateTemplate starts a new template line at version 1.
func (s *Service) CreateTemplate(ctx context.Context, actor audit.Actor, t *Template) error {
	t.Version = 1
	t.IsActive = true
	t.CreatedBy = actor.UserID
	if err := t.Validate(); err != nil {
		return err
	}

	max, err := s.repo.MaxVersion(ctx, t.Name)
	if err != nil {
		return fault.Storage("checking template versions", err)
	}
	if max > 0 {
		return fault.InvalidStatef("template %q already exists; revise it instead", t.Name)
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return fault.Storage("creating exam template", err)
	}
	diff, diffErr := audit.Created(t)
	s.audit.MustRecord(ctx, actor, audit.EntityExamTemplate, t.ID, audit.ActionCreate, diff, diffErr)
	return nil
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	return s.repo.GetByID(ctx, id)
}

// ReviseInput carries the content of a new template version. Fields left
// nil inherit from the base version.
type ReviseInput struct {
	Description *string         `json:"description"`
	Fields      json.RawMessage `json:"fields"`
}

// ReviseTemplate creates the next version of an existing template as a new
// row. The base version is left untouched so exams referencing it keep a
// stable schema.
func (s *Service) ReviseTemplate(ctx context.Context, actor audit.Actor, baseID uuid.UUID, in ReviseInput) (*Template, error) {
	base, err := s.repo.GetByID(ctx, baseID)
	if err != nil {
		return nil, err
	}

	max, err := s.repo.MaxVersion(ctx, base.Name)
	if err != nil {
		return nil, fault.Storage("checking template versions", err)
	}

	next := &Template{
		Name:        base.Name,
		Version:     max + 1,
		Description: base.Description,
		Fields:      base.Fields,
		IsActive:    true,
		CreatedBy:   actor.UserID,
	}
	if in.Description != nil {
		next.Description = in.Description
	}
	if in.Fields != nil {
		next.Fields = in.Fields
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, next); err != nil {
		return nil, fault.Storage("creating template revision", err)
	}
	diff, diffErr := audit.Created(next)
	s.audit.MustRecord(ctx, actor, audit.EntityExamTemplate, next.ID, audit.ActionCreate, diff, diffErr)
	return next, nil
}

// DeactivateTemplate retires a template version. Deactivating an already
// inactive template is a no-op and records no audit row.
func (s *Service) DeactivateTemplate(ctx context.Context, actor audit.Actor, id uuid.UUID) (*Template, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return t, nil
	}
	before := *t

	t.IsActive = false
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fault.Storage("deactivating exam template", err)
	}
	diff, diffErr := audit.Changed(audit.ActionStatus, before, t)
	s.audit.MustRecord(ctx, actor, audit.EntityExamTemplate, t.ID, audit.ActionStatus, diff, diffErr)
	return t, nil
}

func (s *Service) ListTemplates(ctx context.Context, activeOnly bool, limit, offset int) ([]*Template, int, error) {
	return s.repo.List(ctx, activeOnly, limit, offset)
}

func (s *Service) ListTemplateVersions(ctx context.Context, name string) ([]*Template, error) {
	return s.repo.ListVersions(ctx, name)
}

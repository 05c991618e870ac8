package owner

import (
	"context"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/pkg/fault"
)

type Service struct {
	repo     Repository
	patients PatientCounter
	audit    *audit.Service
}

func NewService(repo Repository, patients PatientCounter, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, patients: patients, audit: auditSvc}
}

func (s *Service) CreateOwner(ctx context.Context, actor audit.Actor, o *Owner) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return fault.Storage("creating owner", err)
	}
	diff, diffErr := audit.Created(o)
	s.audit.MustRecord(ctx, actor, audit.EntityOwner, o.ID, audit.ActionCreate, diff, diffErr)
	return nil
}

func (s *Service) GetOwner(ctx context.Context, id uuid.UUID) (*Owner, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateInput applies as a merge patch: nil fields are left untouched,
// empty strings clear optional fields.
type UpdateInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

func (s *Service) UpdateOwner(ctx context.Context, actor audit.Actor, id uuid.UUID, in UpdateInput) (*Owner, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *o

	if in.FirstName != nil {
		o.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		o.LastName = *in.LastName
	}
	if in.Email != nil {
		o.Email = optional(*in.Email)
	}
	if in.Phone != nil {
		o.Phone = optional(*in.Phone)
	}
	if in.Address != nil {
		o.Address = optional(*in.Address)
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, fault.Storage("updating owner", err)
	}
	diff, diffErr := audit.Changed(audit.ActionUpdate, before, o)
	s.audit.MustRecord(ctx, actor, audit.EntityOwner, o.ID, audit.ActionUpdate, diff, diffErr)
	return o, nil
}

// DeleteOwner refuses to delete an owner who still has patients on file.
func (s *Service) DeleteOwner(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.patients.CountByOwner(ctx, id)
	if err != nil {
		return fault.Storage("counting patients", err)
	}
	if n > 0 {
		return fault.InvalidStatef("owner %s has %d patients and cannot be deleted", id, n)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fault.Storage("deleting owner", err)
	}
	diff, diffErr := audit.Deleted(o)
	s.audit.MustRecord(ctx, actor, audit.EntityOwner, id, audit.ActionDelete, diff, diffErr)
	return nil
}

func (s *Service) ListOwners(ctx context.Context, limit, offset int) ([]*Owner, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SearchOwners(ctx context.Context, q string, limit, offset int) ([]*Owner, int, error) {
	return s.repo.SearchByName(ctx, q, limit, offset)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/internal/domain/owner"
	"github.com/vettrack/vettrack/pkg/fault"
)

type Service struct {
	repo   Repository
	owners owner.Repository
	audit  *audit.Service
}

func NewService(repo Repository, owners owner.Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, owners: owners, audit: auditSvc}
}

func (s *Service) CreatePatient(ctx context.Context, actor audit.Actor, p *Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := s.owners.GetByID(ctx, p.OwnerID); err != nil {
		return err
	}
	if err := s.checkMicrochip(ctx, p.MicrochipID, uuid.Nil); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fault.Storage("creating patient", err)
	}
	diff, diffErr := audit.Created(p)
	s.audit.MustRecord(ctx, actor, audit.EntityPatient, p.ID, audit.ActionCreate, diff, diffErr)
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateInput applies as a merge patch: nil fields stay untouched, empty
// strings clear optional fields.
type UpdateInput struct {
	OwnerID     *uuid.UUID `json:"owner_id"`
	Name        *string    `json:"name"`
	Species     *string    `json:"species"`
	Breed       *string    `json:"breed"`
	Sex         *string    `json:"sex"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Color       *string    `json:"color"`
	MicrochipID *string    `json:"microchip_id"`
	Allergies   *string    `json:"allergies"`
	Notes       *string    `json:"notes"`
}

func (s *Service) UpdatePatient(ctx context.Context, actor audit.Actor, id uuid.UUID, in UpdateInput) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *p

	if in.OwnerID != nil {
		p.OwnerID = *in.OwnerID
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Species != nil {
		p.Species = *in.Species
	}
	if in.Breed != nil {
		p.Breed = optional(*in.Breed)
	}
	if in.Sex != nil {
		p.Sex = optional(*in.Sex)
	}
	if in.DateOfBirth != nil {
		p.DateOfBirth = in.DateOfBirth
	}
	if in.Color != nil {
		p.Color = optional(*in.Color)
	}
	if in.MicrochipID != nil {
		p.MicrochipID = optional(*in.MicrochipID)
	}
	if in.Allergies != nil {
		p.Allergies = optional(*in.Allergies)
	}
	if in.Notes != nil {
		p.Notes = optional(*in.Notes)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if in.OwnerID != nil && *in.OwnerID != before.OwnerID {
		if _, err := s.owners.GetByID(ctx, p.OwnerID); err != nil {
			return nil, err
		}
	}
	if err := s.checkMicrochip(ctx, p.MicrochipID, p.ID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fault.Storage("updating patient", err)
	}
	diff, diffErr := audit.Changed(audit.ActionUpdate, before, p)
	s.audit.MustRecord(ctx, actor, audit.EntityPatient, p.ID, audit.ActionUpdate, diff, diffErr)
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fault.Storage("deleting patient", err)
	}
	diff, diffErr := audit.Deleted(p)
	s.audit.MustRecord(ctx, actor, audit.EntityPatient, id, audit.ActionDelete, diff, diffErr)
	return nil
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListPatientsByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *Service) SearchPatients(ctx context.Context, q string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.SearchByName(ctx, q, limit, offset)
}

// checkMicrochip enforces microchip uniqueness across patients. self is
// the patient being updated, uuid.Nil on create.
func (s *Service) checkMicrochip(ctx context.Context, chip *string, self uuid.UUID) error {
	if chip == nil || *chip == "" {
		return nil
	}
	existing, err := s.repo.GetByMicrochip(ctx, *chip)
	if err != nil {
		if fault.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return fault.InvalidInputf("microchip %s is already registered to patient %s", *chip, existing.ID)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

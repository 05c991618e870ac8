package medication

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists medications and their dose events.
type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, activeOnly bool, limit, offset int) ([]*Medication, int, error)

	CreateDose(ctx context.Context, d *DoseEvent) error
	ListDoses(ctx context.Context, medicationID uuid.UUID, limit, offset int) ([]*DoseEvent, int, error)
}

package owner

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, o *Owner) error
	GetByID(ctx context.Context, id uuid.UUID) (*Owner, error)
	Update(ctx context.Context, o *Owner) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Owner, int, error)
	SearchByName(ctx context.Context, q string, limit, offset int) ([]*Owner, int, error)
}

// PatientCounter reports how many patients reference an owner. The patient
// repository implements it; owners with patients cannot be deleted.
type PatientCounter interface {
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

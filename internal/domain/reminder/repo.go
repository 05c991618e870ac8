package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows reminder listings. Zero values mean "don't filter".
type ListFilter struct {
	PatientID uuid.UUID
	Status    string
	DueAfter  *time.Time
	DueBefore *time.Time
}

type Repository interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error)
	Update(ctx context.Context, r *Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Reminder, int, error)
}

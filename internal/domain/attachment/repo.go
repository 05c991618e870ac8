package attachment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Attachment, error)
	UpdateStorageKey(ctx context.Context, id uuid.UUID, key string, size int64) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Attachment, int, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Attachment, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]*Attachment, error)
}

package exam

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Exam) error
	GetByID(ctx context.Context, id uuid.UUID) (*Exam, error)
	Update(ctx context.Context, e *Exam) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Exam, int, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Exam, error)
	CountByTemplate(ctx context.Context, templateID uuid.UUID) (int, error)
}

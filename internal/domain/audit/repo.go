package audit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, l *Log) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*Log, int, error)
	ListByActor(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Log, int, error)
}

package examtemplate

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	Update(ctx context.Context, t *Template) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Template, int, error)
	ListVersions(ctx context.Context, name string) ([]*Template, error)
	MaxVersion(ctx context.Context, name string) (int, error)
}

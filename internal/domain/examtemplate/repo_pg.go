package examtemplate

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vettrack/vettrack/internal/platform/db"
	"github.com/vettrack/vettrack/pkg/fault"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const tmplCols = `id, name, version, description, fields, is_active, created_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, t *Template) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO exam_template (id, name, version, description, fields, is_active, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		t.ID, t.Name, t.Version, t.Description, t.Fields, t.IsActive, t.CreatedBy,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := scanTemplate(r.conn(ctx).QueryRow(ctx, `SELECT `+tmplCols+` FROM exam_template WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("exam template %s not found", id)
	}
	return t, err
}

func (r *repoPG) Update(ctx context.Context, t *Template) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE exam_template SET is_active=$2, updated_at=NOW() WHERE id = $1`,
		t.ID, t.IsActive,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Template, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE is_active`
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM exam_template`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+tmplCols+` FROM exam_template`+where+` ORDER BY name, version DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectTemplates(rows, total)
}

func (r *repoPG) ListVersions(ctx context.Context, name string) ([]*Template, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+tmplCols+` FROM exam_template WHERE name = $1 ORDER BY version DESC`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tmpls, _, err := collectTemplates(rows, 0)
	return tmpls, err
}

func (r *repoPG) MaxVersion(ctx context.Context, name string) (int, error) {
	var v int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM exam_template WHERE name = $1`, name).Scan(&v)
	return v, err
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Name, &t.Version, &t.Description, &t.Fields, &t.IsActive,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTemplates(rows pgx.Rows, total int) ([]*Template, int, error) {
	var tmpls []*Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Version, &t.Description, &t.Fields, &t.IsActive,
			&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		tmpls = append(tmpls, &t)
	}
	return tmpls, total, nil
}

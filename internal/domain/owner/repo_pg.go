package owner

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

const ownerCols = `id, first_name, last_name, email, phone, address, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, o *Owner) error {
	o.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO owner (id, first_name, last_name, email, phone, address)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		o.ID, o.FirstName, o.LastName, o.Email, o.Phone, o.Address,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Owner, error) {
	o, err := scanOwner(r.conn(ctx).QueryRow(ctx, `SELECT `+ownerCols+` FROM owner WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("owner %s not found", id)
	}
	return o, err
}

func (r *repoPG) Update(ctx context.Context, o *Owner) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE owner SET first_name=$2, last_name=$3, email=$4, phone=$5, address=$6, updated_at=NOW()
		WHERE id = $1`,
		o.ID, o.FirstName, o.LastName, o.Email, o.Phone, o.Address,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM owner WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Owner, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM owner`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+ownerCols+` FROM owner ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectOwners(rows, total)
}

func (r *repoPG) SearchByName(ctx context.Context, q string, limit, offset int) ([]*Owner, int, error) {
	pattern := "%" + q + "%"
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM owner WHERE first_name ILIKE $1 OR last_name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+ownerCols+` FROM owner WHERE first_name ILIKE $1 OR last_name ILIKE $1
		 ORDER BY last_name, first_name LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectOwners(rows, total)
}

func scanOwner(row pgx.Row) (*Owner, error) {
	var o Owner
	err := row.Scan(&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.Phone, &o.Address, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOwners(rows pgx.Rows, total int) ([]*Owner, int, error) {
	var owners []*Owner
	for rows.Next() {
		var o Owner
		if err := rows.Scan(&o.ID, &o.FirstName, &o.LastName, &o.Email, &o.Phone, &o.Address, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		owners = append(owners, &o)
	}
	return owners, total, nil
}

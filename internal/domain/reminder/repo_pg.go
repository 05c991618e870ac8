package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const reminderCols = `id, patient_id, title, note, due_at, status, created_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, rem *Reminder) error {
	rem.ID = uuid.New()
	now := time.Now().UTC()
	rem.CreatedAt = now
	rem.UpdatedAt = now

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reminder (`+reminderCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rem.ID, rem.PatientID, rem.Title, rem.Note, rem.DueAt, rem.Status,
		rem.CreatedBy, rem.CreatedAt, rem.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting reminder: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+reminderCols+` FROM reminder WHERE id = $1`, id)
	rem, err := scanReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("reminder %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting reminder: %w", err)
	}
	return rem, nil
}

func (r *repoPG) Update(ctx context.Context, rem *Reminder) error {
	rem.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE reminder
		SET title = $2, note = $3, due_at = $4, status = $5, updated_at = $6
		WHERE id = $1`,
		rem.ID, rem.Title, rem.Note, rem.DueAt, rem.Status, rem.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("reminder %s not found", rem.ID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM reminder WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("reminder %s not found", id)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Reminder, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	n := 0
	arg := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if f.PatientID != uuid.Nil {
		where += ` AND patient_id = ` + arg(f.PatientID)
	}
	if f.Status != "" {
		where += ` AND status = ` + arg(f.Status)
	}
	if f.DueAfter != nil {
		where += ` AND due_at >= ` + arg(*f.DueAfter)
	}
	if f.DueBefore != nil {
		where += ` AND due_at <= ` + arg(*f.DueBefore)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM reminder `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting reminders: %w", err)
	}

	query := `SELECT ` + reminderCols + ` FROM reminder ` + where +
		` ORDER BY due_at ASC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing reminders: %w", err)
	}
	defer rows.Close()

	var rems []*Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning reminder: %w", err)
		}
		rems = append(rems, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return rems, total, nil
}

func scanReminder(row pgx.Row) (*Reminder, error) {
	var rem Reminder
	err := row.Scan(&rem.ID, &rem.PatientID, &rem.Title, &rem.Note, &rem.DueAt,
		&rem.Status, &rem.CreatedBy, &rem.CreatedAt, &rem.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rem, nil
}

package visit

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

const visitCols = `id, patient_id, visited_at, reason, vitals, exam_notes, diagnoses, procedures, recommendations, created_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visit (id, patient_id, visited_at, reason, vitals, exam_notes, diagnoses, procedures, recommendations, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		v.ID, v.PatientID, v.VisitedAt, v.Reason, v.Vitals, v.ExamNotes, v.Diagnoses, v.Procedures, v.Recommendations, v.CreatedBy,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := scanVisit(r.conn(ctx).QueryRow(ctx, `SELECT `+visitCols+` FROM visit WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("visit %s not found", id)
	}
	return v, err
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit SET visited_at=$2, reason=$3, vitals=$4, exam_notes=$5, diagnoses=$6,
			procedures=$7, recommendations=$8, updated_at=NOW()
		WHERE id = $1`,
		v.ID, v.VisitedAt, v.Reason, v.Vitals, v.ExamNotes, v.Diagnoses, v.Procedures, v.Recommendations,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM visit WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Visit, int, error) {
	where := `WHERE patient_id = $1`
	args := []interface{}{patientID}
	if from != nil {
		args = append(args, *from)
		where += fmt.Sprintf(` AND visited_at >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		where += fmt.Sprintf(` AND visited_at <= $%d`, len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM visit `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visit `+where+
			fmt.Sprintf(` ORDER BY visited_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.PatientID, &v.VisitedAt, &v.Reason, &v.Vitals, &v.ExamNotes,
			&v.Diagnoses, &v.Procedures, &v.Recommendations, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, err
		}
		visits = append(visits, &v)
	}
	return visits, total, nil
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.PatientID, &v.VisitedAt, &v.Reason, &v.Vitals, &v.ExamNotes,
		&v.Diagnoses, &v.Procedures, &v.Recommendations, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

package exam

import (
	"context"
	"errors"
	"fmt"

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

const examCols = `id, patient_id, visit_id, template_id, template_version, performed_at, performed_by, vitals, results, status, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, e *Exam) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO exam (id, patient_id, visit_id, template_id, template_version, performed_at, performed_by, vitals, results, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.PatientID, e.VisitID, e.TemplateID, e.TemplateVersion, e.PerformedAt, e.PerformedBy, e.Vitals, e.Results, e.Status,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Exam, error) {
	e, err := scanExam(r.conn(ctx).QueryRow(ctx, `SELECT `+examCols+` FROM exam WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("exam %s not found", id)
	}
	return e, err
}

func (r *repoPG) Update(ctx context.Context, e *Exam) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE exam SET performed_at=$2, vitals=$3, results=$4, status=$5, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.PerformedAt, e.Vitals, e.Results, e.Status,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM exam WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Exam, int, error) {
	where := `WHERE patient_id = $1`
	args := []interface{}{patientID}
	if status != "" {
		args = append(args, status)
		where += ` AND status = $2`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM exam `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+examCols+` FROM exam `+where+
			fmt.Sprintf(` ORDER BY performed_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectExams(rows, total)
}

func (r *repoPG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Exam, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+examCols+` FROM exam WHERE visit_id = $1 ORDER BY performed_at DESC`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	exams, _, err := collectExams(rows, 0)
	return exams, err
}

func (r *repoPG) CountByTemplate(ctx context.Context, templateID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM exam WHERE template_id = $1`, templateID).Scan(&n)
	return n, err
}

func scanExam(row pgx.Row) (*Exam, error) {
	var e Exam
	err := row.Scan(&e.ID, &e.PatientID, &e.VisitID, &e.TemplateID, &e.TemplateVersion,
		&e.PerformedAt, &e.PerformedBy, &e.Vitals, &e.Results, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectExams(rows pgx.Rows, total int) ([]*Exam, int, error) {
	var exams []*Exam
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.PatientID, &e.VisitID, &e.TemplateID, &e.TemplateVersion,
			&e.PerformedAt, &e.PerformedBy, &e.Vitals, &e.Results, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		exams = append(exams, &e)
	}
	return exams, total, nil
}

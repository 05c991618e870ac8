package medication

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

const medicationCols = `id, patient_id, name, dosage, route, frequency, start_date, end_date, last_administered_at, next_due_at, created_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication (`+medicationCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.ID, m.PatientID, m.Name, m.Dosage, m.Route, m.Frequency,
		m.StartDate, m.EndDate, m.LastAdministeredAt, m.NextDueAt,
		m.CreatedBy, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting medication: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicationCols+` FROM medication WHERE id = $1`, id)
	m, err := scanMedication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("medication %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting medication: %w", err)
	}
	return m, nil
}

func (r *repoPG) Update(ctx context.Context, m *Medication) error {
	m.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication
		SET name = $2, dosage = $3, route = $4, frequency = $5,
			start_date = $6, end_date = $7, last_administered_at = $8,
			next_due_at = $9, updated_at = $10
		WHERE id = $1`,
		m.ID, m.Name, m.Dosage, m.Route, m.Frequency,
		m.StartDate, m.EndDate, m.LastAdministeredAt, m.NextDueAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("medication %s not found", m.ID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medication WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("medication %s not found", id)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, activeOnly bool, limit, offset int) ([]*Medication, int, error) {
	where := `WHERE patient_id = $1`
	if activeOnly {
		where += ` AND (start_date IS NULL OR start_date <= now())
			AND (end_date IS NULL OR end_date >= now())`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM medication `+where, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting medications: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+medicationCols+` FROM medication `+where+`
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing medications: %w", err)
	}
	defer rows.Close()

	meds, err := collectMedications(rows)
	if err != nil {
		return nil, 0, err
	}
	return meds, total, nil
}

const doseCols = `id, medication_id, administered_at, amount, notes, recorded_by, created_at`

func (r *repoPG) CreateDose(ctx context.Context, d *DoseEvent) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now().UTC()

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO dose_event (`+doseCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.MedicationID, d.AdministeredAt, d.Amount, d.Notes, d.RecordedBy, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting dose event: %w", err)
	}
	return nil
}

func (r *repoPG) ListDoses(ctx context.Context, medicationID uuid.UUID, limit, offset int) ([]*DoseEvent, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM dose_event WHERE medication_id = $1`, medicationID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting dose events: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+doseCols+` FROM dose_event
		WHERE medication_id = $1
		ORDER BY administered_at DESC
		LIMIT $2 OFFSET $3`, medicationID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing dose events: %w", err)
	}
	defer rows.Close()

	var doses []*DoseEvent
	for rows.Next() {
		var d DoseEvent
		if err := rows.Scan(&d.ID, &d.MedicationID, &d.AdministeredAt,
			&d.Amount, &d.Notes, &d.RecordedBy, &d.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning dose event: %w", err)
		}
		doses = append(doses, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return doses, total, nil
}

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Route, &m.Frequency,
		&m.StartDate, &m.EndDate, &m.LastAdministeredAt, &m.NextDueAt,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMedications(rows pgx.Rows) ([]*Medication, error) {
	var meds []*Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning medication: %w", err)
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

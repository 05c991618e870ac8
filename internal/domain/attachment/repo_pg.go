package attachment

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

const attachmentCols = `id, patient_id, visit_id, exam_id, type, content_type, size_bytes, storage_key, filename, uploaded_by, uploaded_at`

func (r *repoPG) Create(ctx context.Context, a *Attachment) error {
	a.ID = uuid.New()
	a.UploadedAt = time.Now().UTC()

	visitID, examID := linkColumns(a.Link)
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO attachment (`+attachmentCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.PatientID, visitID, examID, a.Type, a.ContentType,
		a.SizeBytes, a.StorageKey, a.Filename, a.UploadedBy, a.UploadedAt)
	if err != nil {
		return fmt.Errorf("inserting attachment: %w", err)
	}
	return nil
}

// linkColumns splits a LinkTarget into the two nullable columns.
func linkColumns(l LinkTarget) (visitID, examID *uuid.UUID) {
	if id, ok := l.VisitID(); ok {
		visitID = &id
	}
	if id, ok := l.ExamID(); ok {
		examID = &id
	}
	return visitID, examID
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+attachmentCols+` FROM attachment WHERE id = $1`, id)
	a, err := scanAttachment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("attachment %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting attachment: %w", err)
	}
	return a, nil
}

func (r *repoPG) UpdateStorageKey(ctx context.Context, id uuid.UUID, key string, size int64) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE attachment SET storage_key = $2, size_bytes = $3 WHERE id = $1`,
		id, key, size)
	if err != nil {
		return fmt.Errorf("updating attachment storage key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("attachment %s not found", id)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM attachment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("attachment %s not found", id)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Attachment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM attachment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting attachments: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+attachmentCols+` FROM attachment
		WHERE patient_id = $1
		ORDER BY uploaded_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing attachments: %w", err)
	}
	defer rows.Close()

	atts, err := collectAttachments(rows)
	if err != nil {
		return nil, 0, err
	}
	return atts, total, nil
}

func (r *repoPG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Attachment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+attachmentCols+` FROM attachment
		WHERE visit_id = $1
		ORDER BY uploaded_at DESC`, visitID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments by visit: %w", err)
	}
	defer rows.Close()
	return collectAttachments(rows)
}

func (r *repoPG) ListByExam(ctx context.Context, examID uuid.UUID) ([]*Attachment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+attachmentCols+` FROM attachment
		WHERE exam_id = $1
		ORDER BY uploaded_at DESC`, examID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments by exam: %w", err)
	}
	defer rows.Close()
	return collectAttachments(rows)
}

func scanAttachment(row pgx.Row) (*Attachment, error) {
	var a Attachment
	var visitID, examID *uuid.UUID
	err := row.Scan(&a.ID, &a.PatientID, &visitID, &examID, &a.Type,
		&a.ContentType, &a.SizeBytes, &a.StorageKey, &a.Filename,
		&a.UploadedBy, &a.UploadedAt)
	if err != nil {
		return nil, err
	}
	a.Link, err = LinkFrom(visitID, examID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAttachments(rows pgx.Rows) ([]*Attachment, error) {
	var atts []*Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		atts = append(atts, a)
	}
	return atts, rows.Err()
}

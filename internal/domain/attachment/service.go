package attachment

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/internal/domain/exam"
	"github.com/vettrack/vettrack/internal/domain/patient"
	"github.com/vettrack/vettrack/internal/domain/visit"
	"github.com/vettrack/vettrack/internal/platform/blobstore"
	"github.com/vettrack/vettrack/pkg/fault"
)

type Service struct {
	repo     Repository
	patients patient.Repository
	visits   visit.Repository
	exams    exam.Repository
	blobs    blobstore.BlobStore
	audit    *audit.Service
	logger   zerolog.Logger
}

func NewService(repo Repository, patients patient.Repository, visits visit.Repository, exams exam.Repository, blobs blobstore.BlobStore, auditSvc *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		visits:   visits,
		exams:    exams,
		blobs:    blobs,
		audit:    auditSvc,
		logger:   logger,
	}
}

// Upload validates the attachment, writes the record, then the bytes.
// A failed blob write rolls the record back so the database never points
// at bytes that were never stored.
func (s *Service) Upload(ctx context.Context, actor audit.Actor, a *Attachment, payload io.Reader) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := s.patients.GetByID(ctx, a.PatientID); err != nil {
		return err
	}
	if id, ok := a.Link.VisitID(); ok {
		v, err := s.visits.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if v.PatientID != a.PatientID {
			return fault.InvalidInputf("visit %s does not belong to patient %s", v.ID, a.PatientID)
		}
	}
	if id, ok := a.Link.ExamID(); ok {
		e, err := s.exams.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if e.PatientID != a.PatientID {
			return fault.InvalidInputf("exam %s does not belong to patient %s", e.ID, a.PatientID)
		}
	}

	a.Filename = path.Base(a.Filename)
	if a.Filename == "." || a.Filename == "/" || a.Filename == "" {
		return fault.InvalidInputf("filename is required")
	}
	buffered := bufio.NewReader(payload)
	if _, err := buffered.Peek(1); err == io.EOF {
		return fault.InvalidInputf("payload is empty")
	}

	a.UploadedBy = actor.UserID
	a.StorageKey = "pending"
	if err := s.repo.Create(ctx, a); err != nil {
		return fault.Storage("creating attachment record", err)
	}

	key := fmt.Sprintf("%s/%s/%s", a.PatientID, a.ID, a.Filename)
	size, err := s.blobs.Put(ctx, key, buffered)
	if err != nil {
		// Roll the record back so a retry starts clean.
		if delErr := s.repo.Delete(ctx, a.ID); delErr != nil {
			s.logger.Error().Err(delErr).
				Str("attachment_id", a.ID.String()).
				Msg("orphaned attachment record after failed blob write")
		}
		return fault.Storage("writing attachment payload", err)
	}
	a.StorageKey = key
	a.SizeBytes = size
	if err := s.repo.UpdateStorageKey(ctx, a.ID, key, size); err != nil {
		return fault.Storage("finalizing attachment record", err)
	}

	diff, diffErr := audit.Created(a)
	s.audit.MustRecord(ctx, actor, audit.EntityAttachment, a.ID, audit.ActionUpload, diff, diffErr)
	return nil
}

func (s *Service) GetAttachment(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	return s.repo.GetByID(ctx, id)
}

// Open returns the stored payload alongside its record.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (*Attachment, io.ReadCloser, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, a.StorageKey)
	if err != nil {
		return nil, nil, fault.Storage("opening attachment payload", err)
	}
	return a, rc, nil
}

// DeleteAttachment removes the bytes first, then the record. A blob that
// is already gone does not block the record's removal.
func (s *Service) DeleteAttachment(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, a.StorageKey); err != nil {
		s.logger.Warn().Err(err).
			Str("attachment_id", a.ID.String()).
			Str("storage_key", a.StorageKey).
			Msg("attachment blob not deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fault.Storage("deleting attachment record", err)
	}
	diff, diffErr := audit.Deleted(a)
	s.audit.MustRecord(ctx, actor, audit.EntityAttachment, id, audit.ActionDelete, diff, diffErr)
	return nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Attachment, int, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Attachment, error) {
	return s.repo.ListByVisit(ctx, visitID)
}

func (s *Service) ListByExam(ctx context.Context, examID uuid.UUID) ([]*Attachment, error) {
	return s.repo.ListByExam(ctx, examID)
}

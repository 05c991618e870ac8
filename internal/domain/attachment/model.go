package attachment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/pkg/fault"
)

// Attachment types and the content types accepted for each.
const (
	TypeImage = "image"
	TypePDF   = "pdf"
	TypeVideo = "video"
)

var allowedContentTypes = map[string][]string{
	TypeImage: {"image/png", "image/jpeg", "image/webp"},
	TypePDF:   {"application/pdf"},
	TypeVideo: {"video/mp4", "video/quicktime"},
}

// LinkKind discriminates what an attachment is linked to beyond its patient.
type LinkKind int

const (
	LinkNone LinkKind = iota
	LinkVisit
	LinkExam
)

// LinkTarget is the optional visit-or-exam link. Holding the discriminant
// and a single id makes a visit+exam double link unrepresentable; the
// two-optional-ids boundary shape is validated in LinkFrom.
type LinkTarget struct {
	kind LinkKind
	id   uuid.UUID
}

func NoLink() LinkTarget { return LinkTarget{} }

func VisitLink(id uuid.UUID) LinkTarget { return LinkTarget{kind: LinkVisit, id: id} }

func ExamLink(id uuid.UUID) LinkTarget { return LinkTarget{kind: LinkExam, id: id} }

// LinkFrom builds a LinkTarget from the wire shape of two optional ids.
func LinkFrom(visitID, examID *uuid.UUID) (LinkTarget, error) {
	switch {
	case visitID != nil && examID != nil:
		return LinkTarget{}, fault.InvalidInputf("attachment may link to a visit or an exam, not both")
	case visitID != nil:
		return VisitLink(*visitID), nil
	case examID != nil:
		return ExamLink(*examID), nil
	default:
		return NoLink(), nil
	}
}

func (l LinkTarget) Kind() LinkKind { return l.kind }

func (l LinkTarget) VisitID() (uuid.UUID, bool) {
	return l.id, l.kind == LinkVisit
}

func (l LinkTarget) ExamID() (uuid.UUID, bool) {
	return l.id, l.kind == LinkExam
}

// Attachment is a stored file tied to a patient, optionally linked to a
// single visit or exam. The record lives in the database; the bytes live
// in the blob store under StorageKey.
type Attachment struct {
	ID          uuid.UUID  `json:"id"`
	PatientID   uuid.UUID  `json:"patientId"`
	Link        LinkTarget `json:"-"`
	Type        string     `json:"type"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	StorageKey  string     `json:"-"`
	Filename    string     `json:"filename"`
	UploadedBy  *uuid.UUID `json:"uploadedBy,omitempty"`
	UploadedAt  time.Time  `json:"uploadedAt"`
}

func (a *Attachment) Validate() error {
	if a.PatientID == uuid.Nil {
		return fault.InvalidInputf("patientId is required")
	}
	accepted, ok := allowedContentTypes[a.Type]
	if !ok {
		return fault.InvalidInputf("unknown attachment type %q", a.Type)
	}
	for _, ct := range accepted {
		if a.ContentType == ct {
			return nil
		}
	}
	return fault.InvalidInputf("content type %q is not accepted for %s attachments", a.ContentType, a.Type)
}

// MarshalJSON flattens the link back into the wire shape.
func (a *Attachment) MarshalJSON() ([]byte, error) {
	type alias Attachment
	out := struct {
		*alias
		VisitID *uuid.UUID `json:"visitId,omitempty"`
		ExamID  *uuid.UUID `json:"examId,omitempty"`
	}{alias: (*alias)(a)}
	if id, ok := a.Link.VisitID(); ok {
		out.VisitID = &id
	}
	if id, ok := a.Link.ExamID(); ok {
		out.ExamID = &id
	}
	return json.Marshal(out)
}

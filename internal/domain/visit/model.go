package visit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/pkg/fault"
)

// Visit maps to the visit table. One row per consultation. Vitals is
// free-form structured JSON captured chair-side.
type Visit struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	PatientID       uuid.UUID       `db:"patient_id" json:"patient_id"`
	VisitedAt       time.Time       `db:"visited_at" json:"visited_at"`
	Reason          *string         `db:"reason" json:"reason,omitempty"`
	Vitals          json.RawMessage `db:"vitals" json:"vitals,omitempty"`
	ExamNotes       *string         `db:"exam_notes" json:"exam_notes,omitempty"`
	Diagnoses       *string         `db:"diagnoses" json:"diagnoses,omitempty"`
	Procedures      *string         `db:"procedures" json:"procedures,omitempty"`
	Recommendations *string         `db:"recommendations" json:"recommendations,omitempty"`
	CreatedBy       *uuid.UUID      `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

func (v *Visit) Validate() error {
	if v.PatientID == uuid.Nil {
		return fault.InvalidInputf("patient_id is required")
	}
	if len(v.Vitals) > 0 && !json.Valid(v.Vitals) {
		return fault.InvalidInputf("vitals is not valid JSON")
	}
	return nil
}

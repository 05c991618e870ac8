package exam

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/pkg/fault"
)

// Exam statuses. A final exam is immutable.
const (
	StatusDraft = "draft"
	StatusFinal = "final"
)

// Exam maps to the exam table. TemplateVersion is captured at creation and
// never changes, so the exam's results stay interpretable against the
// schema that produced them even after the template is revised.
type Exam struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	PatientID       uuid.UUID       `db:"patient_id" json:"patient_id"`
	VisitID         *uuid.UUID      `db:"visit_id" json:"visit_id,omitempty"`
	TemplateID      uuid.UUID       `db:"template_id" json:"template_id"`
	TemplateVersion int             `db:"template_version" json:"template_version"`
	PerformedAt     time.Time       `db:"performed_at" json:"performed_at"`
	PerformedBy     *uuid.UUID      `db:"performed_by" json:"performed_by,omitempty"`
	Vitals          json.RawMessage `db:"vitals" json:"vitals,omitempty"`
	Results         json.RawMessage `db:"results" json:"results"`
	Status          string          `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

func (e *Exam) Validate() error {
	if e.PatientID == uuid.Nil {
		return fault.InvalidInputf("patient_id is required")
	}
	if e.TemplateID == uuid.Nil {
		return fault.InvalidInputf("template_id is required")
	}
	if len(e.Results) == 0 {
		return fault.InvalidInputf("results is required")
	}
	if !json.Valid(e.Results) {
		return fault.InvalidInputf("results is not valid JSON")
	}
	if len(e.Vitals) > 0 && !json.Valid(e.Vitals) {
		return fault.InvalidInputf("vitals is not valid JSON")
	}
	return nil
}

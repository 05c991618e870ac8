package medication

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/pkg/fault"
)

// Frequency is free-form clinical text. The scheduler understands the codes
// below; anything else is stored as written and simply gets no next dose.
const (
	FrequencySID = "SID" // once daily
	FrequencyBID = "BID" // twice daily
	FrequencyTID = "TID" // three times daily
)

// Medication is an active or historical prescription for a patient.
type Medication struct {
	ID                 uuid.UUID  `json:"id"`
	PatientID          uuid.UUID  `json:"patientId"`
	Name               string     `json:"name"`
	Dosage             *string    `json:"dosage,omitempty"`
	Route              *string    `json:"route,omitempty"`
	Frequency          *string    `json:"frequency,omitempty"`
	StartDate          *time.Time `json:"startDate,omitempty"`
	EndDate            *time.Time `json:"endDate,omitempty"`
	LastAdministeredAt *time.Time `json:"lastAdministeredAt,omitempty"`
	NextDueAt          *time.Time `json:"nextDueAt,omitempty"`
	CreatedBy          *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// IsActive reports whether the course is running at the given instant.
func (m *Medication) IsActive(at time.Time) bool {
	if m.StartDate != nil && at.Before(*m.StartDate) {
		return false
	}
	if m.EndDate != nil && at.After(*m.EndDate) {
		return false
	}
	return true
}

func (m *Medication) Validate() error {
	if m.PatientID == uuid.Nil {
		return fault.InvalidInputf("patientId is required")
	}
	if m.Name == "" {
		return fault.InvalidInputf("name is required")
	}
	if m.StartDate != nil && m.EndDate != nil && m.EndDate.Before(*m.StartDate) {
		return fault.InvalidInputf("endDate must not precede startDate")
	}
	return nil
}

// MarshalJSON adds the derived active flag without storing it.
func (m *Medication) MarshalJSON() ([]byte, error) {
	type alias Medication
	return json.Marshal(struct {
		*alias
		Active bool `json:"active"`
	}{(*alias)(m), m.IsActive(time.Now().UTC())})
}

// DoseEvent records one administration of a medication. Events are
// append-only; they are never updated or deleted.
type DoseEvent struct {
	ID             uuid.UUID  `json:"id"`
	MedicationID   uuid.UUID  `json:"medicationId"`
	AdministeredAt time.Time  `json:"administeredAt"`
	Amount         *string    `json:"amount,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	RecordedBy     *uuid.UUID `json:"recordedBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func (d *DoseEvent) Validate() error {
	if d.MedicationID == uuid.Nil {
		return fault.InvalidInputf("medicationId is required")
	}
	if d.AdministeredAt.IsZero() {
		return fault.InvalidInputf("administeredAt is required")
	}
	return nil
}

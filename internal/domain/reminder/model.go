package reminder

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/pkg/fault"
)

// Reminder statuses. Done and dismissed are terminal.
const (
	StatusPending   = "pending"
	StatusDone      = "done"
	StatusDismissed = "dismissed"
)

// Reminder is a dated follow-up for a patient: a vaccination booster,
// a recheck, a medication refill.
type Reminder struct {
	ID        uuid.UUID  `json:"id"`
	PatientID uuid.UUID  `json:"patientId"`
	Title     string     `json:"title"`
	Note      *string    `json:"note,omitempty"`
	DueAt     time.Time  `json:"dueAt"`
	Status    string     `json:"status"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IsOverdue is computed at read time and never stored.
func (r *Reminder) IsOverdue(now time.Time) bool {
	return r.Status == StatusPending && r.DueAt.Before(now)
}

func (r *Reminder) Validate() error {
	if r.PatientID == uuid.Nil {
		return fault.InvalidInputf("patientId is required")
	}
	if r.Title == "" {
		return fault.InvalidInputf("title is required")
	}
	if r.DueAt.IsZero() {
		return fault.InvalidInputf("dueAt is required")
	}
	switch r.Status {
	case "", StatusPending, StatusDone, StatusDismissed:
	default:
		return fault.InvalidInputf("unknown status %q", r.Status)
	}
	return nil
}

// MarshalJSON adds the derived overdue flag.
func (r *Reminder) MarshalJSON() ([]byte, error) {
	type alias Reminder
	return json.Marshal(struct {
		*alias
		Overdue bool `json:"overdue"`
	}{(*alias)(r), r.IsOverdue(time.Now().UTC())})
}

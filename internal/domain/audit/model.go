package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the audit trail.
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionFinalize = "finalize"
	ActionStatus   = "status-change"
	ActionDose     = "record-dose"
	ActionUpload   = "upload"
)

// Entity types referenced by audit records.
const (
	EntityOwner        = "owner"
	EntityPatient      = "patient"
	EntityVisit        = "visit"
	EntityExamTemplate = "exam_template"
	EntityExam         = "exam"
	EntityMedication   = "medication"
	EntityReminder     = "reminder"
	EntityAttachment   = "attachment"
)

// Actor identifies who performed a mutation. UserID is nil for anonymous
// or system-initiated changes.
type Actor struct {
	UserID  *uuid.UUID
	Display string
	IP      *string
}

// Log is one immutable audit record. Diff holds the JSON change snapshot
// produced at mutation time; records are never updated or deleted.
type Log struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ActorUserID  *uuid.UUID `db:"actor_user_id" json:"actor_user_id,omitempty"`
	ActorDisplay string     `db:"actor_display" json:"actor_display,omitempty"`
	EntityType   string     `db:"entity_type" json:"entity_type"`
	EntityID     uuid.UUID  `db:"entity_id" json:"entity_id"`
	Action       string     `db:"action" json:"action"`
	Diff         []byte     `db:"diff" json:"diff"`
	OriginIP     *string    `db:"origin_ip" json:"origin_ip,omitempty"`
	OccurredAt   time.Time  `db:"occurred_at" json:"occurred_at"`
}

package examtemplate

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/pkg/fault"
)

// Template maps to the exam_template table. A template is never edited in
// place once exams reference it: revisions create a new row with the same
// name and a bumped version, and retirement only flips IsActive.
type Template struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Version     int             `db:"version" json:"version"`
	Description *string         `db:"description" json:"description,omitempty"`
	Fields      json.RawMessage `db:"fields" json:"fields"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedBy   *uuid.UUID      `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fault.InvalidInputf("name is required")
	}
	if t.Version < 1 {
		return fault.InvalidInputf("version must be >= 1")
	}
	if len(t.Fields) == 0 {
		return fault.InvalidInputf("fields is required")
	}
	if !json.Valid(t.Fields) {
		return fault.InvalidInputf("fields is not valid JSON")
	}
	return nil
}

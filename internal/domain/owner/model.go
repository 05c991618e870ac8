package owner

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/pkg/fault"
)

// Owner maps to the owner table.
type Owner struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)
	phoneRe = regexp.MustCompile(`^[0-9+()\-\s]{5,20}$`)
)

// Validate checks required fields and contact formats.
func (o *Owner) Validate() error {
	if strings.TrimSpace(o.FirstName) == "" {
		return fault.InvalidInputf("first_name is required")
	}
	if strings.TrimSpace(o.LastName) == "" {
		return fault.InvalidInputf("last_name is required")
	}
	if o.Email != nil && *o.Email != "" && !emailRe.MatchString(*o.Email) {
		return fault.InvalidInputf("invalid email: %s", *o.Email)
	}
	if o.Phone != nil && *o.Phone != "" && !phoneRe.MatchString(*o.Phone) {
		return fault.InvalidInputf("invalid phone: %s", *o.Phone)
	}
	return nil
}

package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vettrack/vettrack/pkg/fault"
)

// Patient maps to the patient table.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	OwnerID     uuid.UUID  `db:"owner_id" json:"owner_id"`
	Name        string     `db:"name" json:"name"`
	Species     string     `db:"species" json:"species"`
	Breed       *string    `db:"breed" json:"breed,omitempty"`
	Sex         *string    `db:"sex" json:"sex,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Color       *string    `db:"color" json:"color,omitempty"`
	MicrochipID *string    `db:"microchip_id" json:"microchip_id,omitempty"`
	Allergies   *string    `db:"allergies" json:"allergies,omitempty"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

var validSexes = map[string]bool{
	"male":          true,
	"female":        true,
	"male_neutered": true,
	"female_spayed": true,
	"unknown":       true,
}

func (p *Patient) Validate() error {
	if p.OwnerID == uuid.Nil {
		return fault.InvalidInputf("owner_id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fault.InvalidInputf("name is required")
	}
	if strings.TrimSpace(p.Species) == "" {
		return fault.InvalidInputf("species is required")
	}
	if p.Sex != nil && !validSexes[*p.Sex] {
		return fault.InvalidInputf("invalid sex: %s", *p.Sex)
	}
	if p.DateOfBirth != nil && p.DateOfBirth.After(time.Now()) {
		return fault.InvalidInputf("date_of_birth cannot be in the future")
	}
	return nil
}

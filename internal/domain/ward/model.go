package ward

import (
	"strings"
	"time"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

type Type string

const (
	TypeGeneral     Type = "general"
	TypeSemiPrivate Type = "semi-private"
	TypePrivate     Type = "private"
	TypeICU         Type = "icu"
)

func (t Type) Valid() bool {
	switch t {
	case TypeGeneral, TypeSemiPrivate, TypePrivate, TypeICU:
		return true
	}
	return false
}

type GenderRestriction string

const (
	RestrictMale   GenderRestriction = "male"
	RestrictFemale GenderRestriction = "female"
	RestrictMixed  GenderRestriction = "mixed"
)

func (g GenderRestriction) Valid() bool {
	return g == RestrictMale || g == RestrictFemale || g == RestrictMixed
}

// Admits reports whether a patient of the given gender may occupy a bed in
// a ward with this restriction. Patients without a recorded gender are
// admitted anywhere.
func (g GenderRestriction) Admits(gender string) bool {
	if g == RestrictMixed || (gender != string(RestrictMale) && gender != string(RestrictFemale)) {
		return true
	}
	return string(g) == gender
}

const maxBedsPerWard = 500

type Ward struct {
	ID                int64             `json:"id"`
	DepartmentID      int64             `json:"department_id"`
	Name              string            `json:"name"`
	Type              Type              `json:"type"`
	GenderRestriction GenderRestriction `json:"gender_restriction"`
	BedCount          int               `json:"bed_count"`
	// FirstBedNumber numbers the created beds; defaults to 1.
	FirstBedNumber int       `json:"first_bed_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (w *Ward) Validate() error {
	w.Name = strings.TrimSpace(w.Name)
	if w.DepartmentID <= 0 {
		return apperr.Validation("department_id is required")
	}
	if w.Name == "" {
		return apperr.Validation("ward name is required")
	}
	if !w.Type.Valid() {
		return apperr.Validation("invalid ward type %q", w.Type)
	}
	if w.GenderRestriction == "" {
		w.GenderRestriction = RestrictMixed
	}
	if !w.GenderRestriction.Valid() {
		return apperr.Validation("invalid gender restriction %q", w.GenderRestriction)
	}
	if w.BedCount < 0 || w.BedCount > maxBedsPerWard {
		return apperr.Validation("bed_count must be between 0 and %d", maxBedsPerWard)
	}
	if w.FirstBedNumber == 0 {
		w.FirstBedNumber = 1
	}
	if w.FirstBedNumber < 0 {
		return apperr.Validation("first_bed_number must be positive")
	}
	return nil
}

// Summary is a ward with its current bed availability.
type Summary struct {
	Ward
	TotalBeds int `json:"total_beds"`
	FreeBeds  int `json:"free_beds"`
}

type Bed struct {
	ID         int64 `json:"id"`
	WardID     int64 `json:"ward_id"`
	BedNumber  int   `json:"bed_number"`
	IsOccupied bool  `json:"is_occupied"`
}

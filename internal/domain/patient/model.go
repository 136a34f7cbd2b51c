package patient

import (
	"strings"
	"time"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderUnspecified Gender = "unspecified"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderUnspecified:
		return true
	}
	return false
}

const MaxAge = 150

// Patient is a person known to the hospital, keyed by a generated id.
// Contact numbers are not unique: families often share one phone.
type Patient struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ContactNumber string    `json:"contact_number"`
	Age           int       `json:"age"`
	Gender        Gender    `json:"gender"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateRequest carries the fields needed to register a patient. Age is a
// pointer so that an explicit 0 (newborn) differs from "not given".
type CreateRequest struct {
	Name          string `json:"name"`
	ContactNumber string `json:"contact_number"`
	Age           *int   `json:"age"`
	Gender        Gender `json:"gender"`
	Address       string `json:"address"`
}

func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.ContactNumber = strings.TrimSpace(r.ContactNumber)
	r.Address = strings.TrimSpace(r.Address)
	r.Gender = Gender(strings.ToLower(strings.TrimSpace(string(r.Gender))))
}

func (r *CreateRequest) Validate() error {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.ContactNumber == "" {
		missing = append(missing, "contact_number")
	}
	if r.Age == nil {
		missing = append(missing, "age")
	}
	if r.Gender == "" {
		missing = append(missing, "gender")
	}
	if r.Address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	if err := validateAge(*r.Age); err != nil {
		return err
	}
	if !r.Gender.Valid() {
		return apperr.Validation("invalid gender %q", r.Gender)
	}
	if !validContact(r.ContactNumber) {
		return apperr.Validation("contact_number must be 6 to 15 digits")
	}
	return nil
}

func (r *CreateRequest) Patient() *Patient {
	return &Patient{
		Name:          r.Name,
		ContactNumber: r.ContactNumber,
		Age:           *r.Age,
		Gender:        r.Gender,
		Address:       r.Address,
	}
}

// UpdateRequest is a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	Name          *string `json:"name"`
	ContactNumber *string `json:"contact_number"`
	Age           *int    `json:"age"`
	Gender        *Gender `json:"gender"`
	Address       *string `json:"address"`
}

// ApplyTo validates the request and copies set fields onto p.
func (r *UpdateRequest) ApplyTo(p *Patient) error {
	if r.Name != nil {
		v := strings.TrimSpace(*r.Name)
		if v == "" {
			return apperr.Validation("name must not be empty")
		}
		p.Name = v
	}
	if r.ContactNumber != nil {
		v := strings.TrimSpace(*r.ContactNumber)
		if !validContact(v) {
			return apperr.Validation("contact_number must be 6 to 15 digits")
		}
		p.ContactNumber = v
	}
	if r.Age != nil {
		if err := validateAge(*r.Age); err != nil {
			return err
		}
		p.Age = *r.Age
	}
	if r.Gender != nil {
		if !r.Gender.Valid() {
			return apperr.Validation("invalid gender %q", *r.Gender)
		}
		p.Gender = *r.Gender
	}
	if r.Address != nil {
		v := strings.TrimSpace(*r.Address)
		if v == "" {
			return apperr.Validation("address must not be empty")
		}
		p.Address = v
	}
	return nil
}

func validateAge(age int) error {
	if age < 0 || age > MaxAge {
		return apperr.Validation("age must be between 0 and %d", MaxAge)
	}
	return nil
}

func validContact(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if len(s) < 6 || len(s) > 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package department

import (
	"strings"
	"time"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

type Type string

const (
	TypeGeneral    Type = "general"
	TypeSpecialty  Type = "specialty"
	TypeEmergency  Type = "emergency"
	TypeDiagnostic Type = "diagnostic"
)

func (t Type) Valid() bool {
	switch t {
	case TypeGeneral, TypeSpecialty, TypeEmergency, TypeDiagnostic:
		return true
	}
	return false
}

type Department struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        Type      `json:"type"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d *Department) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return apperr.Validation("department name is required")
	}
	d.Type = Type(strings.ToLower(strings.TrimSpace(string(d.Type))))
	if !d.Type.Valid() {
		return apperr.Validation("invalid department type %q", d.Type)
	}
	return nil
}

package inpatient

import (
	"strings"
	"time"

	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/patient"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	defaultAdmissionTime = "00:00"
)

// Attender is the guardian or companion staying with the patient. An
// attender may occupy a bed of their own.
type Attender struct {
	Name          *string `json:"name"`
	Relationship  *string `json:"relationship"`
	ContactNumber *string `json:"contact_number"`
	Address       *string `json:"address"`
	WardID        *int64  `json:"ward_id"`
	BedID         *int64  `json:"bed_id"`
}

// Stay is one inpatient admission. It is active until DischargeDate is set.
type Stay struct {
	ID                int64     `json:"id"`
	PatientID         int64     `json:"patient_id"`
	OutpatientVisitID *int64    `json:"outpatient_visit_id"`
	WardID            int64     `json:"ward_id"`
	BedID             int64     `json:"bed_id"`
	AadhaarNumber     *string   `json:"aadhaar_number"`
	AdmissionDate     string    `json:"admission_date"`
	AdmissionTime     string    `json:"admission_time"`
	DischargeDate     *string   `json:"discharge_date"`
	Attender          Attender  `json:"attender"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (s *Stay) Active() bool { return s.DischargeDate == nil }

// Listing is a stay joined with the patient's demographics.
type Listing struct {
	Stay
	PatientName   string `json:"patient_name"`
	PatientAge    int    `json:"patient_age"`
	PatientGender string `json:"patient_gender"`
}

// AdmitRequest admits the patient of an outpatient visit (OutpatientID)
// or a walk-in described by the demographic fields.
type AdmitRequest struct {
	OutpatientID  *int64   `json:"outpatient_id"`
	Name          string   `json:"name"`
	ContactNumber string   `json:"contact_number"`
	Age           *int     `json:"age"`
	Address       string   `json:"address"`
	WardID        int64    `json:"ward_id"`
	BedID         int64    `json:"bed_id"`
	AadhaarNumber string   `json:"aadhaar_number"`
	AdmissionDate string   `json:"admission_date"`
	AdmissionTime string   `json:"admission_time"`
	Attender      Attender `json:"attender"`
}

// Validate checks everything that can be checked without the store and
// returns the walk-in patient to create, if any.
func (r *AdmitRequest) Validate() (*patient.CreateRequest, error) {
	var missing []string
	if r.WardID <= 0 {
		missing = append(missing, "ward_id")
	}
	if strings.TrimSpace(r.AdmissionDate) == "" {
		missing = append(missing, "admission_date")
	}
	if r.BedID <= 0 {
		missing = append(missing, "bed_id")
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}

	var err error
	if r.AdmissionDate, err = parseDate(r.AdmissionDate, "admission_date"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(r.AdmissionTime) == "" {
		r.AdmissionTime = defaultAdmissionTime
	} else if r.AdmissionTime, err = parseTime(r.AdmissionTime, "admission_time"); err != nil {
		return nil, err
	}
	r.AadhaarNumber = strings.TrimSpace(r.AadhaarNumber)
	if r.AadhaarNumber != "" && !validAadhaar(r.AadhaarNumber) {
		return nil, apperr.Validation("aadhaar_number must be 12 digits")
	}
	if err := r.validateAttenderBed(); err != nil {
		return nil, err
	}

	if r.OutpatientID != nil {
		if *r.OutpatientID <= 0 {
			return nil, apperr.Validation("invalid outpatient_id %d", *r.OutpatientID)
		}
		return nil, nil
	}

	var walkIn []string
	if strings.TrimSpace(r.Name) == "" {
		walkIn = append(walkIn, "name")
	}
	if strings.TrimSpace(r.ContactNumber) == "" {
		walkIn = append(walkIn, "contact_number")
	}
	if r.Age == nil {
		walkIn = append(walkIn, "age")
	}
	if strings.TrimSpace(r.Address) == "" {
		walkIn = append(walkIn, "address")
	}
	if len(walkIn) > 0 {
		return nil, apperr.Validation("missing required fields for a new patient: %s", strings.Join(walkIn, ", "))
	}
	pr := &patient.CreateRequest{
		Name:          r.Name,
		ContactNumber: r.ContactNumber,
		Age:           r.Age,
		Gender:        patient.GenderUnspecified,
		Address:       r.Address,
	}
	pr.Normalize()
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	return pr, nil
}

func (r *AdmitRequest) validateAttenderBed() error {
	a := r.Attender
	if a.BedID == nil {
		if a.WardID != nil {
			return apperr.Validation("attender ward_id given without bed_id")
		}
		return nil
	}
	if a.WardID == nil || *a.WardID <= 0 || *a.BedID <= 0 {
		return apperr.Validation("attender bed requires ward_id and bed_id")
	}
	if *a.BedID == r.BedID {
		return apperr.Validation("attender cannot take the patient's bed")
	}
	return nil
}

func (r *AdmitRequest) Stay() *Stay {
	s := &Stay{
		OutpatientVisitID: r.OutpatientID,
		WardID:            r.WardID,
		BedID:             r.BedID,
		AdmissionDate:     r.AdmissionDate,
		AdmissionTime:     r.AdmissionTime,
		Attender:          trimAttender(r.Attender),
	}
	if r.AadhaarNumber != "" {
		v := r.AadhaarNumber
		s.AadhaarNumber = &v
	}
	return s
}

// UpdateRequest changes identity, admission and attender details. Ward and
// bed are changed with a transfer.
type UpdateRequest struct {
	AadhaarNumber         *string `json:"aadhaar_number"`
	AdmissionDate         *string `json:"admission_date"`
	AdmissionTime         *string `json:"admission_time"`
	AttenderName          *string `json:"attender_name"`
	AttenderRelationship  *string `json:"attender_relationship"`
	AttenderContactNumber *string `json:"attender_contact_number"`
	AttenderAddress       *string `json:"attender_address"`
}

func (r *UpdateRequest) ApplyTo(s *Stay) error {
	if r.AadhaarNumber != nil {
		v := strings.TrimSpace(*r.AadhaarNumber)
		if v != "" && !validAadhaar(v) {
			return apperr.Validation("aadhaar_number must be 12 digits")
		}
		s.AadhaarNumber = emptyToNil(v)
	}
	if r.AdmissionDate != nil {
		d, err := parseDate(*r.AdmissionDate, "admission_date")
		if err != nil {
			return err
		}
		if s.DischargeDate != nil && d > *s.DischargeDate {
			return apperr.Validation("admission_date cannot be after discharge_date")
		}
		s.AdmissionDate = d
	}
	if r.AdmissionTime != nil {
		t, err := parseTime(*r.AdmissionTime, "admission_time")
		if err != nil {
			return err
		}
		s.AdmissionTime = t
	}
	if r.AttenderName != nil {
		s.Attender.Name = emptyToNil(*r.AttenderName)
	}
	if r.AttenderRelationship != nil {
		s.Attender.Relationship = emptyToNil(*r.AttenderRelationship)
	}
	if r.AttenderContactNumber != nil {
		s.Attender.ContactNumber = emptyToNil(*r.AttenderContactNumber)
	}
	if r.AttenderAddress != nil {
		s.Attender.Address = emptyToNil(*r.AttenderAddress)
	}
	return nil
}

type DischargeRequest struct {
	DischargeDate string `json:"discharge_date"`
}

type TransferRequest struct {
	WardID int64 `json:"ward_id"`
	BedID  int64 `json:"bed_id"`
}

func parseDate(s, field string) (string, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", apperr.Validation("%s must be YYYY-MM-DD, got %q", field, s)
	}
	return d.Format(DateLayout), nil
}

func parseTime(s, field string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return "", apperr.Validation("%s must be HH:MM, got %q", field, s)
}

func validAadhaar(s string) bool {
	if len(s) != 12 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func trimAttender(a Attender) Attender {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		return emptyToNil(*p)
	}
	a.Name = trim(a.Name)
	a.Relationship = trim(a.Relationship)
	a.ContactNumber = trim(a.ContactNumber)
	a.Address = trim(a.Address)
	return a
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

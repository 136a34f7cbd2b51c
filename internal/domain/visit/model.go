package visit

import (
	"strconv"
	"strings"
	"time"

	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/patient"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Stage is where a visit is in the outpatient flow.
type Stage string

const (
	StageRegistered Stage = "registered"
	StageScreened   Stage = "screened"
	StageTreated    Stage = "treated"
)

// Visit is one outpatient encounter. Department and complaint are set at
// screening, diagnosis at treatment.
type Visit struct {
	ID                 int64     `json:"id"`
	PatientID          int64     `json:"patient_id"`
	VisitDate          string    `json:"visit_date"`
	VisitTime          string    `json:"visit_time"`
	CauseOfVisit       *string   `json:"cause_of_visit"`
	AssignedDepartment *int64    `json:"assigned_department"`
	Diagnosis          *string   `json:"diagnosis"`
	MedicineDispensed  bool      `json:"medicine_dispensed"`
	Stage              Stage     `json:"stage"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (v *Visit) stage() Stage {
	switch {
	case v.Diagnosis != nil || v.MedicineDispensed:
		return StageTreated
	case v.AssignedDepartment != nil:
		return StageScreened
	default:
		return StageRegistered
	}
}

// RegisterRequest registers a visit for a returning patient (OutpatientID
// set) or for a new one described by the demographic fields.
type RegisterRequest struct {
	OutpatientID *int64 `json:"outpatient_id"`
	Name         string `json:"name"`
	Number       string `json:"number"`
	Age          *int   `json:"age"`
	Place        string `json:"place"`
	Gender       string `json:"gender"`
	VisitDate    string `json:"visit_date"`
	VisitTime    string `json:"visit_time"`
}

// Validate checks the request and normalises date and time. It returns the
// patient to create, or nil when an existing patient is referenced.
func (r *RegisterRequest) Validate() (*patient.CreateRequest, error) {
	date, err := normalizeDate(r.VisitDate)
	if err != nil {
		return nil, err
	}
	clock, err := normalizeTime(r.VisitTime)
	if err != nil {
		return nil, err
	}
	r.VisitDate, r.VisitTime = date, clock

	if r.OutpatientID != nil {
		if *r.OutpatientID <= 0 {
			return nil, apperr.Validation("invalid outpatient_id %d", *r.OutpatientID)
		}
		return nil, nil
	}

	pr := &patient.CreateRequest{
		Name:          r.Name,
		ContactNumber: r.Number,
		Age:           r.Age,
		Gender:        patient.Gender(r.Gender),
		Address:       r.Place,
	}
	pr.Normalize()
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	return pr, nil
}

func normalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("visit_date is required")
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", apperr.Validation("visit_date must be YYYY-MM-DD, got %q", s)
	}
	return d.Format(DateLayout), nil
}

// normalizeTime accepts HH:MM or HH:MM:SS and keeps minute precision.
func normalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("visit_time is required")
	}
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return "", apperr.Validation("visit_time must be HH:MM, got %q", s)
}

// AssignRequest is the screening step.
type AssignRequest struct {
	VisitID            int64  `json:"visit_id"`
	AssignedDepartment int64  `json:"assigned_department"`
	CauseOfVisit       string `json:"cause_of_visit"`
}

func (r *AssignRequest) Validate() error {
	r.CauseOfVisit = strings.TrimSpace(r.CauseOfVisit)
	if r.VisitID <= 0 {
		return apperr.Validation("visit_id is required")
	}
	if r.AssignedDepartment <= 0 {
		return apperr.Validation("assigned_department is required")
	}
	return nil
}

type DiagnosisRequest struct {
	Diagnosis string `json:"diagnosis"`
}

// Placeholders shown in the department queue when a joined value is absent.
const (
	NoName       = "No name provided"
	NoAge        = "Age not specified"
	NoGender     = "Gender not specified"
	NoDepartment = "Department not assigned"
	NoComplaint  = "No complaint recorded"
)

// QueueRow is a visit joined with its patient and department. Joined
// columns are nullable.
type QueueRow struct {
	VisitID           int64
	PatientID         int64
	VisitDate         string
	VisitTime         string
	PatientName       *string
	PatientAge        *int
	PatientGender     *string
	DepartmentName    *string
	CauseOfVisit      *string
	Diagnosis         *string
	MedicineDispensed bool
}

// Summary is the display form of a QueueRow.
type Summary struct {
	VisitID           int64   `json:"visit_id"`
	PatientID         int64   `json:"patient_id"`
	Name              string  `json:"name"`
	Age               string  `json:"age"`
	Gender            string  `json:"gender"`
	Department        string  `json:"department"`
	CauseOfVisit      string  `json:"cause_of_visit"`
	VisitDate         string  `json:"visit_date"`
	VisitTime         string  `json:"visit_time"`
	Diagnosis         *string `json:"diagnosis"`
	MedicineDispensed bool    `json:"medicine_dispensed"`
}

func (q *QueueRow) Summary() *Summary {
	s := &Summary{
		VisitID:           q.VisitID,
		PatientID:         q.PatientID,
		Name:              orDefault(q.PatientName, NoName),
		Age:               NoAge,
		Gender:            orDefault(q.PatientGender, NoGender),
		Department:        orDefault(q.DepartmentName, NoDepartment),
		CauseOfVisit:      orDefault(q.CauseOfVisit, NoComplaint),
		VisitDate:         q.VisitDate,
		VisitTime:         q.VisitTime,
		Diagnosis:         q.Diagnosis,
		MedicineDispensed: q.MedicineDispensed,
	}
	if q.PatientAge != nil {
		s.Age = strconv.Itoa(*q.PatientAge)
	}
	return s
}

func orDefault(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}

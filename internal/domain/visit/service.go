package visit

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/patient"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

// PatientDirectory is the part of the patient service registration needs.
type PatientDirectory interface {
	Create(ctx context.Context, req patient.CreateRequest) (*patient.Patient, error)
	GetByID(ctx context.Context, id int64) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	tx       db.TxRunner
	now      func() time.Time
	loc      *time.Location
	logger   zerolog.Logger
}

// NewService builds the visit service. "Today" is the calendar day of
// now() in loc.
func NewService(repo Repository, patients PatientDirectory, tx db.TxRunner, now func() time.Time, loc *time.Location, logger zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		patients: patients,
		tx:       tx,
		now:      now,
		loc:      loc,
		logger:   logger.With().Str("component", "visit").Logger(),
	}
}

// Today returns the hospital's current date as YYYY-MM-DD.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// Register records a visit, creating the patient first when the request
// does not reference one. Both writes commit together.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Visit, error) {
	newPatient, err := req.Validate()
	if err != nil {
		return nil, err
	}

	v := &Visit{VisitDate: req.VisitDate, VisitTime: req.VisitTime}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if newPatient != nil {
			p, err := s.patients.Create(ctx, *newPatient)
			if err != nil {
				return err
			}
			v.PatientID = p.ID
		} else {
			p, err := s.patients.GetByID(ctx, *req.OutpatientID)
			if err != nil {
				return err
			}
			v.PatientID = p.ID
		}
		return s.repo.Create(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Int64("visit_id", v.ID).
		Int64("patient_id", v.PatientID).
		Bool("new_patient", newPatient != nil).
		Msg("outpatient visit registered")
	return v, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Visit, error) {
	if id <= 0 {
		return nil, apperr.Validation("visit id is required")
	}
	return s.repo.Get(ctx, id)
}

// Delete is an administrative override; visits are not deleted in the
// normal flow.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Validation("visit id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Warn().Int64("visit_id", id).Msg("outpatient visit deleted")
	return nil
}

// ListPendingToday is the screening queue: today's visits not yet
// diagnosed and without dispensed medicine.
func (s *Service) ListPendingToday(ctx context.Context) ([]*Visit, error) {
	return s.repo.ListPending(ctx, s.Today())
}

func (s *Service) AssignDepartment(ctx context.Context, req AssignRequest) (*Visit, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	v, err := s.repo.AssignDepartment(ctx, req.VisitID, req.AssignedDepartment, req.CauseOfVisit)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("visit_id", v.ID).Int64("department_id", req.AssignedDepartment).Msg("visit screened")
	return v, nil
}

// ListByDepartmentToday returns today's visits screened into departmentID,
// with placeholders for missing patient or department details.
func (s *Service) ListByDepartmentToday(ctx context.Context, departmentID int64) ([]*Summary, error) {
	if departmentID <= 0 {
		return nil, apperr.Validation("department_id is required")
	}
	rows, err := s.repo.ListByDepartment(ctx, departmentID, s.Today())
	if err != nil {
		return nil, err
	}
	out := make([]*Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Summary())
	}
	return out, nil
}

func (s *Service) RecordDiagnosis(ctx context.Context, id int64, diagnosis string) (*Visit, error) {
	if id <= 0 {
		return nil, apperr.Validation("visit id is required")
	}
	diagnosis = strings.TrimSpace(diagnosis)
	if diagnosis == "" {
		return nil, apperr.Validation("diagnosis is required")
	}
	return s.repo.RecordDiagnosis(ctx, id, diagnosis)
}

// MarkMedicineDispensed is called by the pharmacy once every line of the
// visit's prescription has been dispensed.
func (s *Service) MarkMedicineDispensed(ctx context.Context, id int64) error {
	return s.repo.SetMedicineDispensed(ctx, id, true)
}

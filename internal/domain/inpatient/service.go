package inpatient

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/patient"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/visit"
	"github.com/zealousMW/hospital-management-system-sub000/internal/domain/ward"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

type PatientDirectory interface {
	Create(ctx context.Context, req patient.CreateRequest) (*patient.Patient, error)
	GetByID(ctx context.Context, id int64) (*patient.Patient, error)
}

type VisitLookup interface {
	Get(ctx context.Context, id int64) (*visit.Visit, error)
}

// BedAllocator is the ward service as seen by admissions.
type BedAllocator interface {
	GetWard(ctx context.Context, id int64) (*ward.Ward, error)
	ReserveInWard(ctx context.Context, wardID, bedID int64) (*ward.Bed, error)
	Release(ctx context.Context, bedID int64) (*ward.Bed, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	visits   VisitLookup
	beds     BedAllocator
	tx       db.TxRunner
	now      func() time.Time
	loc      *time.Location
	logger   zerolog.Logger
}

func NewService(repo Repository, patients PatientDirectory, visits VisitLookup, beds BedAllocator,
	tx db.TxRunner, now func() time.Time, loc *time.Location, logger zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		patients: patients,
		visits:   visits,
		beds:     beds,
		tx:       tx,
		now:      now,
		loc:      loc,
		logger:   logger.With().Str("component", "inpatient").Logger(),
	}
}

// Admit creates the stay and reserves its beds. The patient record (for a
// walk-in), the bed reservations and the stay commit together or not at
// all.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Stay, error) {
	walkIn, err := req.Validate()
	if err != nil {
		return nil, err
	}

	stay := req.Stay()
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		w, err := s.beds.GetWard(ctx, req.WardID)
		if err != nil {
			return err
		}

		var p *patient.Patient
		if walkIn != nil {
			if p, err = s.patients.Create(ctx, *walkIn); err != nil {
				return err
			}
		} else {
			if p, err = s.patientOfVisit(ctx, *req.OutpatientID); err != nil {
				return err
			}
			if id, active, err := s.repo.ActiveStayForPatient(ctx, p.ID); err != nil {
				return err
			} else if active {
				return apperr.Conflict("patient %d is already admitted (stay %d)", p.ID, id)
			}
		}
		if !w.GenderRestriction.Admits(string(p.Gender)) {
			return apperr.Validation("ward %d admits %s patients only", w.ID, w.GenderRestriction)
		}
		stay.PatientID = p.ID

		if _, err := s.beds.ReserveInWard(ctx, req.WardID, req.BedID); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, stay); err != nil {
			return err
		}
		if a := stay.Attender; a.BedID != nil {
			if _, err := s.beds.ReserveInWard(ctx, *a.WardID, *a.BedID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("ward_id", req.WardID).Int64("bed_id", req.BedID).Msg("admission refused")
		return nil, err
	}
	s.logger.Info().
		Int64("stay_id", stay.ID).
		Int64("patient_id", stay.PatientID).
		Int64("bed_id", stay.BedID).
		Msg("patient admitted")
	return stay, nil
}

func (s *Service) patientOfVisit(ctx context.Context, visitID int64) (*patient.Patient, error) {
	v, err := s.visits.Get(ctx, visitID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("outpatient visit %d not found", visitID)
		}
		return nil, err
	}
	return s.patients.GetByID(ctx, v.PatientID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Stay, error) {
	if id <= 0 {
		return nil, apperr.Validation("inpatient id is required")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Listing, int, error) {
	return s.repo.List(ctx, activeOnly, limit, offset)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Stay, error) {
	if id <= 0 {
		return nil, apperr.Validation("inpatient id is required")
	}
	var stay *Stay
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if stay, err = s.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if err := req.ApplyTo(stay); err != nil {
			return err
		}
		return s.repo.Update(ctx, stay)
	})
	if err != nil {
		return nil, err
	}
	return stay, nil
}

// Discharge ends the stay and frees the patient's and the attender's beds.
// date defaults to the hospital's current day.
func (s *Service) Discharge(ctx context.Context, id int64, date string) (*Stay, error) {
	if id <= 0 {
		return nil, apperr.Validation("inpatient id is required")
	}
	if strings.TrimSpace(date) == "" {
		date = s.now().In(s.loc).Format(DateLayout)
	} else {
		var err error
		if date, err = parseDate(date, "discharge_date"); err != nil {
			return nil, err
		}
	}

	var stay *Stay
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if stay, err = s.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if !stay.Active() {
			return apperr.Conflict("inpatient stay %d was already discharged on %s", id, *stay.DischargeDate)
		}
		if date < stay.AdmissionDate {
			return apperr.Validation("discharge_date %s is before admission_date %s", date, stay.AdmissionDate)
		}
		stay.DischargeDate = &date
		if err := s.repo.Update(ctx, stay); err != nil {
			return err
		}
		if err := s.releaseBed(ctx, stay.BedID); err != nil {
			return err
		}
		if stay.Attender.BedID != nil {
			return s.releaseBed(ctx, *stay.Attender.BedID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("stay_id", id).Str("discharge_date", date).Msg("patient discharged")
	return stay, nil
}

// Transfer moves an active stay to another bed, possibly in another ward.
func (s *Service) Transfer(ctx context.Context, id int64, req TransferRequest) (*Stay, error) {
	if id <= 0 {
		return nil, apperr.Validation("inpatient id is required")
	}
	if req.WardID <= 0 || req.BedID <= 0 {
		return nil, apperr.Validation("ward_id and bed_id are required")
	}

	var stay *Stay
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if stay, err = s.repo.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if !stay.Active() {
			return apperr.Conflict("inpatient stay %d is discharged", id)
		}
		if stay.BedID == req.BedID {
			return apperr.Validation("patient already occupies bed %d", req.BedID)
		}
		if req.WardID != stay.WardID {
			w, err := s.beds.GetWard(ctx, req.WardID)
			if err != nil {
				return err
			}
			p, err := s.patients.GetByID(ctx, stay.PatientID)
			if err != nil {
				return err
			}
			if !w.GenderRestriction.Admits(string(p.Gender)) {
				return apperr.Validation("ward %d admits %s patients only", w.ID, w.GenderRestriction)
			}
		}
		if _, err := s.beds.ReserveInWard(ctx, req.WardID, req.BedID); err != nil {
			return err
		}
		// the old bed is released only once the stay no longer points at it
		oldBed := stay.BedID
		stay.WardID, stay.BedID = req.WardID, req.BedID
		if err := s.repo.Update(ctx, stay); err != nil {
			return err
		}
		return s.releaseBed(ctx, oldBed)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("stay_id", id).Int64("ward_id", req.WardID).Int64("bed_id", req.BedID).Msg("patient transferred")
	return stay, nil
}

// releaseBed frees bedID after the stay stopped holding it. A bed that is
// already free does not block the caller.
func (s *Service) releaseBed(ctx context.Context, bedID int64) error {
	_, err := s.beds.Release(ctx, bedID)
	if apperr.IsKind(err, apperr.KindConflict) {
		s.logger.Warn().Int64("bed_id", bedID).Msg("bed was already free")
		return nil
	}
	return err
}

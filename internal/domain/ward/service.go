package ward

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

// Metrics receives the outcome of each reserve/release attempt.
type Metrics interface {
	BedOperation(op, result string)
}

type nopMetrics struct{}

func (nopMetrics) BedOperation(string, string) {}

type Service struct {
	repo    Repository
	tx      db.TxRunner
	metrics Metrics
	logger  zerolog.Logger
}

func NewService(repo Repository, tx db.TxRunner, metrics Metrics, logger zerolog.Logger) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		repo:    repo,
		tx:      tx,
		metrics: metrics,
		logger:  logger.With().Str("component", "ward").Logger(),
	}
}

// CreateWard stores the ward and its beds together.
func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	if err := w.Validate(); err != nil {
		return err
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateWard(ctx, w); err != nil {
			return err
		}
		return s.repo.CreateBeds(ctx, w.ID, w.FirstBedNumber, w.BedCount)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("ward_id", w.ID).Int("beds", w.BedCount).Msg("ward created")
	return nil
}

func (s *Service) GetWard(ctx context.Context, id int64) (*Ward, error) {
	if id <= 0 {
		return nil, apperr.Validation("ward id is required")
	}
	return s.repo.GetWard(ctx, id)
}

func (s *Service) ListWardsByDepartment(ctx context.Context, departmentID int64) ([]*Summary, error) {
	if departmentID <= 0 {
		return nil, apperr.Validation("department id is required")
	}
	return s.repo.ListWardsByDepartment(ctx, departmentID)
}

// ListAvailableBeds returns the ward's unoccupied beds ordered by number.
func (s *Service) ListAvailableBeds(ctx context.Context, wardID int64) ([]*Bed, error) {
	if wardID <= 0 {
		return nil, apperr.Validation("ward id is required")
	}
	return s.repo.ListBeds(ctx, wardID, true)
}

func (s *Service) ListBeds(ctx context.Context, wardID int64) ([]*Bed, error) {
	if wardID <= 0 {
		return nil, apperr.Validation("ward id is required")
	}
	return s.repo.ListBeds(ctx, wardID, false)
}

// Reserve marks a free bed occupied. Of several concurrent reservations of
// the same bed exactly one succeeds; the rest get a conflict.
func (s *Service) Reserve(ctx context.Context, bedID int64) (*Bed, error) {
	return s.reserve(ctx, 0, bedID)
}

// ReserveInWard is Reserve with the added condition that the bed belongs
// to wardID.
func (s *Service) ReserveInWard(ctx context.Context, wardID, bedID int64) (*Bed, error) {
	if wardID <= 0 {
		return nil, apperr.Validation("ward id is required")
	}
	return s.reserve(ctx, wardID, bedID)
}

func (s *Service) reserve(ctx context.Context, wardID, bedID int64) (*Bed, error) {
	if bedID <= 0 {
		return nil, apperr.Validation("bed id is required")
	}
	bed, ok, err := s.repo.MarkOccupied(ctx, bedID, wardID)
	if err == nil && !ok {
		err = s.explainReserveMiss(ctx, wardID, bedID)
	}
	if err != nil {
		s.refused("reserve", err)
		return nil, err
	}
	db.AfterCommit(ctx, func() {
		s.metrics.BedOperation("reserve", "ok")
		s.logger.Info().Int64("bed_id", bed.ID).Int64("ward_id", bed.WardID).Msg("bed reserved")
	})
	return bed, nil
}

// explainReserveMiss classifies a reservation that matched no row. The
// decision itself was already made atomically by MarkOccupied.
func (s *Service) explainReserveMiss(ctx context.Context, wardID, bedID int64) error {
	cur, err := s.repo.GetBed(ctx, bedID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.NotFound("bed %d not found", bedID)
		}
		return err
	}
	if wardID != 0 && cur.WardID != wardID {
		return apperr.Validation("bed %d does not belong to ward %d", bedID, wardID)
	}
	return apperr.Conflict("bed %d is already occupied", bedID)
}

// Release frees an occupied bed. A bed still held by an active stay, as
// patient or attender bed, is refused: discharge or transfer frees it.
func (s *Service) Release(ctx context.Context, bedID int64) (*Bed, error) {
	if bedID <= 0 {
		return nil, apperr.Validation("bed id is required")
	}
	bed, ok, err := s.repo.MarkFree(ctx, bedID)
	if err == nil && !ok {
		err = s.explainReleaseMiss(ctx, bedID)
	}
	if err != nil {
		s.refused("release", err)
		return nil, err
	}
	db.AfterCommit(ctx, func() {
		s.metrics.BedOperation("release", "ok")
		s.logger.Info().Int64("bed_id", bed.ID).Msg("bed released")
	})
	return bed, nil
}

func (s *Service) explainReleaseMiss(ctx context.Context, bedID int64) error {
	cur, err := s.repo.GetBed(ctx, bedID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.NotFound("bed %d not found", bedID)
		}
		return err
	}
	if cur.IsOccupied {
		return apperr.Conflict("bed %d is held by an active inpatient stay", bedID)
	}
	return apperr.Conflict("bed %d is not occupied", bedID)
}

func (s *Service) refused(op string, err error) {
	kind := apperr.KindOf(err)
	s.metrics.BedOperation(op, string(kind))
	if kind == apperr.KindConflict {
		s.logger.Warn().Str("op", op).Err(err).Msg("bed operation refused")
	}
}

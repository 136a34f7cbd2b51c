package pharmacy

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

const maxBatch = 100

// VisitMarker flags a visit once all of its medicine has been handed out.
type VisitMarker interface {
	MarkMedicineDispensed(ctx context.Context, visitID int64) error
}

type Metrics interface {
	Dispensation(result string)
	StockLevel(medicineID int64, units float64)
}

type nopMetrics struct{}

func (nopMetrics) Dispensation(string)       {}
func (nopMetrics) StockLevel(int64, float64) {}

type Service struct {
	repo    Repository
	visits  VisitMarker
	tx      db.TxRunner
	policy  DosePolicy
	metrics Metrics
	logger  zerolog.Logger
}

func NewService(repo Repository, visits VisitMarker, tx db.TxRunner, policy DosePolicy, metrics Metrics, logger zerolog.Logger) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		repo:    repo,
		visits:  visits,
		tx:      tx,
		policy:  policy,
		metrics: metrics,
		logger:  logger.With().Str("component", "pharmacy").Logger(),
	}
}

func (s *Service) CreateMedicine(ctx context.Context, req CreateMedicineRequest) (*Medicine, error) {
	m, err := req.Medicine()
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateMedicine(ctx, m); err != nil {
		return nil, err
	}
	s.metrics.StockLevel(m.ID, m.Stock.Float())
	s.logger.Info().Int64("medicine_id", m.ID).Str("name", m.Name).Msg("medicine added")
	return m, nil
}

func (s *Service) GetMedicine(ctx context.Context, id int64) (*Medicine, error) {
	if id <= 0 {
		return nil, apperr.Validation("medicine id is required")
	}
	return s.repo.GetMedicine(ctx, id)
}

// ListMedicines filters by a case-insensitive name fragment.
func (s *Service) ListMedicines(ctx context.Context, search string, limit, offset int) ([]*Medicine, int, error) {
	return s.repo.ListMedicines(ctx, strings.TrimSpace(search), limit, offset)
}

// SetStock overwrites the stock of a medicine last read at req.Version.
// A concurrent change in between makes it fail with a conflict.
func (s *Service) SetStock(ctx context.Context, req SetStockRequest) (*Medicine, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m, ok, err := s.repo.SetStock(ctx, req.MedicineID, *req.StockQuantity, req.Version)
	if err != nil {
		return nil, err
	}
	if !ok {
		cur, err := s.repo.GetMedicine(ctx, req.MedicineID)
		if err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("medicine %d is at version %d, not %d", req.MedicineID, cur.Version, req.Version)
	}
	s.metrics.StockLevel(m.ID, m.Stock.Float())
	s.logger.Info().Int64("medicine_id", m.ID).Stringer("stock", m.Stock).Msg("stock set")
	return m, nil
}

func (s *Service) Restock(ctx context.Context, id int64, delta Units) (*Medicine, error) {
	if id <= 0 {
		return nil, apperr.Validation("medicine id is required")
	}
	if delta <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	m, err := s.repo.AddStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.metrics.StockLevel(m.ID, m.Stock.Float())
	s.logger.Info().Int64("medicine_id", m.ID).Stringer("added", delta).Stringer("stock", m.Stock).Msg("medicine restocked")
	return m, nil
}

// AddLine records a prescribed medicine. The dosage unit defaults to the
// medicine's own unit.
func (s *Service) AddLine(ctx context.Context, req AddLineRequest) (*Line, error) {
	l, err := req.Line()
	if err != nil {
		return nil, err
	}
	m, err := s.repo.GetMedicine(ctx, l.MedicineID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("medicine %d not found", l.MedicineID)
		}
		return nil, err
	}
	if l.DosageUnit == "" {
		l.DosageUnit = m.DosageUnit
	}
	if err := s.repo.CreateLine(ctx, l); err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("%s not found", l.Target)
		}
		return nil, err
	}
	s.logger.Info().Int64("prescription_id", l.ID).Stringer("target", l.Target).Int64("medicine_id", l.MedicineID).Msg("prescription line added")
	return l, nil
}

func (s *Service) ListForVisit(ctx context.Context, visitID int64) ([]*Entry, error) {
	if visitID <= 0 {
		return nil, apperr.Validation("visit_id is required")
	}
	return s.repo.ListLines(ctx, VisitTarget(visitID))
}

func (s *Service) ListForStay(ctx context.Context, stayID int64) ([]*Entry, error) {
	if stayID <= 0 {
		return nil, apperr.Validation("inpatient_id is required")
	}
	return s.repo.ListLines(ctx, StayTarget(stayID))
}

// MarkReceived sets the received flag without touching stock. A dispensed
// line stays received: its consumption is final, and returned medicine is
// booked with Restock.
func (s *Service) MarkReceived(ctx context.Context, id int64, received bool) (*Line, error) {
	if id <= 0 {
		return nil, apperr.Validation("prescription id is required")
	}
	var l *Line
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		cur, err := s.repo.GetLineForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !received && cur.DispensedAt != nil {
			return apperr.Conflict("prescription %d was dispensed and cannot be marked as not received", id)
		}
		l, err = s.repo.SetReceived(ctx, id, received)
		return err
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Dispense hands out one prescription line: stock is decremented by the
// patient's dose and the line is marked received, atomically. Stock never
// goes negative; a short medicine fails with insufficient stock and is left
// as it was.
func (s *Service) Dispense(ctx context.Context, id int64) (*DispenseResult, error) {
	if id <= 0 {
		return nil, apperr.Validation("prescription id is required")
	}

	var res DispenseResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		line, err := s.repo.GetLineForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if line.IsReceived || line.DispensedAt != nil {
			return apperr.Conflict("prescription %d was already dispensed", id)
		}
		age, err := s.repo.PatientAge(ctx, line.Target)
		if err != nil {
			return err
		}
		res.Consumed = s.policy.Consumption(age)

		m, ok, err := s.repo.ConsumeStock(ctx, line.MedicineID, res.Consumed)
		if err != nil {
			return err
		}
		if !ok {
			cur, err := s.repo.GetMedicine(ctx, line.MedicineID)
			if err != nil {
				return err
			}
			return apperr.InsufficientStock("medicine %d has %s in stock, %s needed", cur.ID, cur.Stock, res.Consumed)
		}
		res.Medicine = m

		if res.Line, err = s.repo.RecordDispense(ctx, id, res.Consumed); err != nil {
			return err
		}
		if visitID, ok := line.Target.VisitID(); ok {
			left, err := s.repo.CountUndispensed(ctx, line.Target)
			if err != nil {
				return err
			}
			if left == 0 {
				return s.visits.MarkMedicineDispensed(ctx, visitID)
			}
		}
		return nil
	})
	if err != nil {
		kind := apperr.KindOf(err)
		s.metrics.Dispensation(string(kind))
		if kind == apperr.KindInsufficientStock || kind == apperr.KindConflict {
			s.logger.Warn().Int64("prescription_id", id).Err(err).Msg("dispensation refused")
		}
		return nil, err
	}

	s.metrics.Dispensation("ok")
	s.metrics.StockLevel(res.Medicine.ID, res.Medicine.Stock.Float())
	s.logger.Info().
		Int64("prescription_id", id).
		Int64("medicine_id", res.Medicine.ID).
		Stringer("consumed", res.Consumed).
		Stringer("stock", res.Medicine.Stock).
		Msg("prescription dispensed")
	return &res, nil
}

// DispenseBatch dispenses each line in its own transaction and reports
// every outcome. A failed line does not stop the others.
func (s *Service) DispenseBatch(ctx context.Context, ids []int64) ([]BatchResult, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("ids is required")
	}
	if len(ids) > maxBatch {
		return nil, apperr.Validation("at most %d prescriptions per batch", maxBatch)
	}

	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, apperr.Timeout(err, "batch interrupted after %d of %d lines", len(results), len(ids))
		}
		res, err := s.Dispense(ctx, id)
		if err != nil {
			e := apperr.From(err)
			results = append(results, BatchResult{ID: id, Kind: e.Kind, Message: e.Message})
			continue
		}
		consumed := res.Consumed
		results = append(results, BatchResult{ID: id, OK: true, Consumed: &consumed})
	}
	return results, nil
}

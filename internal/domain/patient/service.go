package patient

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "patient").Logger()}
}

// SuggestByPhonePrefix lists every patient whose contact number starts with
// prefix, so the front desk can pick a returning patient.
func (s *Service) SuggestByPhonePrefix(ctx context.Context, prefix string) ([]*Patient, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, apperr.Validation("number is required")
	}
	return s.repo.SuggestByPhonePrefix(ctx, prefix)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Patient, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := req.Patient()
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("patient_id", p.ID).Msg("patient registered")
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Patient, error) {
	if id <= 0 {
		return nil, apperr.Validation("patient id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Patient, error) {
	if id <= 0 {
		return nil, apperr.Validation("patient id is required")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.ApplyTo(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

package department

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "department").Logger()}
}

func (s *Service) Create(ctx context.Context, d *Department) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return err
	}
	s.logger.Info().Int64("department_id", d.ID).Str("name", d.Name).Msg("department created")
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Department, error) {
	if id <= 0 {
		return nil, apperr.Validation("department id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Department, error) {
	return s.repo.List(ctx)
}

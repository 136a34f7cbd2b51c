package department

import "context"

type Repository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id int64) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
}

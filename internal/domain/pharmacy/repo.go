package pharmacy

import "context"

type Repository interface {
	CreateMedicine(ctx context.Context, m *Medicine) error
	GetMedicine(ctx context.Context, id int64) (*Medicine, error)
	ListMedicines(ctx context.Context, search string, limit, offset int) ([]*Medicine, int, error)
	// SetStock overwrites stock when version matches; ok is false otherwise.
	SetStock(ctx context.Context, id int64, stock Units, version int) (m *Medicine, ok bool, err error)
	AddStock(ctx context.Context, id int64, delta Units) (*Medicine, error)
	// ConsumeStock subtracts amount when at least amount is in stock; ok is
	// false otherwise and stock is unchanged.
	ConsumeStock(ctx context.Context, id int64, amount Units) (m *Medicine, ok bool, err error)

	CreateLine(ctx context.Context, l *Line) error
	// GetLineForUpdate locks the line until the surrounding transaction ends.
	GetLineForUpdate(ctx context.Context, id int64) (*Line, error)
	ListLines(ctx context.Context, target Target) ([]*Entry, error)
	SetReceived(ctx context.Context, id int64, received bool) (*Line, error)
	RecordDispense(ctx context.Context, id int64, consumed Units) (*Line, error)
	// PatientAge resolves the age of the patient a target belongs to.
	PatientAge(ctx context.Context, target Target) (int, error)
	CountUndispensed(ctx context.Context, target Target) (int, error)
}

package visit

import "context"

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	Get(ctx context.Context, id int64) (*Visit, error)
	Delete(ctx context.Context, id int64) error
	// ListPending returns visits on date with no diagnosis and no medicine
	// dispensed, oldest first.
	ListPending(ctx context.Context, date string) ([]*Visit, error)
	AssignDepartment(ctx context.Context, id, departmentID int64, cause string) (*Visit, error)
	ListByDepartment(ctx context.Context, departmentID int64, date string) ([]*QueueRow, error)
	RecordDiagnosis(ctx context.Context, id int64, diagnosis string) (*Visit, error)
	SetMedicineDispensed(ctx context.Context, id int64, dispensed bool) error
}

package inpatient

import "context"

type Repository interface {
	Create(ctx context.Context, s *Stay) error
	Get(ctx context.Context, id int64) (*Stay, error)
	// GetForUpdate locks the stay row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*Stay, error)
	Update(ctx context.Context, s *Stay) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Listing, int, error)
	// ActiveStayForPatient returns the id of the patient's undischarged
	// stay, if there is one.
	ActiveStayForPatient(ctx context.Context, patientID int64) (int64, bool, error)
}

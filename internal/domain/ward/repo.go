package ward

import "context"

type Repository interface {
	CreateWard(ctx context.Context, w *Ward) error
	CreateBeds(ctx context.Context, wardID int64, first, count int) error
	GetWard(ctx context.Context, id int64) (*Ward, error)
	ListWardsByDepartment(ctx context.Context, departmentID int64) ([]*Summary, error)
	GetBed(ctx context.Context, id int64) (*Bed, error)
	ListBeds(ctx context.Context, wardID int64, onlyFree bool) ([]*Bed, error)

	// MarkOccupied flips a free bed to occupied in a single conditional
	// statement. wardID 0 matches any ward. ok is false when no row
	// matched: the bed is missing, occupied, or in another ward.
	MarkOccupied(ctx context.Context, bedID, wardID int64) (bed *Bed, ok bool, err error)
	// MarkFree is the reverse of MarkOccupied. It also misses when an
	// active inpatient stay still references the bed.
	MarkFree(ctx context.Context, bedID int64) (bed *Bed, ok bool, err error)
}

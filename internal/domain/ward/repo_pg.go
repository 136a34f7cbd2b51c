package ward

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

const (
	wardColumns = `id, department_id, name, type, gender_restriction, bed_count, created_at`
	bedColumns  = `id, ward_id, bed_number, is_occupied`
)

type wardRepoPG struct {
	pool db.Querier
}

func NewRepo(pool db.Querier) Repository {
	return &wardRepoPG{pool: pool}
}

func (r *wardRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *wardRepoPG) CreateWard(ctx context.Context, w *Ward) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO ward (department_id, name, type, gender_restriction, bed_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		w.DepartmentID, w.Name, string(w.Type), string(w.GenderRestriction), w.BedCount,
	).Scan(&w.ID, &w.CreatedAt)
	return db.MapError(err, "ward")
}

func (r *wardRepoPG) CreateBeds(ctx context.Context, wardID int64, first, count int) error {
	if count == 0 {
		return nil
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed (ward_id, bed_number)
		SELECT $1, n FROM generate_series($2::int, $2::int + $3::int - 1) AS n`,
		wardID, first, count)
	return db.MapError(err, "bed")
}

func (r *wardRepoPG) GetWard(ctx context.Context, id int64) (*Ward, error) {
	var w Ward
	var typ, restriction string
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+wardColumns+` FROM ward WHERE id = $1`, id).
		Scan(&w.ID, &w.DepartmentID, &w.Name, &typ, &restriction, &w.BedCount, &w.CreatedAt)
	if err != nil {
		return nil, db.MapError(err, "ward")
	}
	w.Type, w.GenderRestriction = Type(typ), GenderRestriction(restriction)
	return &w, nil
}

func (r *wardRepoPG) ListWardsByDepartment(ctx context.Context, departmentID int64) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT w.id, w.department_id, w.name, w.type, w.gender_restriction, w.bed_count, w.created_at,
		       COUNT(b.id) AS total_beds,
		       COUNT(b.id) FILTER (WHERE NOT b.is_occupied) AS free_beds
		FROM ward w
		LEFT JOIN bed b ON b.ward_id = w.id
		WHERE w.department_id = $1
		GROUP BY w.id
		ORDER BY w.name`, departmentID)
	if err != nil {
		return nil, db.MapError(err, "ward")
	}
	defer rows.Close()

	items := []*Summary{}
	for rows.Next() {
		var s Summary
		var typ, restriction string
		if err := rows.Scan(&s.ID, &s.DepartmentID, &s.Name, &typ, &restriction, &s.BedCount, &s.CreatedAt,
			&s.TotalBeds, &s.FreeBeds); err != nil {
			return nil, db.MapError(err, "ward")
		}
		s.Type, s.GenderRestriction = Type(typ), GenderRestriction(restriction)
		items = append(items, &s)
	}
	return items, db.MapError(rows.Err(), "ward")
}

func (r *wardRepoPG) GetBed(ctx context.Context, id int64) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedColumns+` FROM bed WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "bed")
	}
	return b, nil
}

func (r *wardRepoPG) ListBeds(ctx context.Context, wardID int64, onlyFree bool) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+bedColumns+` FROM bed
		WHERE ward_id = $1 AND ($2::bool = FALSE OR NOT is_occupied)
		ORDER BY bed_number`, wardID, onlyFree)
	if err != nil {
		return nil, db.MapError(err, "bed")
	}
	defer rows.Close()

	items := []*Bed{}
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, db.MapError(err, "bed")
		}
		items = append(items, b)
	}
	return items, db.MapError(rows.Err(), "bed")
}

func (r *wardRepoPG) MarkOccupied(ctx context.Context, bedID, wardID int64) (*Bed, bool, error) {
	return r.conditional(ctx, `
		UPDATE bed SET is_occupied = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_occupied AND ($2::bigint = 0 OR ward_id = $2)
		RETURNING `+bedColumns, bedID, wardID)
}

func (r *wardRepoPG) MarkFree(ctx context.Context, bedID int64) (*Bed, bool, error) {
	return r.conditional(ctx, `
		UPDATE bed SET is_occupied = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_occupied
		  AND NOT EXISTS (
			SELECT 1 FROM inpatient
			WHERE discharge_date IS NULL AND (bed_id = $1 OR attender_bed_id = $1))
		RETURNING `+bedColumns, bedID)
}

func (r *wardRepoPG) conditional(ctx context.Context, sql string, args ...any) (*Bed, bool, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, db.MapError(err, "bed")
	}
	return b, true, nil
}

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	if err := row.Scan(&b.ID, &b.WardID, &b.BedNumber, &b.IsOccupied); err != nil {
		return nil, err
	}
	return &b, nil
}

package department

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

type deptRepoPG struct {
	pool db.Querier
}

func NewRepo(pool db.Querier) Repository {
	return &deptRepoPG{pool: pool}
}

func (r *deptRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *deptRepoPG) Create(ctx context.Context, d *Department) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO department (name, type, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		d.Name, string(d.Type), d.Description,
	).Scan(&d.ID, &d.CreatedAt)
	return db.MapError(err, "department")
}

func (r *deptRepoPG) GetByID(ctx context.Context, id int64) (*Department, error) {
	d, err := scanDepartment(r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, type, description, created_at FROM department WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "department")
	}
	return d, nil
}

func (r *deptRepoPG) List(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, type, description, created_at FROM department ORDER BY name`)
	if err != nil {
		return nil, db.MapError(err, "department")
	}
	defer rows.Close()

	items := []*Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, db.MapError(err, "department")
		}
		items = append(items, d)
	}
	return items, db.MapError(rows.Err(), "department")
}

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	var typ string
	if err := row.Scan(&d.ID, &d.Name, &typ, &d.Description, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Type = Type(typ)
	return &d, nil
}

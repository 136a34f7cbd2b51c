package patient

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

const patientColumns = `id, name, contact_number, age, gender, address, created_at, updated_at`

type patientRepoPG struct {
	pool db.Querier
}

func NewRepo(pool db.Querier) Repository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (name, contact_number, age, gender, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		p.Name, p.ContactNumber, p.Age, string(p.Gender), p.Address,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return db.MapError(err, "patient")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patient WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "patient")
	}
	return p, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET
			name = $2, contact_number = $3, age = $4, gender = $5, address = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Name, p.ContactNumber, p.Age, string(p.Gender), p.Address,
	).Scan(&p.UpdatedAt)
	return db.MapError(err, "patient")
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, db.MapError(err, "patient")
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientColumns+` FROM patient ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err, "patient")
	}
	items, err := collectPatients(rows)
	return items, total, err
}

// SuggestByPhonePrefix matches contact numbers starting with prefix. LIKE
// metacharacters in prefix are escaped so they match literally.
func (r *patientRepoPG) SuggestByPhonePrefix(ctx context.Context, prefix string) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientColumns+` FROM patient
		WHERE contact_number LIKE $1 ESCAPE '\'
		ORDER BY contact_number, id`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, db.MapError(err, "patient")
	}
	return collectPatients(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var gender string
	if err := row.Scan(&p.ID, &p.Name, &p.ContactNumber, &p.Age, &gender, &p.Address, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Gender = Gender(gender)
	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	defer rows.Close()
	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, db.MapError(err, "patient")
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "patient")
	}
	return items, nil
}

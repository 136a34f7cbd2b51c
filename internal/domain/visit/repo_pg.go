package visit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

const visitColumns = `id, patient_id, to_char(visit_date, 'YYYY-MM-DD'), to_char(visit_time, 'HH24:MI'),
	cause_of_visit, assigned_department, diagnosis, medicine_dispensed, created_at, updated_at`

type visitRepoPG struct {
	pool db.Querier
}

func NewRepo(pool db.Querier) Repository {
	return &visitRepoPG{pool: pool}
}

func (r *visitRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *visitRepoPG) Create(ctx context.Context, v *Visit) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO outpatient_visit (patient_id, visit_date, visit_time)
		VALUES ($1, $2::date, $3::time)
		RETURNING id, created_at, updated_at`,
		v.PatientID, v.VisitDate, v.VisitTime,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return db.MapError(err, "outpatient visit")
	}
	v.Stage = v.stage()
	return nil
}

func (r *visitRepoPG) Get(ctx context.Context, id int64) (*Visit, error) {
	v, err := scanVisit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitColumns+` FROM outpatient_visit WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "outpatient visit")
	}
	return v, nil
}

func (r *visitRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM outpatient_visit WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			e := apperr.Conflict("outpatient visit %d has prescriptions or an admission", id)
			e.Detail = pgErr.Detail
			return e
		}
		return db.MapError(err, "outpatient visit")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("outpatient visit %d not found", id)
	}
	return nil
}

func (r *visitRepoPG) ListPending(ctx context.Context, date string) ([]*Visit, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+visitColumns+` FROM outpatient_visit
		WHERE visit_date = $1::date AND diagnosis IS NULL AND NOT medicine_dispensed
		ORDER BY visit_time, id`, date)
	if err != nil {
		return nil, db.MapError(err, "outpatient visit")
	}
	defer rows.Close()

	items := []*Visit{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, db.MapError(err, "outpatient visit")
		}
		items = append(items, v)
	}
	return items, db.MapError(rows.Err(), "outpatient visit")
}

func (r *visitRepoPG) AssignDepartment(ctx context.Context, id, departmentID int64, cause string) (*Visit, error) {
	v, err := scanVisit(r.conn(ctx).QueryRow(ctx, `
		UPDATE outpatient_visit
		SET assigned_department = $2, cause_of_visit = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING `+visitColumns, id, departmentID, cause))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("outpatient visit %d not found", id)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, apperr.NotFound("department %d not found", departmentID)
		}
		return nil, db.MapError(err, "outpatient visit")
	}
	return v, nil
}

func (r *visitRepoPG) ListByDepartment(ctx context.Context, departmentID int64, date string) ([]*QueueRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT v.id, v.patient_id, to_char(v.visit_date, 'YYYY-MM-DD'), to_char(v.visit_time, 'HH24:MI'),
		       p.name, p.age, p.gender, d.name,
		       v.cause_of_visit, v.diagnosis, v.medicine_dispensed
		FROM outpatient_visit v
		LEFT JOIN patient p ON p.id = v.patient_id
		LEFT JOIN department d ON d.id = v.assigned_department
		WHERE v.assigned_department = $1 AND v.visit_date = $2::date
		ORDER BY v.visit_time, v.id`, departmentID, date)
	if err != nil {
		return nil, db.MapError(err, "outpatient visit")
	}
	defer rows.Close()

	items := []*QueueRow{}
	for rows.Next() {
		var q QueueRow
		if err := rows.Scan(&q.VisitID, &q.PatientID, &q.VisitDate, &q.VisitTime,
			&q.PatientName, &q.PatientAge, &q.PatientGender, &q.DepartmentName,
			&q.CauseOfVisit, &q.Diagnosis, &q.MedicineDispensed); err != nil {
			return nil, db.MapError(err, "outpatient visit")
		}
		items = append(items, &q)
	}
	return items, db.MapError(rows.Err(), "outpatient visit")
}

func (r *visitRepoPG) RecordDiagnosis(ctx context.Context, id int64, diagnosis string) (*Visit, error) {
	v, err := scanVisit(r.conn(ctx).QueryRow(ctx, `
		UPDATE outpatient_visit SET diagnosis = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+visitColumns, id, diagnosis))
	if err != nil {
		return nil, db.MapError(err, "outpatient visit")
	}
	return v, nil
}

func (r *visitRepoPG) SetMedicineDispensed(ctx context.Context, id int64, dispensed bool) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE outpatient_visit SET medicine_dispensed = $2, updated_at = NOW()
		WHERE id = $1`, id, dispensed)
	if err != nil {
		return db.MapError(err, "outpatient visit")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("outpatient visit %d not found", id)
	}
	return nil
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	if err := row.Scan(&v.ID, &v.PatientID, &v.VisitDate, &v.VisitTime,
		&v.CauseOfVisit, &v.AssignedDepartment, &v.Diagnosis, &v.MedicineDispensed,
		&v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.Stage = v.stage()
	return &v, nil
}

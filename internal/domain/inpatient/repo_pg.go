package inpatient

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

// stayColumns selects from inpatient aliased as i.
const stayColumns = `i.id, i.patient_id, i.outpatient_visit_id, i.ward_id, i.bed_id, i.aadhaar_number,
	to_char(i.admission_date, 'YYYY-MM-DD'), to_char(i.admission_time, 'HH24:MI'),
	to_char(i.discharge_date, 'YYYY-MM-DD'),
	i.attender_name, i.attender_relationship, i.attender_contact, i.attender_address,
	i.attender_ward_id, i.attender_bed_id, i.created_at, i.updated_at`

type stayRepoPG struct {
	pool db.Querier
}

func NewRepo(pool db.Querier) Repository {
	return &stayRepoPG{pool: pool}
}

func (r *stayRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *stayRepoPG) Create(ctx context.Context, s *Stay) error {
	a := s.Attender
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO inpatient (
			patient_id, outpatient_visit_id, ward_id, bed_id, aadhaar_number,
			admission_date, admission_time,
			attender_name, attender_relationship, attender_contact, attender_address,
			attender_ward_id, attender_bed_id)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7::time, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		s.PatientID, s.OutpatientVisitID, s.WardID, s.BedID, s.AadhaarNumber,
		s.AdmissionDate, s.AdmissionTime,
		a.Name, a.Relationship, a.ContactNumber, a.Address, a.WardID, a.BedID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "idx_inpatient_active_patient":
			return apperr.Conflict("patient %d is already admitted", s.PatientID)
		case "idx_inpatient_active_bed":
			return apperr.Conflict("bed %d already belongs to an active stay", s.BedID)
		}
	}
	return db.MapError(err, "inpatient stay")
}

func (r *stayRepoPG) Get(ctx context.Context, id int64) (*Stay, error) {
	return r.get(ctx, `SELECT `+stayColumns+` FROM inpatient i WHERE i.id = $1`, id)
}

func (r *stayRepoPG) GetForUpdate(ctx context.Context, id int64) (*Stay, error) {
	return r.get(ctx, `SELECT `+stayColumns+` FROM inpatient i WHERE i.id = $1 FOR UPDATE`, id)
}

func (r *stayRepoPG) get(ctx context.Context, sql string, id int64) (*Stay, error) {
	s, err := scanStay(r.conn(ctx).QueryRow(ctx, sql, id))
	if err != nil {
		return nil, db.MapError(err, "inpatient stay")
	}
	return s, nil
}

func (r *stayRepoPG) Update(ctx context.Context, s *Stay) error {
	a := s.Attender
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE inpatient SET
			ward_id = $2, bed_id = $3, aadhaar_number = $4,
			admission_date = $5::date, admission_time = $6::time, discharge_date = $7::date,
			attender_name = $8, attender_relationship = $9, attender_contact = $10, attender_address = $11,
			attender_ward_id = $12, attender_bed_id = $13,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.WardID, s.BedID, s.AadhaarNumber,
		s.AdmissionDate, s.AdmissionTime, s.DischargeDate,
		a.Name, a.Relationship, a.ContactNumber, a.Address, a.WardID, a.BedID,
	).Scan(&s.UpdatedAt)
	return db.MapError(err, "inpatient stay")
}

func (r *stayRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Listing, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM inpatient
		WHERE $1::bool = FALSE OR discharge_date IS NULL`, activeOnly).Scan(&total)
	if err != nil {
		return nil, 0, db.MapError(err, "inpatient stay")
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+stayColumns+`, p.name, p.age, p.gender
		FROM inpatient i
		JOIN patient p ON p.id = i.patient_id
		WHERE $1::bool = FALSE OR i.discharge_date IS NULL
		ORDER BY i.admission_date DESC, i.id DESC
		LIMIT $2 OFFSET $3`, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err, "inpatient stay")
	}
	defer rows.Close()

	items := []*Listing{}
	for rows.Next() {
		var l Listing
		if err := rows.Scan(append(stayDest(&l.Stay), &l.PatientName, &l.PatientAge, &l.PatientGender)...); err != nil {
			return nil, 0, db.MapError(err, "inpatient stay")
		}
		items = append(items, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.MapError(err, "inpatient stay")
	}
	return items, total, nil
}

func (r *stayRepoPG) ActiveStayForPatient(ctx context.Context, patientID int64) (int64, bool, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id FROM inpatient
		WHERE patient_id = $1 AND discharge_date IS NULL
		LIMIT 1`, patientID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, db.MapError(err, "inpatient stay")
	}
	return id, true, nil
}

func stayDest(s *Stay) []any {
	a := &s.Attender
	return []any{
		&s.ID, &s.PatientID, &s.OutpatientVisitID, &s.WardID, &s.BedID, &s.AadhaarNumber,
		&s.AdmissionDate, &s.AdmissionTime, &s.DischargeDate,
		&a.Name, &a.Relationship, &a.ContactNumber, &a.Address, &a.WardID, &a.BedID,
		&s.CreatedAt, &s.UpdatedAt,
	}
}

func scanStay(row pgx.Row) (*Stay, error) {
	var s Stay
	if err := row.Scan(stayDest(&s)...); err != nil {
		return nil, err
	}
	return &s, nil
}

package pharmacy

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

const (
	medicineColumns = `id, name, type, dosage_unit, stock_hundredths, version, created_at, updated_at`

	// lineColumns selects from prescription aliased as l.
	lineColumns = `l.id, l.visit_id, l.inpatient_id, l.medicine_id, (l.dosage_amount * 100)::bigint,
	l.dosage_unit, l.dosage_type, l.dosage_timing, to_char(l.prescription_date, 'YYYY-MM-DD'),
	l.is_received, l.dispensed_hundredths, l.dispensed_at, l.created_at`
)

type pharmacyRepoPG struct {
	pool db.Querier
}

func NewRepo(pool db.Querier) Repository {
	return &pharmacyRepoPG{pool: pool}
}

func (r *pharmacyRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *pharmacyRepoPG) CreateMedicine(ctx context.Context, m *Medicine) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medicine (name, type, dosage_unit, stock_hundredths)
		VALUES ($1, $2, $3, $4)
		RETURNING id, version, created_at, updated_at`,
		m.Name, m.Type, m.DosageUnit, int64(m.Stock),
	).Scan(&m.ID, &m.Version, &m.CreatedAt, &m.UpdatedAt)
	return db.MapError(err, "medicine")
}

func (r *pharmacyRepoPG) GetMedicine(ctx context.Context, id int64) (*Medicine, error) {
	m, err := scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medicineColumns+` FROM medicine WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "medicine")
	}
	return m, nil
}

func (r *pharmacyRepoPG) ListMedicines(ctx context.Context, search string, limit, offset int) ([]*Medicine, int, error) {
	pattern := "%" + escapeLike(search) + "%"
	var total int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicine WHERE name ILIKE $1 ESCAPE '\'`, pattern).Scan(&total)
	if err != nil {
		return nil, 0, db.MapError(err, "medicine")
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+medicineColumns+` FROM medicine
		WHERE name ILIKE $1 ESCAPE '\'
		ORDER BY name, id
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err, "medicine")
	}
	defer rows.Close()

	items := []*Medicine{}
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, db.MapError(err, "medicine")
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.MapError(err, "medicine")
	}
	return items, total, nil
}

func (r *pharmacyRepoPG) SetStock(ctx context.Context, id int64, stock Units, version int) (*Medicine, bool, error) {
	return r.conditionalMedicine(ctx, `
		UPDATE medicine SET stock_hundredths = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
		RETURNING `+medicineColumns, id, int64(stock), version)
}

func (r *pharmacyRepoPG) AddStock(ctx context.Context, id int64, delta Units) (*Medicine, error) {
	m, err := scanMedicine(r.conn(ctx).QueryRow(ctx, `
		UPDATE medicine SET stock_hundredths = stock_hundredths + $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+medicineColumns, id, int64(delta)))
	if err != nil {
		return nil, db.MapError(err, "medicine")
	}
	return m, nil
}

func (r *pharmacyRepoPG) ConsumeStock(ctx context.Context, id int64, amount Units) (*Medicine, bool, error) {
	return r.conditionalMedicine(ctx, `
		UPDATE medicine SET stock_hundredths = stock_hundredths - $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND stock_hundredths >= $2
		RETURNING `+medicineColumns, id, int64(amount))
}

func (r *pharmacyRepoPG) conditionalMedicine(ctx context.Context, sql string, args ...any) (*Medicine, bool, error) {
	m, err := scanMedicine(r.conn(ctx).QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, db.MapError(err, "medicine")
	}
	return m, true, nil
}

func (r *pharmacyRepoPG) CreateLine(ctx context.Context, l *Line) error {
	var visitID, stayID *int64
	if id, ok := l.Target.VisitID(); ok {
		visitID = &id
	} else if id, ok := l.Target.StayID(); ok {
		stayID = &id
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescription (
			visit_id, inpatient_id, medicine_id, dosage_amount, dosage_unit,
			dosage_type, dosage_timing, prescription_date)
		VALUES ($1, $2, $3, $4::numeric / 100, $5, $6, $7, $8::date)
		RETURNING id, created_at`,
		visitID, stayID, l.MedicineID, int64(l.Dosage), l.DosageUnit,
		string(l.DosageType), string(l.DosageTiming), l.PrescriptionDate,
	).Scan(&l.ID, &l.CreatedAt)
	return db.MapError(err, "prescription")
}

func (r *pharmacyRepoPG) GetLineForUpdate(ctx context.Context, id int64) (*Line, error) {
	l, err := scanLine(r.conn(ctx).QueryRow(ctx, `SELECT `+lineColumns+` FROM prescription l WHERE l.id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, db.MapError(err, "prescription")
	}
	return l, nil
}

func (r *pharmacyRepoPG) ListLines(ctx context.Context, target Target) ([]*Entry, error) {
	var sql string
	switch target.Kind() {
	case TargetVisit:
		sql = `
		SELECT ` + lineColumns + `, p.id, p.name, p.age, m.name
		FROM prescription l
		JOIN outpatient_visit v ON v.id = l.visit_id
		JOIN patient p ON p.id = v.patient_id
		JOIN medicine m ON m.id = l.medicine_id
		WHERE l.visit_id = $1
		ORDER BY l.id`
	case TargetStay:
		sql = `
		SELECT ` + lineColumns + `, p.id, p.name, p.age, m.name
		FROM prescription l
		JOIN inpatient i ON i.id = l.inpatient_id
		JOIN patient p ON p.id = i.patient_id
		JOIN medicine m ON m.id = l.medicine_id
		WHERE l.inpatient_id = $1
		ORDER BY l.id`
	default:
		return nil, apperr.Validation("prescription target is required")
	}

	rows, err := r.conn(ctx).Query(ctx, sql, target.ID())
	if err != nil {
		return nil, db.MapError(err, "prescription")
	}
	defer rows.Close()

	items := []*Entry{}
	for rows.Next() {
		var e Entry
		var ld lineDest
		if err := rows.Scan(append(ld.targets(), &e.PatientID, &e.PatientName, &e.PatientAge, &e.MedicineName)...); err != nil {
			return nil, db.MapError(err, "prescription")
		}
		line, err := ld.line()
		if err != nil {
			return nil, err
		}
		e.Line = *line
		items = append(items, &e)
	}
	return items, db.MapError(rows.Err(), "prescription")
}

func (r *pharmacyRepoPG) SetReceived(ctx context.Context, id int64, received bool) (*Line, error) {
	l, err := scanLine(r.conn(ctx).QueryRow(ctx, `
		UPDATE prescription l SET is_received = $2
		WHERE l.id = $1
		RETURNING `+lineColumns, id, received))
	if err != nil {
		return nil, db.MapError(err, "prescription")
	}
	return l, nil
}

func (r *pharmacyRepoPG) RecordDispense(ctx context.Context, id int64, consumed Units) (*Line, error) {
	l, err := scanLine(r.conn(ctx).QueryRow(ctx, `
		UPDATE prescription l
		SET is_received = TRUE, dispensed_hundredths = $2, dispensed_at = NOW()
		WHERE l.id = $1
		RETURNING `+lineColumns, id, int64(consumed)))
	if err != nil {
		return nil, db.MapError(err, "prescription")
	}
	return l, nil
}

func (r *pharmacyRepoPG) PatientAge(ctx context.Context, target Target) (int, error) {
	var sql, entity string
	switch target.Kind() {
	case TargetVisit:
		sql, entity = `SELECT p.age FROM outpatient_visit v JOIN patient p ON p.id = v.patient_id WHERE v.id = $1`, "outpatient visit"
	case TargetStay:
		sql, entity = `SELECT p.age FROM inpatient i JOIN patient p ON p.id = i.patient_id WHERE i.id = $1`, "inpatient stay"
	default:
		return 0, apperr.Validation("prescription target is required")
	}
	var age int
	if err := r.conn(ctx).QueryRow(ctx, sql, target.ID()).Scan(&age); err != nil {
		return 0, db.MapError(err, entity)
	}
	return age, nil
}

func (r *pharmacyRepoPG) CountUndispensed(ctx context.Context, target Target) (int, error) {
	var sql string
	switch target.Kind() {
	case TargetVisit:
		sql = `SELECT COUNT(*) FROM prescription WHERE visit_id = $1 AND NOT is_received`
	case TargetStay:
		sql = `SELECT COUNT(*) FROM prescription WHERE inpatient_id = $1 AND NOT is_received`
	default:
		return 0, apperr.Validation("prescription target is required")
	}
	var n int
	if err := r.conn(ctx).QueryRow(ctx, sql, target.ID()).Scan(&n); err != nil {
		return 0, db.MapError(err, "prescription")
	}
	return n, nil
}

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	var stock int64
	if err := row.Scan(&m.ID, &m.Name, &m.Type, &m.DosageUnit, &stock, &m.Version, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Stock = Units(stock)
	return &m, nil
}

// lineDest holds the raw columns of a prescription row.
type lineDest struct {
	l          Line
	visitID    *int64
	stayID     *int64
	dosage     int64
	dosageType string
	timing     string
	dispensed  int64
}

func (d *lineDest) targets() []any {
	return []any{
		&d.l.ID, &d.visitID, &d.stayID, &d.l.MedicineID, &d.dosage,
		&d.l.DosageUnit, &d.dosageType, &d.timing, &d.l.PrescriptionDate,
		&d.l.IsReceived, &d.dispensed, &d.l.DispensedAt, &d.l.CreatedAt,
	}
}

func (d *lineDest) line() (*Line, error) {
	target, err := NewTarget(d.visitID, d.stayID)
	if err != nil {
		return nil, apperr.Internal(err, "prescription %d has no valid target", d.l.ID)
	}
	l := d.l
	l.Target = target
	l.Dosage = Units(d.dosage)
	l.DosageType = DosageType(d.dosageType)
	l.DosageTiming = Timing(d.timing)
	l.Dispensed = Units(d.dispensed)
	return &l, nil
}

func scanLine(row pgx.Row) (*Line, error) {
	var d lineDest
	if err := row.Scan(d.targets()...); err != nil {
		return nil, err
	}
	return d.line()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(strings.TrimSpace(s)) }

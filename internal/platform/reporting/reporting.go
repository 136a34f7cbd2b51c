package reporting

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/db"
)

const dateLayout = "2006-01-02"

type ParamType string

const (
	ParamDate     ParamType = "date"
	ParamNumber   ParamType = "number"
	ParamTimezone ParamType = "timezone"
)

// Defaults are resolved per request against the hospital's clock and
// configuration.
const (
	DefaultToday    = "today"
	DefaultWeekAgo  = "today-6"
	DefaultLowStock = "low-stock-threshold"
	DefaultTimezone = "hospital-timezone"
)

// Parameter is a positional SQL argument of a measure, bound in order.
type Parameter struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Default     string    `json:"default"`
	Description string    `json:"description"`
}

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	SQL         string      `json:"-"`
	Parameters  []Parameter `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	ReportID    uuid.UUID         `json:"report_id"`
	MeasureID   string            `json:"measure_id"`
	MeasureName string            `json:"measure_name"`
	GeneratedAt time.Time         `json:"generated_at"`
	Results     []map[string]any  `json:"results"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "patient-count",
		Name:        "Patient Count",
		Description: "Total number of registered patients, split by gender",
		SQL: `SELECT COUNT(*) AS total,
			COUNT(*) FILTER (WHERE age < 12) AS children,
			COUNT(*) FILTER (WHERE gender = 'female') AS female,
			COUNT(*) FILTER (WHERE gender = 'male') AS male
			FROM patient`,
	},
	{
		ID:          "visits-by-department",
		Name:        "Visits by Department",
		Description: "Outpatient visits on a day grouped by assigned department",
		SQL: `SELECT COALESCE(d.name, 'unassigned') AS department, COUNT(*) AS total,
			COUNT(*) FILTER (WHERE v.diagnosis IS NOT NULL) AS treated
			FROM outpatient_visit v
			LEFT JOIN department d ON d.id = v.assigned_department
			WHERE v.visit_date = $1::date
			GROUP BY d.name
			ORDER BY total DESC, department`,
		Parameters: []Parameter{
			{Name: "date", Type: ParamDate, Default: DefaultToday, Description: "visit date, YYYY-MM-DD"},
		},
	},
	{
		ID:          "bed-occupancy-by-ward",
		Name:        "Bed Occupancy by Ward",
		Description: "Occupied and free beds per ward",
		SQL: `SELECT w.id AS ward_id, w.name AS ward, w.type AS ward_type,
			COUNT(b.id) AS beds,
			COUNT(b.id) FILTER (WHERE b.is_occupied) AS occupied,
			COUNT(b.id) FILTER (WHERE NOT b.is_occupied) AS free
			FROM ward w
			LEFT JOIN bed b ON b.ward_id = w.id
			GROUP BY w.id, w.name, w.type
			ORDER BY w.name`,
	},
	{
		ID:          "low-stock-medicines",
		Name:        "Low Stock Medicines",
		Description: "Medicines whose stock is below a threshold",
		SQL: `SELECT id AS medicine_id, name, dosage_unit,
			(stock_hundredths / 100.0)::float8 AS stock_quantity
			FROM medicine
			WHERE stock_hundredths < ($1::float8 * 100)
			ORDER BY stock_hundredths, name`,
		Parameters: []Parameter{
			{Name: "threshold", Type: ParamNumber, Default: DefaultLowStock, Description: "stock below this many units"},
		},
	},
	{
		ID:          "dispensations-by-day",
		Name:        "Dispensations by Day",
		Description: "Dispensed prescription lines and units consumed per day",
		SQL: `SELECT to_char(dispensed_at AT TIME ZONE $3, 'YYYY-MM-DD') AS day,
			COUNT(*) AS dispensations,
			(SUM(dispensed_hundredths) / 100.0)::float8 AS units
			FROM prescription
			WHERE dispensed_at IS NOT NULL
			AND (dispensed_at AT TIME ZONE $3)::date BETWEEN $1::date AND $2::date
			GROUP BY day
			ORDER BY day`,
		Parameters: []Parameter{
			{Name: "from", Type: ParamDate, Default: DefaultWeekAgo, Description: "first day, YYYY-MM-DD"},
			{Name: "to", Type: ParamDate, Default: DefaultToday, Description: "last day, YYYY-MM-DD"},
			{Name: "tz", Type: ParamTimezone, Default: DefaultTimezone, Description: "IANA zone the days are counted in"},
		},
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// Overview is the dashboard summary for one day.
type Overview struct {
	Date              string `json:"date"`
	VisitsToday       int    `json:"visits_today"`
	PendingScreening  int    `json:"pending_screening"`
	ActiveInpatients  int    `json:"active_inpatients"`
	Beds              int    `json:"beds"`
	OccupiedBeds      int    `json:"occupied_beds"`
	LowStockMedicines int    `json:"low_stock_medicines"`
}

type Service struct {
	pool     db.Querier
	now      func() time.Time
	loc      *time.Location
	lowStock float64
	logger   zerolog.Logger
}

func NewService(pool db.Querier, now func() time.Time, loc *time.Location, lowStock float64, logger zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		pool:     pool,
		now:      now,
		loc:      loc,
		lowStock: lowStock,
		logger:   logger.With().Str("component", "reporting").Logger(),
	}
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// Evaluate runs a measure. Parameters missing from params take their
// defaults; the resolved values are echoed in the report.
func (s *Service) Evaluate(ctx context.Context, id string, params map[string]string) (*MeasureReport, error) {
	measure := FindMeasure(id)
	if measure == nil {
		return nil, apperr.NotFound("measure %q not found", id)
	}

	resolved := make(map[string]string, len(measure.Parameters))
	args := make([]any, 0, len(measure.Parameters))
	for _, p := range measure.Parameters {
		raw := strings.TrimSpace(params[p.Name])
		if raw == "" {
			raw = s.defaultFor(p)
		}
		arg, err := bind(p, raw)
		if err != nil {
			return nil, err
		}
		resolved[p.Name] = raw
		args = append(args, arg)
	}

	results, err := s.executeSQL(ctx, measure.SQL, args...)
	if err != nil {
		return nil, err
	}

	report := &MeasureReport{
		ReportID:    uuid.New(),
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: s.now(),
		Results:     results,
		Parameters:  resolved,
	}
	s.logger.Debug().Str("measure", measure.ID).Stringer("report_id", report.ReportID).Int("rows", len(results)).Msg("measure evaluated")
	return report, nil
}

func (s *Service) defaultFor(p Parameter) string {
	switch p.Default {
	case DefaultToday:
		return s.today().Format(dateLayout)
	case DefaultWeekAgo:
		return s.today().AddDate(0, 0, -6).Format(dateLayout)
	case DefaultLowStock:
		return strconv.FormatFloat(s.lowStock, 'f', -1, 64)
	case DefaultTimezone:
		return s.loc.String()
	}
	return p.Default
}

func bind(p Parameter, raw string) (any, error) {
	switch p.Type {
	case ParamDate:
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, apperr.Validation("%s must be YYYY-MM-DD, got %q", p.Name, raw)
		}
		return d.Format(dateLayout), nil
	case ParamNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperr.Validation("%s must be a number, got %q", p.Name, raw)
		}
		return f, nil
	case ParamTimezone:
		if _, err := time.LoadLocation(raw); err != nil {
			return nil, apperr.Validation("unknown time zone %q", raw)
		}
		return raw, nil
	}
	return raw, nil
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (s *Service) executeSQL(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, db.MapError(err, "report")
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]any{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, db.MapError(err, "report")
		}
		row := make(map[string]any, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "report")
	}
	return results, nil
}

// Overview gathers the dashboard counters for date (today when empty).
// The queries run concurrently and the first failure cancels the rest.
func (s *Service) Overview(ctx context.Context, date string) (*Overview, error) {
	if date == "" {
		date = s.today().Format(dateLayout)
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, apperr.Validation("date must be YYYY-MM-DD, got %q", date)
	}
	out := &Overview{Date: d.Format(dateLayout)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.scalar(gctx, &out.VisitsToday, `SELECT COUNT(*) FROM outpatient_visit WHERE visit_date = $1::date`, out.Date)
	})
	g.Go(func() error {
		return s.scalar(gctx, &out.PendingScreening,
			`SELECT COUNT(*) FROM outpatient_visit WHERE visit_date = $1::date AND assigned_department IS NULL`, out.Date)
	})
	g.Go(func() error {
		return s.scalar(gctx, &out.ActiveInpatients, `SELECT COUNT(*) FROM inpatient WHERE discharge_date IS NULL`)
	})
	g.Go(func() error {
		err := s.pool.QueryRow(gctx,
			`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_occupied) FROM bed`).Scan(&out.Beds, &out.OccupiedBeds)
		return db.MapError(err, "report")
	})
	g.Go(func() error {
		return s.scalar(gctx, &out.LowStockMedicines,
			`SELECT COUNT(*) FROM medicine WHERE stock_hundredths < ($1::float8 * 100)`, s.lowStock)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) scalar(ctx context.Context, dst *int, sql string, args ...any) error {
	return db.MapError(s.pool.QueryRow(ctx, sql, args...).Scan(dst), "report")
}

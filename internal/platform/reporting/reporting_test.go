package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

var ist = time.FixedZone("IST", 5*3600+1800)

// 2024-01-10 20:00 UTC is already 2024-01-11 in the hospital.
func clock() time.Time { return time.Date(2024, 1, 10, 20, 0, 0, 0, time.UTC) }

func newService(mock pgxmock.PgxPoolIface) *Service {
	return NewService(mock, clock, ist, 5, zerolog.Nop())
}

func TestPredefinedMeasures(t *testing.T) {
	expectedIDs := []string{
		"patient-count",
		"visits-by-department",
		"bed-occupancy-by-ward",
		"low-stock-medicines",
		"dispensations-by-day",
	}
	if len(PredefinedMeasures) != len(expectedIDs) {
		t.Fatalf("expected %d predefined measures, got %d", len(expectedIDs), len(PredefinedMeasures))
	}
	for i, expectedID := range expectedIDs {
		if PredefinedMeasures[i].ID != expectedID {
			t.Errorf("expected measure[%d].ID = %s, got %s", i, expectedID, PredefinedMeasures[i].ID)
		}
	}
}

func TestPredefinedMeasures_HaveSQL(t *testing.T) {
	for _, m := range PredefinedMeasures {
		if m.SQL == "" {
			t.Errorf("measure %s has empty SQL", m.ID)
		}
		if m.Name == "" {
			t.Errorf("measure %s has empty name", m.ID)
		}
		if m.Description == "" {
			t.Errorf("measure %s has empty description", m.ID)
		}
	}
}

func TestFindMeasure(t *testing.T) {
	for _, def := range PredefinedMeasures {
		found := FindMeasure(def.ID)
		if found == nil || found.ID != def.ID {
			t.Errorf("expected to find measure %s", def.ID)
		}
	}
	if FindMeasure("nonexistent") != nil {
		t.Error("expected nil for nonexistent measure")
	}
}

func TestEvaluate_DefaultsToHospitalToday(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM outpatient_visit v`).
		WithArgs("2024-01-11").
		WillReturnRows(pgxmock.NewRows([]string{"department", "total", "treated"}).
			AddRow("General Medicine", int64(4), int64(1)).
			AddRow("unassigned", int64(2), int64(0)))

	report, err := newService(mock).Evaluate(context.Background(), "visits-by-department", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-11", report.Parameters["date"])
	require.Len(t, report.Results, 2)
	assert.Equal(t, "General Medicine", report.Results[0]["department"])
	assert.Equal(t, int64(4), report.Results[0]["total"])
	assert.NotEqual(t, uuid.Nil, report.ReportID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluate_Parameters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM medicine`).
		WithArgs(2.5).
		WillReturnRows(pgxmock.NewRows([]string{"medicine_id", "name", "dosage_unit", "stock_quantity"}))
	mock.ExpectQuery(`FROM prescription`).
		WithArgs("2024-01-05", "2024-01-11", "IST").
		WillReturnRows(pgxmock.NewRows([]string{"day", "dispensations", "units"}).AddRow("2024-01-11", int64(3), 2.5))

	svc := newService(mock)
	report, err := svc.Evaluate(context.Background(), "low-stock-medicines", map[string]string{"threshold": "2.5"})
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.NotNil(t, report.Results)

	report, err = svc.Evaluate(context.Background(), "dispensations-by-day", map[string]string{"tz": ""})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", report.Parameters["from"])
	assert.Equal(t, 2.5, report.Results[0]["units"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluate_Rejects(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	svc := newService(mock)

	_, err = svc.Evaluate(context.Background(), "encounter-volume-by-type", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.Evaluate(context.Background(), "visits-by-department", map[string]string{"date": "11/01/2024"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Evaluate(context.Background(), "low-stock-medicines", map[string]string{"threshold": "few"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Evaluate(context.Background(), "dispensations-by-day", map[string]string{"tz": "Mars/Olympus"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverview(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`FROM outpatient_visit WHERE visit_date = \$1::date AND assigned_department IS NULL`).
		WithArgs("2024-01-11").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`FROM outpatient_visit WHERE visit_date = \$1::date$`).
		WithArgs("2024-01-11").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery(`FROM inpatient WHERE discharge_date IS NULL`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`FROM bed`).
		WillReturnRows(pgxmock.NewRows([]string{"count", "occupied"}).AddRow(20, 3))
	mock.ExpectQuery(`FROM medicine WHERE stock_hundredths`).
		WithArgs(float64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	out, err := newService(mock).Overview(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, &Overview{
		Date: "2024-01-11", VisitsToday: 6, PendingScreening: 2, ActiveInpatients: 3,
		Beds: 20, OccupiedBeds: 3, LowStockMedicines: 1,
	}, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverview_FailureSurfaces(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`FROM outpatient_visit WHERE visit_date = \$1::date AND assigned_department IS NULL`).
		WithArgs("2024-01-09").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM outpatient_visit WHERE visit_date = \$1::date$`).
		WithArgs("2024-01-09").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM inpatient`).WillReturnError(errors.New("boom"))
	mock.ExpectQuery(`FROM bed`).WillReturnRows(pgxmock.NewRows([]string{"count", "occupied"}).AddRow(0, 0))
	mock.ExpectQuery(`FROM medicine`).WithArgs(float64(5)).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	_, err = newService(mock).Overview(context.Background(), "2024-01-09")
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))

	_, err = newService(mock).Overview(context.Background(), "tomorrow")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

package inpatient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Admit(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	body := `{"name":"Meena","contact_number":"9840012345","age":42,"address":"Salem",
		"ward_id":1,"bed_id":101,"admission_date":"2024-01-12","admission_time":"10:30",
		"attender":{"name":"Kumar","relationship":"spouse","contact_number":"9840054321"}}`
	c, rec := jsonContext(e, http.MethodPost, "/api/v1/inpatientvisit", body)
	require.NoError(t, h.Admit(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data Stay `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(101), resp.Data.BedID)
	assert.Equal(t, "10:30", resp.Data.AdmissionTime)
	assert.Equal(t, "Kumar", *resp.Data.Attender.Name)
}

func TestHandler_Admit_MissingWard(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)

	c, _ := jsonContext(echo.New(), http.MethodPost, "/api/v1/inpatientvisit", `{"admission_date":"2024-01-12","bed_id":101}`)
	err := h.Admit(c)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "ward_id")
	assert.Zero(t, f.w.writes)
}

func TestHandler_DischargeWithoutBody(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	c, _ := jsonContext(e, http.MethodPost, "/api/v1/inpatientvisit", `{"name":"Meena","contact_number":"9840012345","age":42,
		"address":"Salem","ward_id":1,"bed_id":101,"admission_date":"2024-01-12"}`)
	require.NoError(t, h.Admit(c))

	rec := httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/inpatientvisit/1/discharge", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Discharge(c))
	assert.Contains(t, rec.Body.String(), `"discharge_date":"2024-01-15"`)
	assert.False(t, f.w.occupied(101))
}

func TestHandler_List(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	c, _ := jsonContext(e, http.MethodPost, "/api/v1/inpatientvisit", `{"name":"Meena","contact_number":"9840012345","age":42,
		"address":"Salem","ward_id":1,"bed_id":101,"admission_date":"2024-01-12"}`)
	require.NoError(t, h.Admit(c))

	rec := httptest.NewRecorder()
	require.NoError(t, h.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/inpatientvisit?limit=10", nil), rec)))

	var resp struct {
		Data  []Listing `json:"data"`
		Total int       `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Meena", resp.Data[0].PatientName)
	assert.Equal(t, "unspecified", resp.Data[0].PatientGender)
}

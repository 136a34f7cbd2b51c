package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

func newTestHandler() (*Handler, *Service, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), svc, echo.New()
}

func TestHandler_Create(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"name":"Asha","contact_number":"9876543210","age":8,"gender":"female","address":"12 Lake Road"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message string  `json:"message"`
		Data    Patient `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Asha", resp.Data.Name)
	assert.NotZero(t, resp.Data.ID)
}

func TestHandler_Create_BadRequest(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(`{"name":"Asha"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Create(c)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestHandler_Suggest(t *testing.T) {
	h, svc, e := newTestHandler()
	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/suggestion?number=9876", nil), rec)
	require.NoError(t, h.Suggest(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Outpatients []Patient `json:"outpatients"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Outpatients, 1)
}

func TestHandler_Suggest_EmptyResultIsArray(t *testing.T) {
	h, _, e := newTestHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/suggestion?number=555", nil), rec)
	require.NoError(t, h.Suggest(c))
	assert.JSONEq(t, `{"outpatients":[]}`, rec.Body.String())
}

func TestHandler_Get(t *testing.T) {
	h, svc, e := newTestHandler()
	p, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(p.ID, 10))
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Get_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-number")
	assert.True(t, apperr.IsKind(h.Get(c), apperr.KindValidation))
}

func TestHandler_Update(t *testing.T) {
	h, svc, e := newTestHandler()
	p, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"address":"Ward Road"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatInt(p.ID, 10))

	require.NoError(t, h.Update(c))
	assert.Contains(t, rec.Body.String(), "Ward Road")
}

func TestHandler_List(t *testing.T) {
	h, svc, e := newTestHandler()
	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/patients?limit=10", nil), rec)
	require.NoError(t, h.List(c))

	var resp struct {
		Total int `json:"total"`
		Limit int `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 10, resp.Limit)
}

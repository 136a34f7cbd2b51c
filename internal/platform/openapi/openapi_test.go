package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct{}

func (stubHandler) Discharge(c echo.Context) error { return nil }
func (stubHandler) List(c echo.Context) error      { return nil }

func newTestEcho() (*echo.Echo, *Generator) {
	e := echo.New()
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc { return next })
	h := stubHandler{}
	api.GET("/inpatientvisit", h.List)
	api.POST("/inpatientvisit/:id/discharge", h.Discharge)
	e.GET("/health", h.List)

	g := NewGenerator(e.Routes, "/api/v1", "1.0.0")
	g.RegisterRoutes(api)
	return e, g
}

func TestGenerateSpec_Structure(t *testing.T) {
	_, g := newTestEcho()
	spec := g.GenerateSpec()

	assert.Equal(t, "3.0.3", spec["openapi"])
	info := spec["info"].(map[string]interface{})
	assert.Equal(t, "1.0.0", info["version"])

	paths := spec["paths"].(map[string]map[string]interface{})
	require.Contains(t, paths, "/inpatientvisit")
	require.Contains(t, paths, "/inpatientvisit/{id}/discharge")
	assert.NotContains(t, paths, "/health")

	post := paths["/inpatientvisit/{id}/discharge"]["post"].(map[string]interface{})
	assert.Equal(t, "Discharge", post["summary"])
	assert.Equal(t, "postInpatientvisitIdDischarge", post["operationId"])
	assert.Equal(t, []string{"inpatientvisit"}, post["tags"])
	params := post["parameters"].([]map[string]interface{})
	require.Len(t, params, 1)
	assert.Equal(t, "id", params[0]["name"])
	assert.Contains(t, post, "requestBody")

	get := paths["/inpatientvisit"]["get"].(map[string]interface{})
	assert.NotContains(t, get, "parameters")
	assert.NotContains(t, get, "requestBody")
}

func TestOpenAPIPath(t *testing.T) {
	path, params := openAPIPath("/medicine/:id/restock")
	assert.Equal(t, "/medicine/{id}/restock", path)
	assert.Len(t, params, 1)

	path, params = openAPIPath("/check")
	assert.Equal(t, "/check", path)
	assert.Empty(t, params)
}

func TestRegisterRoutes_ServesDocument(t *testing.T) {
	e, _ := newTestEcho()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc.Paths, "/openapi.json")
	assert.Contains(t, doc.Paths, "/inpatientvisit/{id}/discharge")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/docs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swagger-ui")
}

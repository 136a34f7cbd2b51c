package reporting

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/auth"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/httputil"
)

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RolePharmacist))
	g.GET("/measures", h.ListMeasures)
	g.GET("/measures/:id/evaluate", h.EvaluateMeasure)
	g.GET("/overview", h.Overview)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return httputil.Respond(c, http.StatusOK, "measures fetched", PredefinedMeasures)
}

// EvaluateMeasure takes measure parameters from the query string.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	params := map[string]string{}
	for name, values := range c.QueryParams() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}
	report, err := h.svc.Evaluate(c.Request().Context(), c.Param("id"), params)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "measure evaluated", report)
}

func (h *Handler) Overview(c echo.Context) error {
	out, err := h.svc.Overview(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "overview fetched", out)
}

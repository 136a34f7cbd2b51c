package visit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/auth"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/httputil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleNurse, auth.RoleDoctor, auth.RolePharmacist))
	read.GET("/outpatientvisit/pending", h.ListPending)
	read.GET("/outpatientvisit/:id", h.Get)
	read.GET("/check", h.ListByDepartment)

	api.POST("/outpatientvisit", h.Register, auth.RequireRole(auth.RoleReceptionist))
	api.PUT("/check", h.Assign, auth.RequireRole(auth.RoleReceptionist, auth.RoleNurse, auth.RoleDoctor))
	api.PUT("/outpatientvisit/:id/diagnosis", h.RecordDiagnosis, auth.RequireRole(auth.RoleDoctor))
	api.DELETE("/outpatientvisit/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
}

type registerResponse struct {
	VisitID   int64 `json:"visit_id"`
	PatientID int64 `json:"patient_id"`
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusCreated, "outpatient visit registered",
		registerResponse{VisitID: v.ID, PatientID: v.PatientID})
}

func (h *Handler) ListPending(c echo.Context) error {
	visits, err := h.svc.ListPendingToday(c.Request().Context())
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "pending visits fetched", visits)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "visit id")
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "visit fetched", v)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "visit id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "visit deleted", nil)
}

func (h *Handler) ListByDepartment(c echo.Context) error {
	deptID, err := httputil.ParseID(c.QueryParam("department_id"), "department_id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListByDepartmentToday(c.Request().Context(), deptID)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "visits fetched", items)
}

func (h *Handler) Assign(c echo.Context) error {
	var req AssignRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.AssignDepartment(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "department assigned", v)
}

func (h *Handler) RecordDiagnosis(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "visit id")
	if err != nil {
		return err
	}
	var req DiagnosisRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	v, err := h.svc.RecordDiagnosis(c.Request().Context(), id, req.Diagnosis)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "diagnosis recorded", v)
}

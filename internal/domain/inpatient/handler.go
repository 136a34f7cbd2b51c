package inpatient

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/auth"
	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/httputil"
	"github.com/zealousMW/hospital-management-system-sub000/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleNurse, auth.RoleDoctor, auth.RolePharmacist))
	read.GET("/inpatientvisit", h.List)
	read.GET("/inpatientvisit/:id", h.Get)

	write := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleNurse, auth.RoleDoctor))
	write.POST("/inpatientvisit", h.Admit)
	write.PUT("/inpatientvisit/:id", h.Update)
	write.POST("/inpatientvisit/:id/transfer", h.Transfer)

	api.POST("/inpatientvisit/:id/discharge", h.Discharge, auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
}

func (h *Handler) Admit(c echo.Context) error {
	var req AdmitRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	stay, err := h.svc.Admit(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusCreated, "patient admitted", stay)
}

// List returns stays newest first; ?active=true hides discharged ones.
func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("active") == "true", pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse("inpatients fetched", items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "inpatient id")
	if err != nil {
		return err
	}
	stay, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "inpatient fetched", stay)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "inpatient id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	stay, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "inpatient updated", stay)
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "inpatient id")
	if err != nil {
		return err
	}
	var req DischargeRequest
	if c.Request().ContentLength != 0 {
		if err := httputil.Bind(c, &req); err != nil {
			return err
		}
	}
	stay, err := h.svc.Discharge(c.Request().Context(), id, req.DischargeDate)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "patient discharged", stay)
}

func (h *Handler) Transfer(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "inpatient id")
	if err != nil {
		return err
	}
	var req TransferRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	stay, err := h.svc.Transfer(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "patient transferred", stay)
}

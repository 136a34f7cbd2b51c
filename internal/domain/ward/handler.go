package ward

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
	read := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleNurse, auth.RoleDoctor))
	read.GET("/beds", h.ListBeds)
	read.GET("/wards", h.ListWards)
	read.GET("/wards/:id", h.GetWard)

	write := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleNurse))
	write.PUT("/beds", h.Reserve)
	write.POST("/beds/:id/release", h.Release)

	api.POST("/wards", h.CreateWard, auth.RequireRole(auth.RoleAdmin))
}

// ListBeds returns free beds of a ward, or all beds with ?all=true.
func (h *Handler) ListBeds(c echo.Context) error {
	wardID, err := httputil.ParseID(c.QueryParam("ward_id"), "ward_id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	var beds []*Bed
	if c.QueryParam("all") == "true" {
		beds, err = h.svc.ListBeds(ctx, wardID)
	} else {
		beds, err = h.svc.ListAvailableBeds(ctx, wardID)
	}
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "beds fetched", beds)
}

type reserveRequest struct {
	BedID int64 `json:"bed_id"`
}

func (h *Handler) Reserve(c echo.Context) error {
	var req reserveRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	bed, err := h.svc.Reserve(c.Request().Context(), req.BedID)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "bed reserved", bed)
}

func (h *Handler) Release(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "bed id")
	if err != nil {
		return err
	}
	bed, err := h.svc.Release(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "bed released", bed)
}

func (h *Handler) ListWards(c echo.Context) error {
	deptID, err := httputil.ParseID(c.QueryParam("department_id"), "department_id")
	if err != nil {
		return err
	}
	wards, err := h.svc.ListWardsByDepartment(c.Request().Context(), deptID)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "wards fetched", wards)
}

func (h *Handler) GetWard(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "ward id")
	if err != nil {
		return err
	}
	w, err := h.svc.GetWard(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "ward fetched", w)
}

func (h *Handler) CreateWard(c echo.Context) error {
	var w Ward
	if err := httputil.Bind(c, &w); err != nil {
		return err
	}
	if err := h.svc.CreateWard(c.Request().Context(), &w); err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusCreated, "ward created", w)
}

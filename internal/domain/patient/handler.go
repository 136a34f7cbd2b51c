package patient

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
	read := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse, auth.RolePharmacist))
	read.GET("/suggestion", h.Suggest)
	read.GET("/patients", h.List)
	read.GET("/patients/:id", h.Get)

	write := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleNurse))
	write.POST("/patients", h.Create)
	write.PUT("/patients/:id", h.Update)
}

func (h *Handler) Suggest(c echo.Context) error {
	patients, err := h.svc.SuggestByPhonePrefix(c.Request().Context(), c.QueryParam("number"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"outpatients": patients})
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusCreated, "patient registered", p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "patient id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "patient fetched", p)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "patient id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "patient updated", p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse("patients fetched", items, total, pg))
}

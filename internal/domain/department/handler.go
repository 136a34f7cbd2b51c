package department

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
	api.GET("/departments", h.List)
	api.GET("/departments/:id", h.Get)
	api.POST("/departments", h.Create, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Create(c echo.Context) error {
	var d Department
	if err := httputil.Bind(c, &d); err != nil {
		return err
	}
	if err := h.svc.Create(c.Request().Context(), &d); err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusCreated, "department created", d)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "department id")
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "department fetched", d)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "departments fetched", items)
}

package pharmacy

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
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
	read := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RolePharmacist))
	read.GET("/medicine", h.ListMedicines)
	read.GET("/medicine/:id", h.GetMedicine)
	read.GET("/prescription", h.ListLines)

	stock := api.Group("", auth.RequireRole(auth.RolePharmacist))
	stock.POST("/medicine", h.CreateMedicine)
	stock.PUT("/medicine", h.SetStock)
	stock.POST("/medicine/:id/restock", h.Restock)
	stock.PUT("/prescription", h.UpdateLine)
	stock.POST("/prescription/dispense", h.DispenseBatch)

	api.POST("/prescription", h.AddLine, auth.RequireRole(auth.RoleDoctor))
}

func (h *Handler) ListMedicines(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedicines(c.Request().Context(), c.QueryParam("search"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse("medicines fetched", items, total, pg))
}

func (h *Handler) GetMedicine(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "medicine id")
	if err != nil {
		return err
	}
	m, err := h.svc.GetMedicine(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "medicine fetched", m)
}

func (h *Handler) CreateMedicine(c echo.Context) error {
	var req CreateMedicineRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	m, err := h.svc.CreateMedicine(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusCreated, "medicine added", m)
}

func (h *Handler) SetStock(c echo.Context) error {
	var req SetStockRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	m, err := h.svc.SetStock(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "stock updated", m)
}

func (h *Handler) Restock(c echo.Context) error {
	id, err := httputil.ParseID(c.Param("id"), "medicine id")
	if err != nil {
		return err
	}
	var req RestockRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	m, err := h.svc.Restock(c.Request().Context(), id, req.Quantity)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "medicine restocked", m)
}

func (h *Handler) AddLine(c echo.Context) error {
	var req AddLineRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	l, err := h.svc.AddLine(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusCreated, "prescription added", l)
}

// ListLines lists the prescription of a visit (?visit_id=) or of an
// inpatient stay (?inpatient_id=).
func (h *Handler) ListLines(c echo.Context) error {
	visitID, hasVisit, err := httputil.OptionalID(c.QueryParam("visit_id"), "visit_id")
	if err != nil {
		return err
	}
	stayID, hasStay, err := httputil.OptionalID(c.QueryParam("inpatient_id"), "inpatient_id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var items []*Entry
	switch {
	case hasVisit && hasStay:
		return apperr.Validation("give either visit_id or inpatient_id, not both")
	case hasVisit:
		items, err = h.svc.ListForVisit(ctx, visitID)
	case hasStay:
		items, err = h.svc.ListForStay(ctx, stayID)
	default:
		return apperr.Validation("one of visit_id or inpatient_id is required")
	}
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "prescription fetched", items)
}

type updateLineRequest struct {
	IsReceived *bool `json:"is_received"`
}

// UpdateLine dispenses the line when is_received is true and only clears
// the flag when it is false.
func (h *Handler) UpdateLine(c echo.Context) error {
	id, err := httputil.ParseID(c.QueryParam("prescriptionId"), "prescriptionId")
	if err != nil {
		return err
	}
	var req updateLineRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	if req.IsReceived == nil {
		return apperr.Validation("is_received is required")
	}

	ctx := c.Request().Context()
	if *req.IsReceived {
		res, err := h.svc.Dispense(ctx, id)
		if err != nil {
			return err
		}
		return httputil.Respond(c, http.StatusOK, "prescription dispensed", res)
	}
	l, err := h.svc.MarkReceived(ctx, id, false)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "prescription updated", l)
}

type batchRequest struct {
	IDs []int64 `json:"ids"`
}

func (h *Handler) DispenseBatch(c echo.Context) error {
	var req batchRequest
	if err := httputil.Bind(c, &req); err != nil {
		return err
	}
	results, err := h.svc.DispenseBatch(c.Request().Context(), req.IDs)
	if err != nil {
		return err
	}
	return httputil.Respond(c, http.StatusOK, "batch processed", results)
}

package billing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
	"github.com/mariyask04/Clinic-Management/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor))
	read.GET("/visits/:id/bill", h.GetBill)
	read.GET("/bills/:id", h.GetBillByID)

	write := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	write.POST("/visits/:id/bill", h.GenerateBill)
	write.POST("/bills/:id/pay", h.MarkPaid)
}

// generateRequest accepts explicit line items or the fixed fee fields of
// the older billing form. Any client total is ignored.
type generateRequest struct {
	PatientID       uuid.UUID        `json:"patient_id"`
	LineItems       []LineItem       `json:"line_items"`
	ConsultationFee *decimal.Decimal `json:"consultation_fee"`
	MedicineFee     *decimal.Decimal `json:"medicine_fee"`
	OtherCharges    *decimal.Decimal `json:"other_charges"`
}

func (r generateRequest) items() []LineItem {
	items := append([]LineItem(nil), r.LineItems...)
	fees := []struct {
		desc   string
		amount *decimal.Decimal
	}{
		{"Consultation fee", r.ConsultationFee},
		{"Medicine fee", r.MedicineFee},
		{"Other charges", r.OtherCharges},
	}
	for _, f := range fees {
		if f.amount != nil {
			items = append(items, LineItem{Description: f.desc, Amount: *f.amount})
		}
	}
	return items
}

func (h *Handler) GenerateBill(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	b, err := h.svc.GenerateBill(c.Request().Context(), visitID, req.PatientID, req.items())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBill(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetByVisit(c.Request().Context(), visitID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) GetBillByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) MarkPaid(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, b)
}

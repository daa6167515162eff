package history

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mariyask04/Clinic-Management/internal/domain/visit"
	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
	"github.com/mariyask04/Clinic-Management/internal/platform/auth"
	"github.com/mariyask04/Clinic-Management/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	read.GET("/history", h.Query)
	read.GET("/visits/:id/detail", h.Detail)
	read.GET("/queue/today", h.TodayQueue)
	read.GET("/patients/:patientId/history", h.PatientHistory)

	billingDesk := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	billingDesk.GET("/billing/pending", h.PendingBilling)
}

func parseDay(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	d, err := visit.ParseDay(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be YYYY-MM-DD")
	}
	return &d, nil
}

// statusParam treats "all" and "" as no filter.
func statusParam(c echo.Context) visit.Status {
	s := strings.TrimSpace(c.QueryParam("status"))
	if s == "" || s == "all" {
		return ""
	}
	return visit.Status(s)
}

func (h *Handler) Query(c echo.Context) error {
	f := visit.SearchFilter{
		Search: c.QueryParam("search"),
		Status: statusParam(c),
	}
	var err error
	if f.From, err = parseDay(c, "from"); err != nil {
		return err
	}
	if f.To, err = parseDay(c, "to"); err != nil {
		return err
	}
	// A single date narrows to that day.
	if f.From == nil && f.To == nil {
		if f.From, err = parseDay(c, "date"); err != nil {
			return err
		}
		f.To = f.From
	}
	if raw := c.QueryParam("patient_id"); raw != "" {
		if f.PatientID, err = uuid.Parse(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
	}
	f.Unbilled = c.QueryParam("unbilled") == "true"

	pg := pagination.FromContext(c)
	entries, total, err := h.svc.Query(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg))
}

func (h *Handler) Detail(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.Detail(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) TodayQueue(c echo.Context) error {
	entries, err := h.svc.TodayQueue(c.Request().Context(), statusParam(c))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": entries, "total": len(entries)})
}

func (h *Handler) PendingBilling(c echo.Context) error {
	entries, err := h.svc.PendingBilling(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": entries, "total": len(entries)})
}

func (h *Handler) PatientHistory(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	entries, total, err := h.svc.PatientHistory(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg))
}

package prescription

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mariyask04/Clinic-Management/internal/domain/visit"
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
	read := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	read.GET("/visits/:id/prescription", h.GetPrescription)

	write := api.Group("", auth.RequireRole(auth.RoleDoctor))
	write.POST("/visits/:id/prescription", h.CreatePrescription)
}

type createRequest struct {
	PatientID    uuid.UUID  `json:"patient_id"`
	Diagnosis    string     `json:"diagnosis"`
	Medicines    []Medicine `json:"medicines"`
	Advice       string     `json:"advice"`
	FollowUpDate string     `json:"follow_up_date"`
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}

	d := Details{Diagnosis: req.Diagnosis, Medicines: req.Medicines, Advice: req.Advice}
	if req.FollowUpDate != "" {
		day, err := time.Parse(visit.DateLayout, req.FollowUpDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "follow_up_date must be YYYY-MM-DD")
		}
		d.FollowUpDate = &day
	}

	ctx := c.Request().Context()
	p, err := h.svc.CreatePrescription(ctx, visitID, req.PatientID, auth.UserIDFromContext(ctx), d)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetByVisit(c.Request().Context(), visitID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

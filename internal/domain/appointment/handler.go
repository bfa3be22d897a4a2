package appointment

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caresched/caresched/internal/domain/availability"
	"github.com/caresched/caresched/internal/domain/slot"
	"github.com/caresched/caresched/internal/platform/directory"
	"github.com/caresched/caresched/internal/platform/lock"
	"github.com/caresched/caresched/pkg/pagination"
	"github.com/caresched/caresched/pkg/timerange"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Create)
	api.GET("/appointments", h.List)
	api.GET("/appointments/:id", h.Get)
	api.PUT("/appointments/:id", h.Update)
	api.DELETE("/appointments/:id", h.Remove)
	api.PATCH("/appointments/:id/status", h.SetStatus)
	api.POST("/appointments/:id/reschedule", h.Reschedule)
}

type createRequest struct {
	PatientID       uuid.UUID       `json:"patient_id" validate:"required"`
	ProviderID      uuid.UUID       `json:"provider_id" validate:"required"`
	ScheduledStart  time.Time       `json:"scheduled_start" validate:"required"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,gt=0"`
	Reason          *string         `json:"reason"`
	Priority        Priority        `json:"priority" validate:"omitempty,oneof=normal urgent emergency"`
	SlotID          *uuid.UUID      `json:"slot_id"`
	AvailabilityID  *uuid.UUID      `json:"availability_id"`
	Vitals          json.RawMessage `json:"vitals"`
	Notes           *string         `json:"notes"`
}

func (req *createRequest) toModel() *Appointment {
	return &Appointment{
		PatientID:       req.PatientID,
		ProviderID:      req.ProviderID,
		ScheduledStart:  req.ScheduledStart,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
		Priority:        req.Priority,
		SlotID:          req.SlotID,
		AvailabilityID:  req.AvailabilityID,
		Vitals:          req.Vitals,
		Notes:           req.Notes,
	}
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a := req.toModel()
	if err := h.svc.Create(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

type updateRequest struct {
	ScheduledStart  time.Time       `json:"scheduled_start"`
	DurationMinutes int             `json:"duration_minutes"`
	Reason          *string         `json:"reason"`
	Priority        Priority        `json:"priority" validate:"omitempty,oneof=normal urgent emergency"`
	Diagnosis       *string         `json:"diagnosis"`
	Prescription    *string         `json:"prescription"`
	Vitals          json.RawMessage `json:"vitals"`
	Notes           *string         `json:"notes"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a := &Appointment{
		ID:              id,
		ScheduledStart:  req.ScheduledStart,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
		Priority:        req.Priority,
		Diagnosis:       req.Diagnosis,
		Prescription:    req.Prescription,
		Vitals:          req.Vitals,
		Notes:           req.Notes,
	}
	if err := h.svc.Update(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type statusRequest struct {
	Status Status  `json:"status" validate:"required"`
	Reason *string `json:"reason"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetStatus(c.Request().Context(), id, req.Status, req.Reason); err != nil {
		return httpError(err)
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	replacement := req.toModel()
	if err := h.svc.Reschedule(c.Request().Context(), id, replacement); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, replacement)
}

func (h *Handler) Remove(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Remove(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List dispatches on provider_id, patient_id, status, from/to, and
// view=today|upcoming filters.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)

	var (
		items []*Detail
		total int
		err   error
	)
	switch {
	case c.QueryParam("view") == "today":
		items, total, err = h.svc.FindToday(ctx, pg.Limit, pg.Offset)
	case c.QueryParam("view") == "upcoming":
		items, total, err = h.svc.FindUpcoming(ctx, pg.Limit, pg.Offset)
	case c.QueryParam("provider_id") != "":
		var providerID uuid.UUID
		providerID, err = uuid.Parse(c.QueryParam("provider_id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid provider_id")
		}
		items, total, err = h.svc.FindByProvider(ctx, providerID, pg.Limit, pg.Offset)
	case c.QueryParam("patient_id") != "":
		var patientID uuid.UUID
		patientID, err = uuid.Parse(c.QueryParam("patient_id"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err = h.svc.FindByPatient(ctx, patientID, pg.Limit, pg.Offset)
	case c.QueryParam("status") != "":
		items, total, err = h.svc.FindByStatus(ctx, Status(c.QueryParam("status")), pg.Limit, pg.Offset)
	case c.QueryParam("from") != "" && c.QueryParam("to") != "":
		var from, to time.Time
		from, err = time.Parse(time.RFC3339, c.QueryParam("from"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from")
		}
		to, err = time.Parse(time.RFC3339, c.QueryParam("to"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to")
		}
		items, total, err = h.svc.FindByDateRange(ctx, from, to, pg.Limit, pg.Offset)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "a filter is required: provider_id, patient_id, status, from/to, or view")
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func httpError(err error) error {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		return echo.NewHTTPError(http.StatusConflict, conflict.Error())
	case errors.Is(err, lock.ErrNotAcquired), errors.Is(err, slot.ErrSlotTaken), errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound),
		errors.Is(err, directory.ErrProviderNotFound),
		errors.Is(err, directory.ErrPatientNotFound),
		errors.Is(err, slot.ErrNotFound),
		errors.Is(err, availability.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, timerange.ErrInvalidRange):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

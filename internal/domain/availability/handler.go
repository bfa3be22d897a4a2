package availability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caresched/caresched/internal/platform/directory"
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
	api.POST("/availability", h.Declare)
	api.GET("/availability", h.List)
	api.GET("/availability/:id", h.Get)
	api.PUT("/availability/:id", h.Update)
	api.DELETE("/availability/:id", h.Remove)
	api.POST("/availability/:id/book", h.Book)
	api.POST("/availability/:id/release", h.Release)
	api.POST("/availability/:id/cancel", h.Cancel)
}

type declareRequest struct {
	ProviderID uuid.UUID `json:"provider_id" validate:"required"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
	Kind       Kind      `json:"kind" validate:"omitempty,oneof=regular emergency"`
	Notes      *string   `json:"notes"`
}

func (h *Handler) Declare(c echo.Context) error {
	var req declareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a := &Availability{
		ProviderID: req.ProviderID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Kind:       req.Kind,
		Notes:      req.Notes,
	}
	if err := h.svc.Declare(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req declareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a := &Availability{
		ID:        id,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Kind:      req.Kind,
		Notes:     req.Notes,
	}
	if err := h.svc.Update(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
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

func (h *Handler) Book(c echo.Context) error {
	return h.setStatus(c, h.svc.MarkBooked)
}

func (h *Handler) Release(c echo.Context) error {
	return h.setStatus(c, h.svc.MarkAvailable)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.setStatus(c, h.svc.Cancel)
}

func (h *Handler) setStatus(c echo.Context, fn func(ctx context.Context, id uuid.UUID) error) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := fn(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// List supports provider_id, from/to (RFC3339), and available=true filters.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)
	onlyAvailable := c.QueryParam("available") == "true"

	providerParam := c.QueryParam("provider_id")
	fromParam, toParam := c.QueryParam("from"), c.QueryParam("to")

	if providerParam == "" {
		if !onlyAvailable {
			return echo.NewHTTPError(http.StatusBadRequest, "provider_id or available=true is required")
		}
		items, total, err := h.svc.ListAvailable(ctx, pg.Limit, pg.Offset)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	providerID, err := uuid.Parse(providerParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid provider_id")
	}

	if fromParam != "" || toParam != "" {
		from, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from")
		}
		to, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to")
		}
		var (
			items []*Availability
			total int
		)
		if onlyAvailable {
			items, total, err = h.svc.ListAvailableByDateRange(ctx, providerID, from, to, pg.Limit, pg.Offset)
		} else {
			items, total, err = h.svc.ListByDateRange(ctx, providerID, from, to, pg.Limit, pg.Offset)
		}
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	items, total, err := h.svc.ListForProvider(ctx, providerID, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, directory.ErrProviderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrOverlap), errors.Is(err, ErrWindowBooked):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, timerange.ErrInvalidRange), errors.Is(err, ErrInvalidKind):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

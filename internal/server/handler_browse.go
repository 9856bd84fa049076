package server

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
	"github.com/joseph-ayodele/gym-slots/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListAreas returns area names, sorted.
func (h *Handler) ListAreas(c echo.Context) error {
	areas, err := h.deps.Areas.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	names := make([]string, 0, len(areas))
	for _, a := range areas {
		names = append(names, a.Name)
	}
	sort.Strings(names)
	return c.JSON(http.StatusOK, names)
}

// ListSports returns the sport vocabulary, sorted.
func (h *Handler) ListSports(c echo.Context) error {
	sports, err := h.deps.Sports.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	names := make([]string, 0, len(sports))
	for _, s := range sports {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return c.JSON(http.StatusOK, names)
}

// ListGyms filters gyms by area name and sport tag. An unknown area yields
// an empty list.
func (h *Handler) ListGyms(c echo.Context) error {
	ctx := c.Request().Context()
	filter := repository.GymFilter{Sport: strings.TrimSpace(c.QueryParam("sport"))}

	if name := strings.TrimSpace(c.QueryParam("area")); name != "" {
		area, err := h.deps.Areas.GetByName(ctx, name)
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"total": 0, "items": []entity.Gym{}})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		filter.AreaID = area.ID
	}

	gyms, err := h.deps.Gyms.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if gyms == nil {
		gyms = []entity.Gym{}
	}
	return c.JSON(http.StatusOK, echo.Map{"total": len(gyms), "items": gyms})
}

func (h *Handler) GetGym(c echo.Context) error {
	gym, err := h.deps.Gyms.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "gym not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, gym)
}

// ListOpenSlots returns stored slots for an optional gym and inclusive
// date window.
func (h *Handler) ListOpenSlots(c echo.Context) error {
	from, to, err := dateWindow(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	filter := repository.OpenSlotFilter{GymID: strings.TrimSpace(c.QueryParam("gym_id"))}
	if from != nil {
		filter.From = from.Format(time.DateOnly)
	}
	if to != nil {
		filter.To = to.Format(time.DateOnly)
	}

	slots, err := h.deps.Slots.List(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if slots == nil {
		slots = []entity.OpenSlot{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": slots})
}

// ExportOpenSlots streams an XLSX workbook. With only from set the window
// ends today.
func (h *Handler) ExportOpenSlots(c echo.Context) error {
	from, to, err := dateWindow(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	gymRef := strings.TrimSpace(c.QueryParam("gym_id"))

	b, err := h.deps.Exporter.ExportOpenSlotsXLSX(c.Request().Context(), gymRef, from, to)
	if err != nil {
		h.logger.Error("http.export.failed", "gym_id", gymRef, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="open_slots.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, b)
}

func dateWindow(c echo.Context) (from, to *time.Time, err error) {
	parse := func(key string) (*time.Time, error) {
		raw := strings.TrimSpace(c.QueryParam(key))
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be YYYY-MM-DD", key)
		}
		return &t, nil
	}
	if from, err = parse("from"); err != nil {
		return nil, nil, err
	}
	if to, err = parse("to"); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, errors.New("to must not be before from")
	}
	return from, to, nil
}

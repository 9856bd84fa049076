package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/gym-slots/constants"
	"github.com/joseph-ayodele/gym-slots/internal/async"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/entity"
	"github.com/joseph-ayodele/gym-slots/internal/pipeline"
)

const maxSourceURLLength = 2048

type parsePDFRequest struct {
	SourceID string `json:"sourceId"`
	URL      string `json:"url"`
}

type parsePDFResponse struct {
	Success     bool     `json:"success"`
	GymID       string   `json:"gymId"`
	SlotsAdded  int      `json:"slotsAdded"`
	SlotsFailed int      `json:"slotsFailed"`
	Errors      []string `json:"errors"`
}

// ParsePDF runs a synchronous ingestion of one source document.
func (h *Handler) ParsePDF(c echo.Context) error {
	var req parsePDFRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sourceId and url are required"})
	}
	req.SourceID = strings.TrimSpace(req.SourceID)
	req.URL = strings.TrimSpace(req.URL)
	if req.SourceID == "" || req.URL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sourceId and url are required"})
	}

	res, err := h.deps.Ingester.Ingest(c.Request().Context(), pipeline.Request{SourceID: req.SourceID, URL: req.URL})
	if err != nil {
		h.logger.Error("http.parse_pdf.failed", "source_id", req.SourceID, "url", req.URL, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to parse PDF",
			"message": err.Error(),
		})
	}

	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	return c.JSON(http.StatusOK, parsePDFResponse{
		Success:     true,
		GymID:       res.GymID,
		SlotsAdded:  res.SlotsAdded,
		SlotsFailed: res.SlotsFailed,
		Errors:      errs,
	})
}

type createSourceRequest struct {
	URL    string `json:"url"`
	Type   string `json:"type"`
	Ingest bool   `json:"ingest"`
}

// CreateSource registers a schedule URL and optionally queues its ingestion.
func (h *Handler) CreateSource(c echo.Context) error {
	var req createSourceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "URLを入力してください"})
	}
	v := common.NewValidator().Field("url", req.URL, common.HTTPURL, common.MaxLength(maxSourceURLLength))
	if req.Type != "" {
		v.Field("type", req.Type, common.OneOf(string(constants.SourcePDF), string(constants.SourceWeb)))
	}
	if v.HasErrors() {
		if v.Errors()[0].Field == "url" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "有効なURLを入力してください"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": v.ErrorMessage()})
	}

	ctx := c.Request().Context()
	src, err := h.deps.Sources.Create(ctx, &entity.Source{
		URL:           req.URL,
		Type:          constants.SourceType(req.Type),
		ParserVersion: h.deps.ParserVersion,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	queued := false
	if req.Ingest && h.deps.Queue != nil {
		err := h.deps.Queue.Enqueue(ctx, async.Job{
			SourceID:    src.ID,
			URL:         src.URL,
			SubmittedAt: time.Now().UTC(),
			RequestID:   c.Response().Header().Get(echo.HeaderXRequestID),
		})
		switch {
		case err == nil:
			queued = true
		case errors.Is(err, async.ErrQueueFull), errors.Is(err, async.ErrQueueClosed):
			h.logger.Warn("http.source.enqueue_failed", "source_id", src.ID, "error", err)
		default:
			h.logger.Error("http.source.enqueue_failed", "source_id", src.ID, "error", err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":     src.ID,
		"url":    src.URL,
		"type":   src.Type,
		"queued": queued,
	})
}

func (h *Handler) GetSource(c echo.Context) error {
	src, err := h.deps.Sources.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "source not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, src)
}

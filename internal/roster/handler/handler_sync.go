package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cfroster/internal/roster/model"
)

// PostSyncRun handles POST /sync/run. The run is accepted and continues in
// the background; the returned run id is pollable via status and history.
func (h *RosterHandler) PostSyncRun(c echo.Context) error {
	runID, err := h.Sync.StartAsync(model.TriggerManual)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"run_id": runID})
}

// GetSyncStatus handles GET /sync/status
func (h *RosterHandler) GetSyncStatus(c echo.Context) error {
	status, err := h.Sync.Status(c.Request().Context())
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, status)
}

// GetSyncRuns handles GET /sync/runs
func (h *RosterHandler) GetSyncRuns(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Sync.History())
}

// GetSyncStaleness handles GET /sync/staleness
func (h *RosterHandler) GetSyncStaleness(c echo.Context) error {
	staleness, err := h.Students.Staleness(c.Request().Context())
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, staleness)
}

// PutSyncSettings handles PUT /sync/settings
func (h *RosterHandler) PutSyncSettings(c echo.Context) error {
	var req model.UpdateSyncSettingsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid body"},
		})
	}

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, validationError(err))
	}

	cfg, err := h.Settings.UpdateSettings(c.Request().Context(), &req)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, cfg)
}

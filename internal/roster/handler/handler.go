package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cfroster/internal/roster/model"
	"cfroster/internal/roster/service"
)

type RosterHandler struct {
	Students service.RosterService
	Sync     service.SyncRunner
	Settings service.SettingsUpdater
}

func NewRosterHandler(students service.RosterService, sync service.SyncRunner, settings service.SettingsUpdater) *RosterHandler {
	return &RosterHandler{Students: students, Sync: sync, Settings: settings}
}

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// PostStudent handles POST /students
func (h *RosterHandler) PostStudent(c echo.Context) error {
	var req model.CreateStudentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid body"},
		})
	}

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, validationError(err))
	}

	student, err := h.Students.CreateStudent(c.Request().Context(), &req)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}

	return c.JSON(http.StatusCreated, student)
}

// GetStudents handles GET /students
func (h *RosterHandler) GetStudents(c echo.Context) error {
	students, err := h.Students.ListStudents(c.Request().Context())
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, students)
}

// GetStudent handles GET /students/:handle
func (h *RosterHandler) GetStudent(c echo.Context) error {
	student, err := h.Students.GetStudent(c.Request().Context(), c.Param("handle"))
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, student)
}

// PutStudent handles PUT /students/:handle
func (h *RosterHandler) PutStudent(c echo.Context) error {
	var req model.UpdateStudentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid body"},
		})
	}

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, validationError(err))
	}

	student, err := h.Students.UpdateStudent(c.Request().Context(), c.Param("handle"), &req)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, student)
}

// DeleteStudent handles DELETE /students/:handle
func (h *RosterHandler) DeleteStudent(c echo.Context) error {
	if err := h.Students.DeleteStudent(c.Request().Context(), c.Param("handle")); err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// PostStudentsBulk handles POST /students/bulk
func (h *RosterHandler) PostStudentsBulk(c echo.Context) error {
	var req model.BulkImportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid body"},
		})
	}

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, validationError(err))
	}

	result, err := h.Students.BulkImport(c.Request().Context(), &req)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, result)
}

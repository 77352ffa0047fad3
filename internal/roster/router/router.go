package router

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cfroster/internal/roster/handler"
)

func RegisterRoutes(e *echo.Echo, h *handler.RosterHandler) {
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")
	v1.Use(handler.RequestIDMiddleware)

	// Student CRUD
	v1.POST("/students", h.PostStudent)
	v1.POST("/students/bulk", h.PostStudentsBulk)
	v1.GET("/students", h.GetStudents)
	v1.GET("/students/:handle", h.GetStudent)
	v1.PUT("/students/:handle", h.PutStudent)
	v1.DELETE("/students/:handle", h.DeleteStudent)

	// Sync administration
	v1.POST("/sync/run", h.PostSyncRun)
	v1.GET("/sync/status", h.GetSyncStatus)
	v1.GET("/sync/runs", h.GetSyncRuns)
	v1.GET("/sync/staleness", h.GetSyncStaleness)
	v1.PUT("/sync/settings", h.PutSyncSettings)
}

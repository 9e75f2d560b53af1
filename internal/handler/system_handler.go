package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIVersion is reported by the root endpoint.
const APIVersion = "1.0.0"

type SystemHandler struct{}

func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// RootHandler returns the service banner.
func (h *SystemHandler) RootHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Hiring Analytics API",
		"version": APIVersion,
		"docs":    "/docs/index.html",
	})
}

func (h *SystemHandler) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

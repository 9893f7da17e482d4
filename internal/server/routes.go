package server

import "github.com/labstack/echo/v4"

func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.POST("/api/v1/events", h.PostEvent)
	e.POST("/api/v1/jobs", h.PostJob)
	e.GET("/api/v1/jobs/:id", h.GetJob)
}

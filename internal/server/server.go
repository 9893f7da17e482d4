package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kjusys/script-intake/internal/common"
)

// NewHTTPServer builds the echo instance with the intake routes mounted.
func NewHTTPServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(requestIDIntoContext)

	RegisterRoutes(e, h)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}

// requestIDIntoContext copies the request id assigned by the RequestID
// middleware into the request context, so log lines further down can
// correlate with the response header.
func requestIDIntoContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		ctx := common.WithRequestID(c.Request().Context(), rid)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

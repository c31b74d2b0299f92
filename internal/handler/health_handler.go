package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers GET /health with a bare 200, per spec §6.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

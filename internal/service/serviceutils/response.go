// Package serviceutils holds response helpers shared by the HTTP handlers.
package serviceutils

import (
	"github.com/labstack/echo/v4"

	"github.com/locvowork/hiring_analytics/internal/logger"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ResponseError logs err and writes {"detail": msg} with the given status.
// When msg is empty the error text itself is used as the detail.
func ResponseError(c echo.Context, status int, msg string, err error) error {
	ctx := c.Request().Context()
	detail := msg
	if detail == "" && err != nil {
		detail = err.Error()
	}
	switch {
	case status < 500:
		logger.WarnLog(ctx, "%s: %v", detail, err)
	case err != nil:
		logger.ErrorLog(ctx, detail, err)
	default:
		logger.ErrorLog(ctx, "%s", detail)
	}
	return c.JSON(status, ErrorResponse{Detail: detail})
}

// ResponseSuccess writes data as the JSON body.
func ResponseSuccess(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, data)
}

// Package respond implements the response envelope every endpoint returns:
//
//	{success: bool, status: int, message: string, data: any, meta?: {...}}
//
// Errors, including unknown routes, use the same shape. The frontend service
// layer assumes this contract, so it must not vary per endpoint.
package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/curex40/curex40/internal/platform/apperr"
)

type Envelope struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Meta    any    `json:"meta,omitempty"`
}

func OK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{
		Success: true,
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// OKPaged is OK with a meta block, used for paginated lists.
func OKPaged(c echo.Context, status int, message string, data, meta any) error {
	return c.JSON(status, Envelope{
		Success: true,
		Status:  status,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

// HTTPErrorHandler builds the echo error handler that renders every error in
// the envelope shape: typed apperr errors, echo.HTTPError (404 route misses,
// 405s), and unknown failures. 5xx messages are not leaked to clients.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := apperr.HTTPStatus(err)
		message := err.Error()

		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			}
		}

		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
			message = "internal server error"
		}

		_ = c.JSON(status, Envelope{
			Success: false,
			Status:  status,
			Message: message,
			Data:    nil,
		})
	}
}

// Package routes holds the response envelope shared by the record store
// handlers. Every endpoint wraps its payload in a status/data envelope so
// application-level rejections are distinguishable from transport failures.
package routes

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
)

// Envelope wraps every record store response.
type Envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK writes a success envelope with the given payload.
func OK(c echo.Context, code int, data any) error {
	return c.JSON(code, Envelope{Status: true, Data: data})
}

// Fail writes a rejection envelope with the given message.
func Fail(c echo.Context, code int, message string) error {
	return c.JSON(code, Envelope{Status: false, Message: message})
}

// NotFound writes the standard missing-record rejection.
func NotFound(c echo.Context, what string) error {
	return Fail(c, http.StatusNotFound, what+" not found")
}

// ErrorHandler converts unhandled errors into rejection envelopes. Echo's own
// HTTP errors keep their code; everything else is an internal error.
func ErrorHandler(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "internal error"
		if httpErr, ok := err.(*echo.HTTPError); ok {
			code = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				message = msg
			}
		}

		if code >= http.StatusInternalServerError {
			logger.WithContext(c.Request().Context()).WithError(err).Error("request failed")
		}

		if writeErr := Fail(c, code, message); writeErr != nil {
			logger.WithError(writeErr).Error("failed to write error response")
		}
	}
}

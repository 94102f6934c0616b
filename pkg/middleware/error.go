package middleware

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Message   string         `json:"message"`
	Kind      string         `json:"kind,omitempty"`
	RequestID string         `json:"request_id"`
	TraceID   string         `json:"trace_id"`
	Meta      map[string]any `json:"meta"`
}

func Error(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		logger.WithContext(ctx).WithError(err).Error("api is returning an error")
		// Check if the response is already committed
		if c.Response().Committed {
			return
		}

		// Default response
		code := http.StatusInternalServerError
		message := "Internal Server Error"
		kind := ""
		meta := map[string]any{}

		// Handle specific Echo errors
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}

		if ok := httperror.IsHTTPError(err); ok {
			httperr := httperror.ToHTTPError(err)
			code = httperror.GetStatusCode(err)
			message = httperr.Error()
			meta = httperr.Meta
		}

		switch {
		case errors.Is(err, models.ErrRowNotFound), errors.Is(err, models.ErrTypeNotFound):
			code = http.StatusNotFound
			message = err.Error()
		case errors.Is(err, models.ErrRowBusy), errors.Is(err, models.ErrNotEditing):
			code = http.StatusConflict
			message = err.Error()
		case errors.Is(err, models.ErrConfirmationRequired):
			code = http.StatusBadRequest
			message = err.Error()
		}

		// Mutation errors carry their own taxonomy and map onto HTTP codes
		var mutErr *models.MutationError
		if errors.As(err, &mutErr) {
			kind = string(mutErr.Kind)
			message = mutErr.Error()
			switch mutErr.Kind {
			case models.ErrorKindValidation:
				code = http.StatusUnprocessableEntity
				if mutErr.Field != "" {
					meta["field"] = mutErr.Field
				}
			case models.ErrorKindRemoteRejected:
				code = http.StatusBadGateway
			case models.ErrorKindNetworkUnavailable:
				code = http.StatusServiceUnavailable
			}
		}

		requestID := context.GetRequestID(ctx)
		traceID := tracing.GetTraceID(ctx)

		// Return a JSON response
		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			Kind:      kind,
			RequestID: requestID,
			TraceID:   traceID,
			Meta:      meta,
		})
	}
}

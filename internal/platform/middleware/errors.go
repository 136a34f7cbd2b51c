package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string      `json:"error"`
	Kind      apperr.Kind `json:"kind"`
	Detail    string      `json:"detail,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorHandler renders apperr kinds and echo.HTTPErrors as ErrorBody.
// Store diagnostics are only included when exposeDetail is set.
func ErrorHandler(logger zerolog.Logger, exposeDetail bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		rid, _ := c.Get("request_id").(string)
		body := ErrorBody{RequestID: rid}
		status := http.StatusInternalServerError

		var he *echo.HTTPError
		var ae *apperr.Error
		switch {
		case errors.As(err, &ae):
			status = apperr.StatusCode(ae.Kind)
			body.Kind = ae.Kind
			body.Error = ae.Message
			if exposeDetail {
				body.Detail = ae.Detail
			}
		case errors.As(err, &he):
			status = he.Code
			body.Kind = kindForStatus(he.Code)
			if msg, ok := he.Message.(string); ok {
				body.Error = msg
			} else {
				body.Error = http.StatusText(he.Code)
			}
		default:
			body.Kind = apperr.KindInternal
			body.Error = "internal server error"
			if exposeDetail {
				body.Detail = err.Error()
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("request_id", rid).Int("status", status).Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Str("request_id", rid).Msg("write error response")
		}
	}
}

func kindForStatus(code int) apperr.Kind {
	switch {
	case code == http.StatusNotFound:
		return apperr.KindNotFound
	case code == http.StatusConflict:
		return apperr.KindConflict
	case code == http.StatusServiceUnavailable:
		return apperr.KindUnavailable
	case code == http.StatusGatewayTimeout:
		return apperr.KindTimeout
	case code >= 500:
		return apperr.KindInternal
	default:
		return apperr.KindValidation
	}
}

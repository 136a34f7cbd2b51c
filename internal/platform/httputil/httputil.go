// Package httputil holds request parsing and response helpers shared by the
// domain handlers.
package httputil

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/apperr"
)

// Envelope is the success body of every endpoint.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Message: message, Data: data})
}

// ParseID parses a positive numeric identifier from a path or query value.
func ParseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s %q", what, raw)
	}
	return id, nil
}

// OptionalID parses raw when present. ok is false for an empty value.
func OptionalID(raw, what string) (id int64, ok bool, err error) {
	if strings.TrimSpace(raw) == "" {
		return 0, false, nil
	}
	id, err = ParseID(raw, what)
	return id, err == nil, err
}

// Bind decodes the request body, reporting malformed JSON as a validation
// error.
func Bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

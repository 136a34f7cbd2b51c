package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zealousMW/hospital-management-system-sub000/internal/platform/auth"
)

// AuditEntry records who touched which hospital record.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Resource   string
	RecordID   string
	PatientID  string
	Action     string
	IPAddress  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditSink receives audit entries in addition to the structured log.
type AuditSink interface {
	RecordAccess(entry AuditEntry)
}

type AuditSinkFunc func(entry AuditEntry)

func (f AuditSinkFunc) RecordAccess(entry AuditEntry) { f(entry) }

// Audit logs every /api/v1 request that reads or changes patient data.
func Audit(logger zerolog.Logger, sinks ...AuditSink) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !strings.HasPrefix(path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			ctx := req.Context()
			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
				UserID:     auth.UserIDFromContext(ctx),
				UserRoles:  auth.RolesFromContext(ctx),
				Action:     auditAction(req.Method, path),
				Resource:   resourceFromPath(path),
				RecordID:   c.Param("id"),
				PatientID:  patientFromRequest(c),
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					entry.StatusCode = he.Code
				}
			}

			for _, s := range sinks {
				if s != nil {
					s.RecordAccess(entry)
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource", entry.Resource).
				Str("record_id", entry.RecordID).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

func auditAction(method, path string) string {
	switch {
	case strings.HasSuffix(path, "/discharge"):
		return "discharge"
	case strings.HasSuffix(path, "/transfer"):
		return "transfer"
	case strings.HasSuffix(path, "/dispense"):
		return "dispense"
	case strings.HasSuffix(path, "/release"):
		return "release"
	}
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceFromPath returns the first segment after /api/v1/.
func resourceFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "unknown"
	}
	return rest
}

func patientFromRequest(c echo.Context) string {
	path := c.Request().URL.Path
	if strings.HasPrefix(path, "/api/v1/patients/") {
		seg := strings.TrimPrefix(path, "/api/v1/patients/")
		if i := strings.IndexByte(seg, '/'); i >= 0 {
			seg = seg[:i]
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			return seg
		}
	}
	if p := c.QueryParam("patient_id"); p != "" {
		return p
	}
	return ""
}

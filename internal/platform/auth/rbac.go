package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RoleReceptionist = "receptionist"
	RolePharmacist   = "pharmacist"
)

var knownRoles = map[string]bool{
	RoleAdmin:        true,
	RoleDoctor:       true,
	RoleNurse:        true,
	RoleReceptionist: true,
	RolePharmacist:   true,
}

func IsKnownRole(r string) bool { return knownRoles[r] }

// RequireRole returns middleware that checks if the user has at least one of
// the specified roles. Admins pass every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HasAnyRole(RolesFromContext(c.Request().Context()), roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

func HasAnyRole(have []string, want ...string) bool {
	for _, h := range have {
		if h == RoleAdmin {
			return true
		}
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

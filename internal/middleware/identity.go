package middleware

// identity.go holds helpers that read the authenticated user placed in the
// Echo context by JWTAuth.

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's id, or false when the request
// is anonymous.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// userKey renders the user for cache and rate limit keys; "anon" when no
// user is authenticated.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

// RequireSelf allows the request only when the path parameter param
// names the authenticated user.  Users act on their own reservations only.
func RequireSelf(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := UserID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			target, err := strconv.ParseUint(c.Param(param), 10, 64)
			if err != nil || target == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
			}
			if target != uid {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

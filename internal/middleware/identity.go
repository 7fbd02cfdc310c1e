package middleware

// identity.go holds the caller-identity helper shared by the rate limit
// and cache key builders.  The JWT middleware stores claims with their
// decoded JSON types, so the subject may arrive as a float64 or a string.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// callerID returns a stable string identity for the request's user, or
// "guest" when the request is anonymous.
func callerID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%.0f", v)
	case uint64:
		return fmt.Sprintf("%d", v)
	}
	return "guest"
}

package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides a userID extraction function that pulls the value
// JWTAuth stored under "user_id". Counsellor tokens carry the client ID as
// a string subject, admin tokens a numeric one; both are normalized to a
// string so the cache and rate limit keys stay stable. When no token is
// present, "guest" is returned.

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// userID extracts a user identifier from the request context. It returns
// "guest" when no user is authenticated.
func userID(c echo.Context) string {
    v := c.Get("user_id")
    if v == nil {
        return "guest"
    }
    switch id := v.(type) {
    case string:
        if id != "" {
            return id
        }
    case float64:
        // Numeric claims arrive as float64 out of jwt.MapClaims.
        return fmt.Sprintf("%.0f", id)
    }
    return "guest"
}

package middleware

// identity.go holds the context keys set by JWTAuth and the helpers used by
// other middleware and handlers to read them back.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/complaint-tracker/internal/utils"
)

const (
    claimsKey = "claims"
    userIDKey = "user_id"
    roleKey   = "role"
)

// ClaimsFrom returns the verified claims stored by JWTAuth.
func ClaimsFrom(c echo.Context) (utils.Claims, bool) {
    cl, ok := c.Get(claimsKey).(utils.Claims)
    return cl, ok
}

// userID returns the authenticated subject or "guest".
func userID(c echo.Context) string {
    if cl, ok := ClaimsFrom(c); ok && cl.UserID != "" {
        return cl.UserID
    }
    return "guest"
}

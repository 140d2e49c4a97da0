package middleware // middleware provides shared request processing for handlers

import (
    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/complaint-tracker/internal/apperr"
    "github.com/iliyamo/complaint-tracker/internal/model"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles.  It reads only the
// claims placed by JWTAuth: when they are absent the request is treated as
// unauthenticated (401); a verified caller with another role gets 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant-time lookups.
    allowed := make(map[model.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            claims, ok := ClaimsFrom(c)
            if !ok {
                return apperr.Unauthenticated("", "missing or invalid token")
            }
            if !allowed[claims.Role] {
                return apperr.Forbidden("insufficient privilege")
            }
            return next(c)
        }
    }
}

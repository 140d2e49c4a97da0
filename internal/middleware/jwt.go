package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "strings" // string utilities for scheme checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/complaint-tracker/internal/apperr"
    "github.com/iliyamo/complaint-tracker/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the verified claims into the request context.  Handlers read them
// via ClaimsFrom(c), or the plain `c.Get("user_id")` and `c.Get("role")`
// strings.  No database lookup is made: the token alone is trusted.
func JWTAuth(tokens *utils.TokenManager) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // The header must be "<scheme> <token>" with scheme Bearer in any
            // case.  Anything else is rejected before the token is parsed.
            raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
            if !ok {
                return apperr.Unauthenticated("", "missing or invalid token")
            }

            // Verify signature, algorithm, exp/nbf and the role claim.  The
            // returned error already carries token_expired, token_invalid or
            // token_not_active.
            claims, err := tokens.Verify(raw)
            if err != nil {
                return err
            }

            c.Set(claimsKey, claims)
            c.Set(userIDKey, claims.UserID)
            c.Set(roleKey, string(claims.Role))
            return next(c)
        }
    }
}

func bearerToken(header string) (string, bool) {
    scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
    if !found || !strings.EqualFold(scheme, "Bearer") {
        return "", false
    }
    token = strings.TrimSpace(token)
    return token, token != ""
}

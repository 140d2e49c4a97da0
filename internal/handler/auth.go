package handler

import (
	"context"  // provides context with cancellation for store calls
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for store calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/complaint-tracker/internal/apperr"
	"github.com/iliyamo/complaint-tracker/internal/middleware"
	"github.com/iliyamo/complaint-tracker/internal/model"
	"github.com/iliyamo/complaint-tracker/internal/service"
	"github.com/iliyamo/complaint-tracker/internal/validation"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type loginResp struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      model.PublicUser `json:"user"`
}

type meResp struct {
	ID        string     `json:"id"`
	Role      model.Role `json:"role"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// Register creates an account.  The response carries no token and no user
// data; the client logs in separately.
func (h *AuthHandler) Register(c echo.Context) error {
	fields, err := validation.Decode(c.Request().Body)
	if err != nil {
		return err
	}
	in, err := validation.Register(fields)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Auth.Register(ctx, in); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "user registered successfully"})
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	fields, err := validation.Decode(c.Request().Body)
	if err != nil {
		return err
	}
	in, err := validation.Login(fields)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Auth.Login(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResp{Token: s.Token.Token, ExpiresAt: s.Token.Exp, User: s.User})
}

// Me echoes the verified claims of the caller.
func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return apperr.Unauthenticated("", "missing or invalid token")
	}
	return c.JSON(http.StatusOK, meResp{
		ID:        claims.UserID,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	})
}

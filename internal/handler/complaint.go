package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/complaint-tracker/internal/apperr"
	"github.com/iliyamo/complaint-tracker/internal/middleware"
	"github.com/iliyamo/complaint-tracker/internal/model"
	"github.com/iliyamo/complaint-tracker/internal/service"
	"github.com/iliyamo/complaint-tracker/internal/utils"
	"github.com/iliyamo/complaint-tracker/internal/validation"
)

// ComplaintHandler serves the complaint endpoints.  Every route sits behind
// JWTAuth; the admin ones also behind RequireRole.
type ComplaintHandler struct {
	Complaints *service.ComplaintService
}

func NewComplaintHandler(complaints *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{Complaints: complaints}
}

type myComplaintsResp struct {
	Complaints []model.Complaint `json:"complaints"`
	Count      int               `json:"count"`
}

func caller(c echo.Context) (utils.Claims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return utils.Claims{}, apperr.Unauthenticated("", "missing or invalid token")
	}
	return claims, nil
}

// Create files a complaint for the caller.  A createdBy member in the body
// is ignored.
func (h *ComplaintHandler) Create(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	fields, err := validation.Decode(c.Request().Body)
	if err != nil {
		return err
	}
	draft, err := validation.Complaint(fields)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Complaints.Create(ctx, draft, claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// ListMine returns the caller's complaints.  Query parameters naming another
// owner are not read.
func (h *ComplaintHandler) ListMine(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Complaints.ListMine(ctx, claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, myComplaintsResp{Complaints: items, Count: len(items)})
}

// ListAll returns one page of every complaint (admin).
func (h *ComplaintHandler) ListAll(c echo.Context) error {
	page, limit := validation.Page(c.QueryParam("page"), c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Complaints.ListAll(ctx, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// UpdateStatus changes the status of one complaint (admin).
func (h *ComplaintHandler) UpdateStatus(c echo.Context) error {
	claims, err := caller(c)
	if err != nil {
		return err
	}
	fields, err := validation.Decode(c.Request().Body)
	if err != nil {
		return err
	}
	status, err := validation.StatusUpdate(fields)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Complaints.UpdateStatus(ctx, c.Param("id"), status, claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub/internal/middleware"
)

// EnrollmentHandler implements the student-facing enrollment endpoints.
type EnrollmentHandler struct {
	Enrollments EnrollmentStore
}

func NewEnrollmentHandler(enrollments EnrollmentStore) *EnrollmentHandler {
	return &EnrollmentHandler{Enrollments: enrollments}
}

// ListMine handles GET /v1/enrollments: the caller's enrollments with
// course titles.
func (h *EnrollmentHandler) ListMine(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Enrollments.ListByUser(ctx, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateProgress handles PUT /v1/enrollments/:courseId/progress. Reaching
// 100 percent promotes the enrollment to COMPLETED.
func (h *EnrollmentHandler) UpdateProgress(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, err := strconv.ParseUint(c.Param("courseId"), 10, 64)
	if err != nil || courseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	var req struct {
		Progress int `json:"progress"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Progress < 0 || req.Progress > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "progress must be 0..100"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ok, err = h.Enrollments.UpdateProgress(ctx, user.ID, courseID, uint8(req.Progress))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "enrollment not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "progress updated"})
}

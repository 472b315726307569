package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub/internal/middleware"
	"github.com/coursehub/coursehub/internal/model"
	"github.com/coursehub/coursehub/internal/payment"
	"github.com/coursehub/coursehub/internal/queue"
	"github.com/coursehub/coursehub/internal/repository"
	queue_publisher "github.com/coursehub/coursehub/internal/service"
)

// CourseHandler implements the catalog and instructor course endpoints.
// PublishEvent is swappable so tests can observe or silence the broker.
type CourseHandler struct {
	Courses      CourseStore
	Categories   CategoryStore
	Enrollments  EnrollmentStore
	PublishEvent func(ctx context.Context, e queue.EnrollmentActivatedEvent) error
}

func NewCourseHandler(courses CourseStore, categories CategoryStore, enrollments EnrollmentStore) *CourseHandler {
	return &CourseHandler{
		Courses:      courses,
		Categories:   categories,
		Enrollments:  enrollments,
		PublishEvent: queue_publisher.PublishEnrollmentActivated,
	}
}

// ----- DTOs -----

// Prices cross the API as decimal currency amounts and are stored in cents.
type courseReq struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	CategoryID    uint64   `json:"categoryId"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discountPrice"`
}

type courseResp struct {
	ID              uint64   `json:"id"`
	InstructorID    uint64   `json:"instructorId"`
	CategoryID      uint64   `json:"categoryId"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	DiscountPrice   *float64 `json:"discountPrice,omitempty"`
	Status          string   `json:"status"`
	EnrollmentCount uint64   `json:"enrollmentCount"`
}

func toCourseResp(c model.Course) courseResp {
	resp := courseResp{
		ID:              c.ID,
		InstructorID:    c.InstructorID,
		CategoryID:      c.CategoryID,
		Title:           c.Title,
		Description:     c.Description,
		Price:           float64(c.PriceCents) / 100,
		Status:          c.Status,
		EnrollmentCount: c.EnrollmentCount,
	}
	if c.DiscountPriceCents != nil {
		d := float64(*c.DiscountPriceCents) / 100
		resp.DiscountPrice = &d
	}
	return resp
}

func (h *CourseHandler) bindCourse(c echo.Context, ctx context.Context, out *model.Course) (int, string) {
	var req courseReq
	if err := c.Bind(&req); err != nil {
		return http.StatusBadRequest, "invalid body"
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return http.StatusBadRequest, "title required"
	}
	if req.Price < 0 {
		return http.StatusBadRequest, "price must not be negative"
	}
	if req.DiscountPrice != nil && (*req.DiscountPrice < 0 || *req.DiscountPrice >= req.Price) {
		return http.StatusBadRequest, "discount must be below the price"
	}
	if _, err := h.Categories.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return http.StatusBadRequest, "unknown category"
		}
		return http.StatusInternalServerError, "database error"
	}

	out.Title = req.Title
	out.Description = req.Description
	out.CategoryID = req.CategoryID
	out.PriceCents = payment.ToCents(req.Price)
	out.DiscountPriceCents = nil
	if req.DiscountPrice != nil {
		d := payment.ToCents(*req.DiscountPrice)
		out.DiscountPriceCents = &d
	}
	return 0, ""
}

// List handles GET /v1/courses: the public, cached catalog of published
// courses with pagination and optional category/search filters.
func (h *CourseHandler) List(c echo.Context) error {
	f := repository.CourseFilter{Search: strings.TrimSpace(c.QueryParam("q"))}
	f.CategoryID, _ = strconv.ParseUint(c.QueryParam("categoryId"), 10, 64)
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.PerPage, _ = strconv.Atoi(c.QueryParam("perPage"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	courses, total, err := h.Courses.ListPublished(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]courseResp, 0, len(courses))
	for _, course := range courses {
		items = append(items, toCourseResp(course))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// Get handles GET /v1/courses/:id. Unpublished courses are indistinguishable
// from missing ones for the public.
func (h *CourseHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if course.Status != model.CourseStatusPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
	}
	return c.JSON(http.StatusOK, toCourseResp(course))
}

// Create handles POST /v1/courses (instructor/admin). New courses start in
// DRAFT and are invisible until published.
func (h *CourseHandler) Create(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course := model.Course{InstructorID: user.ID}
	if status, msg := h.bindCourse(c, ctx, &course); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}
	if err := h.Courses.Create(ctx, &course); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create course failed"})
	}
	return c.JSON(http.StatusCreated, toCourseResp(course))
}

// Update handles PUT /v1/courses/:id. Instructors may only edit their own
// courses; admins may edit any.
func (h *CourseHandler) Update(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course := model.Course{ID: id}
	if status, msg := h.bindCourse(c, ctx, &course); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}
	if err := h.Courses.Update(ctx, &course, ownerFilter(user)); err != nil {
		return courseWriteError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "course updated"})
}

// Publish handles POST /v1/courses/:id/publish.
func (h *CourseHandler) Publish(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Courses.SetStatus(ctx, id, model.CourseStatusPublished, ownerFilter(user)); err != nil {
		return courseWriteError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "course published"})
}

// InstructorCourses handles GET /v1/instructor/courses: the caller's own
// courses, drafts included.
func (h *CourseHandler) InstructorCourses(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	courses, err := h.Courses.ListByInstructor(ctx, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]courseResp, 0, len(courses))
	for _, course := range courses {
		items = append(items, toCourseResp(course))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Enroll handles POST /v1/courses/:id/enroll, the direct path for free
// courses. Paid courses must go through the payment flow.
func (h *CourseHandler) Enroll(c echo.Context) error {
	user, ok := middleware.UserFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if course.Status != model.CourseStatusPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
	}
	if course.InstructorID == user.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot enroll in your own course"})
	}
	if course.EffectivePriceCents() > 0 && user.Role != model.RoleAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "course requires payment"})
	}
	enrolled, err := h.Enrollments.HasActiveOrCompleted(ctx, user.ID, course.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if enrolled {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "already enrolled"})
	}

	if err := h.Enrollments.UpsertActive(ctx, user.ID, course.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enroll failed"})
	}
	if h.PublishEvent != nil {
		if err := h.PublishEvent(ctx, queue.EnrollmentActivatedEvent{
			UserID:      user.ID,
			CourseID:    course.ID,
			CourseTitle: course.Title,
			ActivatedAt: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			log.Printf("enroll: event publish failed: %v", err)
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "enrolled"})
}

// ownerFilter returns the instructor id to enforce ownership with, or zero
// for admins who bypass the check.
func ownerFilter(u middleware.CurrentUser) uint64 {
	if u.Role == model.RoleAdmin {
		return 0
	}
	return u.ID
}

func courseWriteError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrCourseNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/coursehub/internal/model"
	"github.com/coursehub/coursehub/internal/repository"
)

// CategoryHandler implements category listing (public) and creation
// (admin only, enforced by route policy).
type CategoryHandler struct {
	Categories CategoryStore
}

func NewCategoryHandler(categories CategoryStore) *CategoryHandler {
	return &CategoryHandler{Categories: categories}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases a name and replaces runs of non-alphanumerics with a
// single dash.
func slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// List handles GET /v1/categories.
func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]echo.Map, 0, len(cats))
	for _, cat := range cats {
		items = append(items, echo.Map{"id": cat.ID, "name": cat.Name, "slug": cat.Slug})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /v1/categories.
func (h *CategoryHandler) Create(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat := model.Category{Name: req.Name, Slug: slugify(req.Name)}
	if err := h.Categories.Create(ctx, &cat); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create category failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": cat.ID, "name": cat.Name, "slug": cat.Slug})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bazaar/internal/events"
	"github.com/Skotchmaster/bazaar/internal/logging"
	"github.com/Skotchmaster/bazaar/internal/models"
	"github.com/Skotchmaster/bazaar/internal/policy"
	"github.com/Skotchmaster/bazaar/internal/repo"
	"github.com/Skotchmaster/bazaar/internal/util"
)

// CategoryHandler serves the category sub-resource. Writes are gated by the
// superuser policy; reads are open.
type CategoryHandler struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
	PageSize int
}

func (h *CategoryHandler) gate(c echo.Context) error {
	userID, role, err := currentUser(c)
	if err != nil {
		return err
	}
	caller := &policy.Caller{UserID: userID, Role: role}
	if err := policy.Evaluate(caller, policy.ActionWrite, nil, policy.SuperuserOrReadOnly); err != nil {
		return httpError(err, "admin rights required")
	}
	return nil
}

func (h *CategoryHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("page_size"), h.PageSize)
	offset, limit := util.Calculate(page, size)

	total, categories, err := h.Repo.Categories(c.Request().Context(), offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list categories")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": categories,
		"meta": pageMeta(page, limit, offset, total),
	})
}

func (h *CategoryHandler) Get(c echo.Context) error {
	category, err := h.Repo.CategoryBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return httpError(err, "category not found")
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create")

	if err := h.gate(c); err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": map[string]string{"name": "this field is required"}})
	}

	category := models.Category{Name: req.Name, Description: req.Description}
	if err := h.Repo.CreateCategory(ctx, &category); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return echo.NewHTTPError(http.StatusBadRequest, "category already exists")
		}
		l.Error("category_create_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create category")
	}

	l.Info("category_created", "slug", category.Slug)
	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.gate(c); err != nil {
		return err
	}

	category, err := h.Repo.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		return httpError(err, "category not found")
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Name != nil && *req.Name != "" {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}

	if err := h.Repo.SaveCategory(ctx, category); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update category")
	}
	return c.JSON(http.StatusOK, category)
}

// Delete removes a category; products referencing it keep existing with a
// null category.
func (h *CategoryHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete")

	if err := h.gate(c); err != nil {
		return err
	}

	category, err := h.Repo.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		return httpError(err, "category not found")
	}

	if err := h.Repo.DeleteCategory(ctx, category.ID); err != nil {
		return httpError(err, "category not found")
	}

	l.Info("category_deleted", "slug", category.Slug)
	return c.NoContent(http.StatusNoContent)
}

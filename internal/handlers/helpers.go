package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bazaar/internal/policy"
	"github.com/Skotchmaster/bazaar/internal/repo"
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// currentUser reads the identity the JWT middleware stored in the context.
func currentUser(c echo.Context) (uint, string, error) {
	id, ok := c.Get("userID").(uint)
	if !ok {
		return 0, "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	role, _ := c.Get("role").(string)
	return id, role, nil
}

// httpError translates the repo/policy error taxonomy into status codes.
func httpError(err error, msg string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msg)
	case errors.Is(err, repo.ErrConflict), errors.Is(err, repo.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	case errors.Is(err, policy.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, msg)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, msg)
	}
}

func pageMeta(page, limit, offset int, total int64) map[string]any {
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}

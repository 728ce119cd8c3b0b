package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/bazaar/internal/events"
	"github.com/Skotchmaster/bazaar/internal/logging"
	"github.com/Skotchmaster/bazaar/internal/models"
	"github.com/Skotchmaster/bazaar/internal/policy"
	"github.com/Skotchmaster/bazaar/internal/repo"
	"github.com/Skotchmaster/bazaar/internal/transport"
	"github.com/Skotchmaster/bazaar/internal/util"
)

type ProductHandler struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
	PageSize int
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicProductEvents, fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("event publish error: %v", err)
	}
}

// caller builds the policy identity for the request, loading the seller
// profile when one exists.
func (h *ProductHandler) caller(c echo.Context) (*policy.Caller, error) {
	userID, role, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	caller := &policy.Caller{UserID: userID, Role: role}
	seller, err := h.Repo.SellerByUserID(c.Request().Context(), userID)
	if err == nil {
		caller.Seller = seller
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "cannot load seller profile")
	}
	return caller, nil
}

func (h *ProductHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("page_size"), h.PageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Repo.Products(c.Request().Context(), offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.NewProductResponses(items),
		"meta": pageMeta(page, limit, offset, total),
	})
}

func (h *ProductHandler) Get(c echo.Context) error {
	product, err := h.Repo.ProductBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return httpError(err, "product not found")
	}
	return c.JSON(http.StatusOK, transport.NewProductResponse(product))
}

// Search applies the composed product filter. Unparseable price bounds are
// ignored, matching the behavior of omitting them.
func (h *ProductHandler) Search(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("page_size"), h.PageSize)
	offset, limit := util.Calculate(page, size)

	filter := repo.ProductFilter{
		Search:   c.QueryParam("search"),
		MinPrice: c.QueryParam("min_price"),
		MaxPrice: c.QueryParam("max_price"),
		Category: c.QueryParam("category"),
		Seller:   c.QueryParam("seller"),
	}

	total, items, err := h.Repo.SearchProducts(c.Request().Context(), filter, offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot search products")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.NewProductResponses(items),
		"meta": pageMeta(page, limit, offset, total),
	})
}

type productRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *uint            `json:"stock"`
	Category    *uint            `json:"category"`
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	if err := policy.Evaluate(caller, policy.ActionWrite, nil, policy.VerifiedSellerOrReadOnly); err != nil {
		l.Warn("product_create_forbidden", "status", 403, "user_id", caller.UserID)
		return httpError(err, "verified seller profile required")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	fieldErrs := map[string]string{}
	if req.Name == nil || *req.Name == "" {
		fieldErrs["name"] = "this field is required"
	}
	if req.Description == nil || *req.Description == "" {
		fieldErrs["description"] = "this field is required"
	}
	if req.Price == nil {
		fieldErrs["price"] = "this field is required"
	} else if req.Price.IsNegative() {
		fieldErrs["price"] = "price cannot be negative"
	}
	if len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrs})
	}

	product := models.Product{
		Name:        *req.Name,
		Description: *req.Description,
		Price:       *req.Price,
		CategoryID:  req.Category,
		SellerID:    caller.Seller.ID,
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if err := h.Repo.CreateProduct(ctx, &product); err != nil {
		if errors.Is(err, repo.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, "category does not exist")
		}
		l.Error("product_create_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create product")
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})

	l.Info("product_created", "product_id", product.ID, "slug", product.Slug)
	return c.JSON(http.StatusCreated, transport.NewProductResponse(&product))
}

func (h *ProductHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	product, err := h.Repo.ProductBySlug(ctx, c.Param("slug"))
	if err != nil {
		return httpError(err, "product not found")
	}

	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	if err := policy.Evaluate(caller, policy.ActionWrite, product,
		policy.VerifiedSellerOrReadOnly, policy.OwnerOnly); err != nil {
		l.Warn("product_update_forbidden", "status", 403, "user_id", caller.UserID)
		return httpError(err, "you may only modify your own products")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return echo.NewHTTPError(http.StatusBadRequest, "price cannot be negative")
		}
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Category != nil {
		product.CategoryID = req.Category
	}

	if err := h.Repo.SaveProduct(ctx, product); err != nil {
		l.Error("product_update_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
	}

	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})

	return c.JSON(http.StatusOK, transport.NewProductResponse(product))
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	product, err := h.Repo.ProductBySlug(ctx, c.Param("slug"))
	if err != nil {
		return httpError(err, "product not found")
	}

	caller, err := h.caller(c)
	if err != nil {
		return err
	}
	if err := policy.Evaluate(caller, policy.ActionWrite, product,
		policy.VerifiedSellerOrReadOnly, policy.OwnerOnly); err != nil {
		l.Warn("product_delete_forbidden", "status", 403, "user_id", caller.UserID)
		return httpError(err, "you may only delete your own products")
	}

	if err := h.Repo.DeleteProduct(ctx, product.ID); err != nil {
		return httpError(err, "product not found")
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": product.ID,
	})

	l.Info("product_deleted", "product_id", product.ID)
	return c.NoContent(http.StatusNoContent)
}

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bazaar/internal/events"
	"github.com/Skotchmaster/bazaar/internal/logging"
	"github.com/Skotchmaster/bazaar/internal/repo"
	"github.com/Skotchmaster/bazaar/internal/transport"
)

// BasketHandler serves the caller's basket. Every operation re-fetches the
// basket scoped to the authenticated user before touching items, so a foreign
// item id is indistinguishable from a missing one.
type BasketHandler struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
}

func (h *BasketHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicBasketEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("event publish error: %v", err)
	}
}

func (h *BasketHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	basket, err := h.Repo.BasketForUser(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load basket")
	}
	items, err := h.Repo.BasketItems(ctx, basket.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load basket items")
	}

	return c.JSON(http.StatusOK, transport.BasketResponse{
		ID:       basket.ID,
		Customer: basket.CustomerID,
		Items:    transport.NewBasketItemResponses(items),
	})
}

func (h *BasketHandler) ListItems(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	basket, err := h.Repo.BasketForUser(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load basket")
	}
	items, err := h.Repo.BasketItems(ctx, basket.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load basket items")
	}

	return c.JSON(http.StatusOK, transport.NewBasketItemResponses(items))
}

// AddItem merges the requested quantity into the basket: one line per
// product, quantities accumulate.
func (h *BasketHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "basket.add_item")

	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  *int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "product_id required")
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be a positive integer")
	}

	basket, err := h.Repo.BasketForUser(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load basket")
	}

	item, err := h.Repo.AddItem(ctx, basket.ID, req.ProductID, uint(quantity))
	if err != nil {
		l.Warn("basket_add_failed", "user_id", userID, "product_id", req.ProductID, "error", err)
		return httpError(err, "product not found")
	}

	h.publish(c, map[string]any{
		"type":      "basket_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})

	l.Info("basket_item_added", "item_id", item.ID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, transport.NewBasketItemResponse(item))
}

func (h *BasketHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "basket.update_item")

	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil || itemID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Quantity == nil || *req.Quantity < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be a positive integer")
	}

	basket, err := h.Repo.BasketForUser(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load basket")
	}

	item, err := h.Repo.UpdateItemQuantity(ctx, basket.ID, uint(itemID), uint(*req.Quantity))
	if err != nil {
		l.Warn("basket_update_failed", "user_id", userID, "item_id", itemID, "error", err)
		return httpError(err, "item not found")
	}

	h.publish(c, map[string]any{
		"type":     "basket_item_updated",
		"userID":   userID,
		"itemID":   item.ID,
		"quantity": item.Quantity,
	})

	return c.JSON(http.StatusOK, transport.NewBasketItemResponse(item))
}

func (h *BasketHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "basket.remove_item")

	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil || itemID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	basket, err := h.Repo.BasketForUser(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load basket")
	}

	if err := h.Repo.RemoveItem(ctx, basket.ID, uint(itemID)); err != nil {
		l.Warn("basket_remove_failed", "user_id", userID, "item_id", itemID, "error", err)
		return httpError(err, "item not found")
	}

	h.publish(c, map[string]any{
		"type":   "basket_item_removed",
		"userID": userID,
		"itemID": itemID,
	})

	return c.NoContent(http.StatusNoContent)
}

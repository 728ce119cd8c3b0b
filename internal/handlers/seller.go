package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bazaar/internal/events"
	"github.com/Skotchmaster/bazaar/internal/logging"
	"github.com/Skotchmaster/bazaar/internal/models"
	"github.com/Skotchmaster/bazaar/internal/policy"
	"github.com/Skotchmaster/bazaar/internal/repo"
	"github.com/Skotchmaster/bazaar/internal/transport"
	"github.com/Skotchmaster/bazaar/internal/util"
)

type SellerHandler struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
	PageSize int
}

func (h *SellerHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicUserEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("event publish error: %v", err)
	}
}

// Register creates a seller profile for the authenticated caller. A user has
// at most one profile and new sellers always start unverified.
func (h *SellerHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.register")

	userID, _, err := currentUser(c)
	if err != nil {
		return err
	}

	var req struct {
		CompanyName string `json:"company_name"`
		TaxID       string `json:"tax_id"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	fieldErrs := map[string]string{}
	if req.CompanyName == "" {
		fieldErrs["company_name"] = "this field is required"
	}
	if req.PhoneNumber == "" {
		fieldErrs["phone_number"] = "this field is required"
	}
	if len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrs})
	}

	seller := models.Seller{
		UserID:      userID,
		CompanyName: req.CompanyName,
		TaxID:       req.TaxID,
		PhoneNumber: req.PhoneNumber,
		IsVerified:  false,
	}
	if err := h.Repo.CreateSeller(ctx, &seller); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			l.Warn("seller_register_rejected", "status", 400, "user_id", userID)
			return echo.NewHTTPError(http.StatusBadRequest, "user is already registered as a seller")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create seller")
	}

	h.publish(c, map[string]any{
		"type":     "seller_registered",
		"userID":   userID,
		"sellerID": seller.ID,
	})

	l.Info("seller_registered", "seller_id", seller.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message":      "Seller registration successful",
		"seller_id":    seller.ID,
		"company_name": seller.CompanyName,
		"is_verified":  seller.IsVerified,
	})
}

func (h *SellerHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("page_size"), h.PageSize)
	offset, limit := util.Calculate(page, size)

	total, sellers, err := h.Repo.Sellers(c.Request().Context(), offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list sellers")
	}

	summaries := make([]transport.SellerSummary, len(sellers))
	for i := range sellers {
		summaries[i] = transport.NewSellerSummary(&sellers[i])
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": summaries,
		"meta": pageMeta(page, limit, offset, total),
	})
}

func (h *SellerHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid seller id")
	}

	seller, err := h.Repo.SellerByID(ctx, uint(id))
	if err != nil {
		return httpError(err, "seller not found")
	}
	products, err := h.Repo.ProductsBySeller(ctx, seller.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load products")
	}

	return c.JSON(http.StatusOK, transport.SellerDetailResponse{
		ID:          seller.ID,
		CompanyName: seller.CompanyName,
		IsVerified:  seller.IsVerified,
		Products:    transport.NewProductResponses(products),
	})
}

// Verify is the administrator path that flips is_verified.
func (h *SellerHandler) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.verify")

	userID, role, err := currentUser(c)
	if err != nil {
		return err
	}
	caller := &policy.Caller{UserID: userID, Role: role}
	if err := policy.Evaluate(caller, policy.ActionWrite, nil, policy.SuperuserOrReadOnly); err != nil {
		l.Warn("seller_verify_forbidden", "status", 403, "user_id", userID)
		return httpError(err, "admin rights required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid seller id")
	}

	seller, err := h.Repo.VerifySeller(ctx, uint(id))
	if err != nil {
		return httpError(err, "seller not found")
	}

	h.publish(c, map[string]any{
		"type":     "seller_verified",
		"userID":   userID,
		"sellerID": seller.ID,
	})

	l.Info("seller_verified", "seller_id", seller.ID)
	return c.JSON(http.StatusOK, transport.NewSellerSummary(seller))
}

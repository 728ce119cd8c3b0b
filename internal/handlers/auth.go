package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bazaar/internal/email"
	"github.com/Skotchmaster/bazaar/internal/events"
	"github.com/Skotchmaster/bazaar/internal/hash"
	"github.com/Skotchmaster/bazaar/internal/logging"
	"github.com/Skotchmaster/bazaar/internal/models"
	"github.com/Skotchmaster/bazaar/internal/repo"
	"github.com/Skotchmaster/bazaar/internal/tokens"
)

const minPasswordLength = 8

type AuthHandler struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Producer      *events.Producer
	Mail          email.Sender
	FrontendURL   string
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, events.TopicUserEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("event publish error: %v", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		Username   string `json:"username"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		IsCustomer *bool  `json:"is_customer"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	fieldErrs := map[string]string{}
	if req.Username == "" {
		fieldErrs["username"] = "this field is required"
	}
	if req.Email == "" {
		fieldErrs["email"] = "this field is required"
	} else if !strings.Contains(req.Email, "@") {
		fieldErrs["email"] = "enter a valid email address"
	}
	if len(req.Password) < minPasswordLength {
		fieldErrs["password"] = fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	}

	if req.Email != "" && fieldErrs["email"] == "" {
		if _, err := h.Repo.UserByEmail(ctx, req.Email); err == nil {
			fieldErrs["email"] = "email already in use"
		} else if !errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot check email")
		}
	}
	if req.Username != "" {
		if _, err := h.Repo.UserByUsername(ctx, req.Username); err == nil {
			fieldErrs["username"] = "username already in use"
		} else if !errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot check username")
		}
	}

	if len(fieldErrs) > 0 {
		l.Warn("register_rejected", "status", 400, "errors", fmt.Sprint(fieldErrs))
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrs})
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
	}

	isCustomer := true
	if req.IsCustomer != nil {
		isCustomer = *req.IsCustomer
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         "user",
		IsCustomer:   isCustomer,
	}
	if err := h.Repo.CreateUser(ctx, &user); err != nil {
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	h.publish(c, map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("user_registered", "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "User registered successfully.",
		"user_id":   user.ID,
		"is_seller": false,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Repo.UserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot look up user")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_rejected", "status", 401, "username", req.Username)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	access, _, err := tokens.SignAccessToken(user.ID, user.Role, h.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create access token")
	}
	refresh, refreshExp, err := tokens.SignRefreshToken(user.ID, user.Role, h.RefreshSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create refresh token")
	}
	if err := h.Repo.SaveRefreshToken(ctx, refresh, user.ID, refreshExp); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not persist refresh token")
	}

	isSeller := false
	isVerified := false
	if seller, err := h.Repo.SellerByUserID(ctx, user.ID); err == nil {
		isSeller = true
		isVerified = seller.IsVerified
	} else if !errors.Is(err, repo.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot look up seller profile")
	}

	h.publish(c, map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	l.Info("user_logged_in", "user_id", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"access":      access,
		"refresh":     refresh,
		"is_seller":   isSeller,
		"is_verified": isVerified,
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&req); err != nil || req.Refresh == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token required")
	}

	if _, err := tokens.ParseRefresh(req.Refresh, h.RefreshSecret); err != nil {
		l.Warn("logout_rejected", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired token")
	}
	if err := h.Repo.RevokeRefreshToken(ctx, req.Refresh); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot revoke token")
	}

	l.Info("user_logged_out")
	return c.JSON(http.StatusResetContent, echo.Map{"detail": "Successfully logged out."})
}

func encodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

func decodeUID(s string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// PasswordReset acknowledges every request the same way so the response never
// reveals whether an account exists.
func (h *AuthHandler) PasswordReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.password_reset")

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email required")
	}

	ack := echo.Map{"message": "Password reset link has been sent if the email exists."}

	user, err := h.Repo.UserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return c.JSON(http.StatusOK, ack)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot look up user")
	}

	token, err := h.Repo.CreateResetToken(ctx, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create reset token")
	}

	uid := encodeUID(user.ID)
	resetURL := fmt.Sprintf("%s/reset-password/%s/%s/", h.FrontendURL, uid, token.Token)
	if err := h.Mail.Send(
		user.Email,
		"Password Reset Request",
		"Please click the link to reset your password: "+resetURL,
	); err != nil {
		l.Error("reset_mail_failed", "error", err)
	}

	return c.JSON(http.StatusOK, ack)
}

func (h *AuthHandler) PasswordResetConfirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.password_reset_confirm")

	var req struct {
		UID      string `json:"uid"`
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if len(req.Password) < minPasswordLength {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	userID, err := decodeUID(req.UID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user identifier")
	}

	if err := h.Repo.ConsumeResetToken(ctx, userID, req.Token); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("reset_confirm_rejected", "status", 400)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot validate token")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
	}
	if err := h.Repo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update password")
	}

	l.Info("password_reset", "user_id", userID)
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successful."})
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bazaar/internal/config"
	"github.com/Skotchmaster/bazaar/internal/events"
	"github.com/Skotchmaster/bazaar/internal/hash"
	"github.com/Skotchmaster/bazaar/internal/models"
	"github.com/Skotchmaster/bazaar/internal/repo"
)

type sentMail struct {
	To, Subject, Body string
}

// mailRecorder captures outgoing mail instead of delivering it.
type mailRecorder struct {
	Sent []sentMail
}

func (m *mailRecorder) Send(to, subject, body string) error {
	m.Sent = append(m.Sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type testEnv struct {
	T    *testing.T
	E    *echo.Echo
	DB   *gorm.DB
	Repo *repo.GormRepo
	Mail *mailRecorder

	A  *AuthHandler
	S  *SellerHandler
	P  *ProductHandler
	Ct *CategoryHandler
	B  *BasketHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	store := repo.New(db)
	producer := events.Disabled()
	mail := &mailRecorder{}

	env := &testEnv{
		T:    t,
		E:    echo.New(),
		DB:   db,
		Repo: store,
		Mail: mail,
	}
	env.A = &AuthHandler{
		Repo:          store,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Producer:      producer,
		Mail:          mail,
		FrontendURL:   "http://shop.test",
	}
	env.S = &SellerHandler{Repo: store, Producer: producer, PageSize: 10}
	env.P = &ProductHandler{Repo: store, Producer: producer, PageSize: 10}
	env.Ct = &CategoryHandler{Repo: store, Producer: producer, PageSize: 10}
	env.B = &BasketHandler{Repo: store, Producer: producer}

	return env
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// as stores the identity the JWT middleware would have extracted.
func (env *testEnv) as(c echo.Context, user *models.User) {
	c.Set("userID", user.ID)
	c.Set("role", user.Role)
}

func (env *testEnv) createUser(username, password, role string) *models.User {
	env.T.Helper()

	passwordHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
		Role:         role,
		IsCustomer:   true,
	}
	require.NoError(env.T, env.Repo.CreateUser(context.Background(), &user))
	return &user
}

func (env *testEnv) createSeller(user *models.User, company string, verified bool) *models.Seller {
	env.T.Helper()

	seller := models.Seller{
		UserID:      user.ID,
		CompanyName: company,
		PhoneNumber: "+100000000",
		IsVerified:  verified,
	}
	require.NoError(env.T, env.Repo.CreateSeller(context.Background(), &seller))
	return &seller
}

func (env *testEnv) createProduct(seller *models.Seller, name, price string) *models.Product {
	env.T.Helper()

	product := models.Product{
		Name:        name,
		Description: "test description",
		Price:       decimal.RequireFromString(price),
		Stock:       3,
		SellerID:    seller.ID,
	}
	require.NoError(env.T, env.Repo.CreateProduct(context.Background(), &product))
	return &product
}

func requireHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
	return he
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bazaar/internal/config"
	"github.com/Skotchmaster/bazaar/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every session on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return New(db)
}

func seedUser(t *testing.T, r *GormRepo, username, role string) *models.User {
	t.Helper()

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		IsCustomer:   true,
	}
	require.NoError(t, r.CreateUser(context.Background(), &user))
	return &user
}

func seedSeller(t *testing.T, r *GormRepo, user *models.User, company string, verified bool) *models.Seller {
	t.Helper()

	seller := models.Seller{
		UserID:      user.ID,
		CompanyName: company,
		PhoneNumber: "+100000000",
		IsVerified:  verified,
	}
	require.NoError(t, r.CreateSeller(context.Background(), &seller))
	return &seller
}

func seedProduct(t *testing.T, r *GormRepo, seller *models.Seller, name, description, price string, categoryID *uint) *models.Product {
	t.Helper()

	product := models.Product{
		Name:        name,
		Description: description,
		Price:       decimal.RequireFromString(price),
		Stock:       5,
		CategoryID:  categoryID,
		SellerID:    seller.ID,
	}
	require.NoError(t, r.CreateProduct(context.Background(), &product))
	return &product
}

func productNames(items []models.Product) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].Name
	}
	return out
}

func seedCatalog(t *testing.T, r *GormRepo) (*models.Seller, *models.Seller) {
	t.Helper()

	acme := seedSeller(t, r, seedUser(t, r, "acme_owner", "user"), "Acme Trading", true)
	globex := seedSeller(t, r, seedUser(t, r, "globex_owner", "user"), "Globex", true)

	electronics := models.Category{Name: "Electronics"}
	require.NoError(t, r.CreateCategory(context.Background(), &electronics))
	books := models.Category{Name: "Books"}
	require.NoError(t, r.CreateCategory(context.Background(), &books))

	seedProduct(t, r, acme, "Red Phone", "a loud red phone", "99.90", &electronics.ID)
	seedProduct(t, r, acme, "Blue Phone", "a quiet blue phone", "149.50", &electronics.ID)
	seedProduct(t, r, globex, "Cookbook", "recipes with red peppers", "25.00", &books.ID)
	seedProduct(t, r, globex, "Lamp", "a desk lamp", "15.00", nil)

	return acme, globex
}

func searchNames(t *testing.T, r *GormRepo, f ProductFilter) []string {
	t.Helper()

	total, items, err := r.SearchProducts(context.Background(), f, 0, 50)
	require.NoError(t, err)
	require.EqualValues(t, len(items), total, fmt.Sprintf("count and rows disagree for %+v", f))
	return productNames(items)
}

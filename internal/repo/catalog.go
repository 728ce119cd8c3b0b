package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bazaar/internal/models"
)

func (r *GormRepo) CreateCategory(ctx context.Context, category *models.Category) error {
	category.Slug = slug.Make(category.Name)
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).
		Where("slug = ?", category.Slug).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("category %q already exists: %w", category.Name, ErrConflict)
	}
	return r.DB.WithContext(ctx).Create(category).Error
}

func (r *GormRepo) Categories(ctx context.Context, offset, limit int) (int64, []models.Category, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var categories []models.Category
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&categories).Error; err != nil {
		return 0, nil, err
	}
	return total, categories, nil
}

func (r *GormRepo) CategoryBySlug(ctx context.Context, s string) (*models.Category, error) {
	var category models.Category
	if err := r.DB.WithContext(ctx).Where("slug = ?", s).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %q: %w", s, ErrNotFound)
		}
		return nil, err
	}
	return &category, nil
}

func (r *GormRepo) SaveCategory(ctx context.Context, category *models.Category) error {
	return r.DB.WithContext(ctx).Save(category).Error
}

// DeleteCategory removes a category and detaches its products. Products
// survive a category delete with a null category reference.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// uniqueProductSlug derives a slug from the product name, appending an
// incrementing numeric suffix until no other product claims it.
func (r *GormRepo) uniqueProductSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	candidate := base
	for i := 2; ; i++ {
		var n int64
		if err := r.DB.WithContext(ctx).Model(&models.Product{}).
			Where("slug = ?", candidate).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (r *GormRepo) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.CategoryID != nil {
		var n int64
		if err := r.DB.WithContext(ctx).Model(&models.Category{}).
			Where("id = ?", *product.CategoryID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("category %d does not exist: %w", *product.CategoryID, ErrValidation)
		}
	}
	s, err := r.uniqueProductSlug(ctx, product.Name)
	if err != nil {
		return err
	}
	product.Slug = s
	if err := r.DB.WithContext(ctx).Create(product).Error; err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Preload("Seller").First(product, product.ID).Error
}

func (r *GormRepo) Products(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.Product
	if err := r.DB.WithContext(ctx).Preload("Seller").Order("id ASC").
		Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ProductBySlug(ctx context.Context, s string) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Preload("Seller").Preload("Category").
		Where("slug = ?", s).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %q: %w", s, ErrNotFound)
		}
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ProductsBySeller(ctx context.Context, sellerID uint) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Preload("Seller").
		Where("seller_id = ?", sellerID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.DB.WithContext(ctx).Save(product).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return nil
}

// ProductFilter carries the optional search parameters. Min and max prices
// stay raw strings: a value that does not parse as a number imposes no
// constraint rather than failing the request.
type ProductFilter struct {
	Search   string
	MinPrice string
	MaxPrice string
	Category string
	Seller   string
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// productQuery composes the filter predicate over the joined product table.
// All supplied filters are ANDed; absent ones impose no constraint.
func (r *GormRepo) productQuery(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Joins("JOIN sellers ON sellers.id = products.seller_id").
		Joins("JOIN users ON users.id = sellers.user_id")

	if s := strings.TrimSpace(f.Search); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(products.slug) LIKE ?",
			pat, pat, pat,
		)
	}

	if f.MinPrice != "" {
		if min, err := strconv.ParseFloat(f.MinPrice, 64); err == nil {
			q = q.Where("products.price >= ?", min)
		}
	}
	if f.MaxPrice != "" {
		if max, err := strconv.ParseFloat(f.MaxPrice, 64); err == nil {
			q = q.Where("products.price <= ?", max)
		}
	}

	if f.Category != "" {
		pat := "%" + strings.ToLower(f.Category) + "%"
		q = q.Where("LOWER(categories.slug) LIKE ? OR LOWER(categories.name) LIKE ?", pat, pat)
	}

	if f.Seller != "" {
		if isDigits(f.Seller) {
			id, _ := strconv.Atoi(f.Seller)
			q = q.Where("sellers.id = ?", id)
		} else {
			pat := "%" + strings.ToLower(f.Seller) + "%"
			q = q.Where("LOWER(sellers.company_name) LIKE ? OR LOWER(users.username) LIKE ?", pat, pat)
		}
	}

	return q
}

// SearchProducts applies the composed filter and paginates. Rows are
// deduplicated before pagination since the joins can fan out.
func (r *GormRepo) SearchProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.productQuery(ctx, f).Distinct("products.id").Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := r.productQuery(ctx, f).Distinct("products.*").
		Order("products.id ASC").Offset(offset).Limit(limit).
		Preload("Seller").Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bazaar/internal/models"
)

// BasketForUser returns the caller's basket, creating it on first access.
func (r *GormRepo) BasketForUser(ctx context.Context, userID uint) (*models.Basket, error) {
	var basket models.Basket
	if err := r.DB.WithContext(ctx).
		Where("customer_id = ?", userID).
		FirstOrCreate(&basket, models.Basket{CustomerID: userID}).Error; err != nil {
		return nil, err
	}
	return &basket, nil
}

func (r *GormRepo) BasketItems(ctx context.Context, basketID uint) ([]models.BasketItem, error) {
	var items []models.BasketItem
	if err := r.DB.WithContext(ctx).Preload("Product").Preload("Product.Seller").
		Where("basket_id = ?", basketID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddItem merges a product into the basket: an existing line for the product
// is incremented atomically, otherwise a new line is created. Exactly one row
// per (basket, product) pair exists afterwards.
func (r *GormRepo) AddItem(ctx context.Context, basketID, productID, quantity uint) (*models.BasketItem, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, err
	}

	var item models.BasketItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BasketItem{}).
			Where("basket_id = ? AND product_id = ?", basketID, productID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("basket_id = ? AND product_id = ?", basketID, productID).
				First(&item).Error
		}
		item = models.BasketItem{
			BasketID:  basketID,
			ProductID: productID,
			Quantity:  quantity,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).Preload("Product").Preload("Product.Seller").
		First(&item, item.ID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemQuantity edits a line item inside the given basket only. Items in
// other baskets are invisible and reported as ErrNotFound.
func (r *GormRepo) UpdateItemQuantity(ctx context.Context, basketID, itemID, quantity uint) (*models.BasketItem, error) {
	res := r.DB.WithContext(ctx).Model(&models.BasketItem{}).
		Where("id = ? AND basket_id = ?", itemID, basketID).
		Update("quantity", quantity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("basket item %d: %w", itemID, ErrNotFound)
	}

	var item models.BasketItem
	if err := r.DB.WithContext(ctx).Preload("Product").Preload("Product.Seller").
		First(&item, itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes a line item inside the given basket only.
func (r *GormRepo) RemoveItem(ctx context.Context, basketID, itemID uint) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND basket_id = ?", itemID, basketID).
		Delete(&models.BasketItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("basket item %d: %w", itemID, ErrNotFound)
	}
	return nil
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bazaar/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *GormRepo) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("email %q: %w", email, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

func (r *GormRepo) CreateSeller(ctx context.Context, seller *models.Seller) error {
	var existing models.Seller
	err := r.DB.WithContext(ctx).Where("user_id = ?", seller.UserID).First(&existing).Error
	if err == nil {
		return fmt.Errorf("user %d is already registered as a seller: %w", seller.UserID, ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.DB.WithContext(ctx).Create(seller).Error
}

func (r *GormRepo) SellerByID(ctx context.Context, id uint) (*models.Seller, error) {
	var seller models.Seller
	if err := r.DB.WithContext(ctx).Preload("User").First(&seller, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("seller %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &seller, nil
}

func (r *GormRepo) SellerByUserID(ctx context.Context, userID uint) (*models.Seller, error) {
	var seller models.Seller
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("seller profile of user %d: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return &seller, nil
}

func (r *GormRepo) Sellers(ctx context.Context, offset, limit int) (int64, []models.Seller, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Seller{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var sellers []models.Seller
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&sellers).Error; err != nil {
		return 0, nil, err
	}
	return total, sellers, nil
}

// VerifySeller flips the verification flag; it is reachable only through the
// superuser policy.
func (r *GormRepo) VerifySeller(ctx context.Context, id uint) (*models.Seller, error) {
	res := r.DB.WithContext(ctx).Model(&models.Seller{}).Where("id = ?", id).
		Update("is_verified", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("seller %d: %w", id, ErrNotFound)
	}
	return r.SellerByID(ctx, id)
}

func (r *GormRepo) SaveRefreshToken(ctx context.Context, token string, userID uint, expiresAt time.Time) error {
	row := models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt.Unix(),
		Revoked:   false,
	}
	return r.DB.WithContext(ctx).Create(&row).Error
}

// RevokeRefreshToken marks a stored refresh token revoked. Tokens that are
// unknown, already revoked or past expiry are reported as ErrNotFound.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	res := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND revoked = ? AND expires_at > ?", token, false, time.Now().Unix()).
		Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("refresh token: %w", ErrNotFound)
	}
	return nil
}

const resetTokenTTL = time.Hour

func (r *GormRepo) CreateResetToken(ctx context.Context, userID uint) (*models.PasswordResetToken, error) {
	row := models.PasswordResetToken{
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(resetTokenTTL).Unix(),
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ConsumeResetToken validates and burns a password reset token in one step so
// a token can never be replayed.
func (r *GormRepo) ConsumeResetToken(ctx context.Context, userID uint, token string) error {
	res := r.DB.WithContext(ctx).Model(&models.PasswordResetToken{}).
		Where("user_id = ? AND token = ? AND used = ? AND expires_at > ?", userID, token, false, time.Now().Unix()).
		Update("used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reset token: %w", ErrNotFound)
	}
	return nil
}

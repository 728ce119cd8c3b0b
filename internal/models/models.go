package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
	IsCustomer   bool   `gorm:"default:true"             json:"is_customer"`
}

type Seller struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID      uint   `gorm:"uniqueIndex;not null"        json:"user_id"`
	User        User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CompanyName string `gorm:"not null"                    json:"company_name"`
	TaxID       string `json:"tax_id"`
	PhoneNumber string `json:"phone_number"`
	IsVerified  bool   `gorm:"default:false"               json:"is_verified"`
}

type Category struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null"                 json:"name"`
	Slug        string `gorm:"uniqueIndex;not null"     json:"slug"`
	Description string `json:"description"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name        string          `gorm:"not null"                     json:"name"`
	Description string          `gorm:"not null"                     json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"price"`
	Stock       uint            `json:"stock"`
	Slug        string          `gorm:"uniqueIndex;not null"         json:"slug"`
	CategoryID  *uint           `gorm:"index"                        json:"category"`
	Category    *Category       `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	SellerID    uint            `gorm:"index;not null"               json:"seller_id"`
	Seller      Seller          `gorm:"constraint:OnDelete:CASCADE"  json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OwnerUserID reports the identity of the user behind the owning seller.
// The Seller association must be loaded.
func (p *Product) OwnerUserID() uint {
	return p.Seller.UserID
}

type Basket struct {
	ID         uint         `gorm:"primaryKey;autoIncrement"    json:"id"`
	CustomerID uint         `gorm:"uniqueIndex;not null"        json:"customer"`
	Items      []BasketItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

type BasketItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"    json:"id"`
	BasketID  uint    `gorm:"index;not null"              json:"basket"`
	ProductID uint    `gorm:"not null"                    json:"product_id"`
	Product   Product `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Quantity  uint    `gorm:"default:1;check:quantity>0"  json:"quantity"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type PasswordResetToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Token     string `gorm:"unique;not null" json:"-"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Used      bool   `gorm:"default:false"   json:"used"`
}

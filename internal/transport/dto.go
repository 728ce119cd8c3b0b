package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/bazaar/internal/models"
)

type SellerSummary struct {
	ID          uint   `json:"id"`
	CompanyName string `json:"company_name"`
	IsVerified  bool   `json:"is_verified"`
}

func NewSellerSummary(s *models.Seller) SellerSummary {
	return SellerSummary{
		ID:          s.ID,
		CompanyName: s.CompanyName,
		IsVerified:  s.IsVerified,
	}
}

type ProductResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       uint            `json:"stock"`
	Slug        string          `json:"slug"`
	Category    *uint           `json:"category"`
	Seller      SellerSummary   `json:"seller"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Slug:        p.Slug,
		Category:    p.CategoryID,
		Seller:      NewSellerSummary(&p.Seller),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewProductResponses(items []models.Product) []ProductResponse {
	out := make([]ProductResponse, len(items))
	for i := range items {
		out[i] = NewProductResponse(&items[i])
	}
	return out
}

type SellerDetailResponse struct {
	ID          uint              `json:"id"`
	CompanyName string            `json:"company_name"`
	IsVerified  bool              `json:"is_verified"`
	Products    []ProductResponse `json:"products"`
}

type BasketItemResponse struct {
	ID         uint            `json:"id"`
	Basket     uint            `json:"basket"`
	Product    ProductResponse `json:"product"`
	Quantity   uint            `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// NewBasketItemResponse derives the line total; it is never stored.
func NewBasketItemResponse(it *models.BasketItem) BasketItemResponse {
	return BasketItemResponse{
		ID:         it.ID,
		Basket:     it.BasketID,
		Product:    NewProductResponse(&it.Product),
		Quantity:   it.Quantity,
		TotalPrice: it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
	}
}

func NewBasketItemResponses(items []models.BasketItem) []BasketItemResponse {
	out := make([]BasketItemResponse, len(items))
	for i := range items {
		out[i] = NewBasketItemResponse(&items[i])
	}
	return out
}

type BasketResponse struct {
	ID       uint                 `json:"id"`
	Customer uint                 `json:"customer"`
	Items    []BasketItemResponse `json:"items"`
}

package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products on the menu ("burgers", "sides", "drinks").
type Category struct {
	ID   string `json:"id"` // slug
	Name string `json:"name"`
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	// category filter applied
	Category string `json:"category,omitempty"`
	// search query applied
	Q string `json:"q,omitempty"`
	// limit applied
	Limit int `json:"limit"`
	// offset applied
	Offset int `json:"offset"`
	Items  []Product `json:"items"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name        string `json:"name"        example:"Konki Clásica"    validate:"required,min=2"`
	Description string `json:"description" example:"Hamburguesa de ternera con cheddar y salsa Konki." validate:"required,min=10"`
	Price       string `json:"price"       example:"9.99"             validate:"required"`
	Category    string `json:"category"    example:"burgers"          validate:"required"`
	ImageURL    string `json:"imageUrl"    example:"https://images.unsplash.com/photo-1571091718767-18b5b1457add" validate:"required,url"`
}

// UpdateProductRequest payload of partial update. Empty fields are left untouched.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name        string `json:"name"        validate:"omitempty,min=2"`
	Description string `json:"description" validate:"omitempty,min=10"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"    validate:"omitempty,url"`
}

package product

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalid = errors.New("invalid product")

var validate = validator.New()

func parsePrice(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price must be a number", ErrInvalid)
	}
	if !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: price must be positive", ErrInvalid)
	}
	return p.Round(2), nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed on %q", ErrInvalid, strings.ToLower(fe.Field()), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

// Build validates the request and returns a new product with a fresh id.
func (r CreateProductRequest) Build() (*Product, error) {
	if err := validate.Struct(r); err != nil {
		return nil, describe(err)
	}
	price, err := parsePrice(r.Price)
	if err != nil {
		return nil, err
	}
	return &Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Price:       price,
		CategoryID:  r.Category,
		ImageURL:    r.ImageURL,
	}, nil
}

// Apply validates the patch and copies its non-empty fields onto p.
// It reports whether the price changed.
func (r UpdateProductRequest) Apply(p *Product) (priceChanged bool, err error) {
	if err := validate.Struct(r); err != nil {
		return false, describe(err)
	}
	if r.Price != "" {
		price, err := parsePrice(r.Price)
		if err != nil {
			return false, err
		}
		p.Price = price
		priceChanged = true
	}
	if r.Name != "" {
		p.Name = strings.TrimSpace(r.Name)
	}
	if r.Description != "" {
		p.Description = strings.TrimSpace(r.Description)
	}
	if r.Category != "" {
		p.CategoryID = r.Category
	}
	if r.ImageURL != "" {
		p.ImageURL = r.ImageURL
	}
	return priceChanged, nil
}

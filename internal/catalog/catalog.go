package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

var (
	ErrNoVariants       = errors.New("product must have at least one variant")
	ErrDuplicateVariant = errors.New("variant ids must be unique")
	ErrInvalidQuantity  = errors.New("variant quantity must not be negative")
	ErrInvalidPrice     = errors.New("price must not be negative")
	ErrInvalidDiscount  = errors.New("discount percent must be between 0 and 100")
	ErrInvalidName      = errors.New("brand and name are required")
)

//go:embed seed.json
var seed []byte

// Variant is a purchasable configuration of a product
type Variant struct {
	ID       int    `json:"id"`
	Color    string `json:"color"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
}

// Review is a submitted product review
type Review struct {
	Name      string `json:"name"`
	Body      string `json:"body"`
	Rating    int    `json:"rating"`
	Recommend string `json:"recommend"`
}

// Product is a static catalog entry
type Product struct {
	Brand           string          `json:"brand"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	AltText         string          `json:"alt_text"`
	Link            string          `json:"link"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent int             `json:"discount_percent"`
	Details         []string        `json:"details"`
	Variants        []Variant       `json:"variants"`
	Sizes           []string        `json:"sizes"`
	Reviews         []Review        `json:"reviews,omitempty"`
}

// Validate checks the structural invariants of a catalog entry
func (p Product) Validate() error {
	if p.Brand == "" || p.Name == "" {
		return ErrInvalidName
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return ErrInvalidDiscount
	}
	if len(p.Variants) == 0 {
		return ErrNoVariants
	}
	seen := make(map[int]struct{}, len(p.Variants))
	for _, v := range p.Variants {
		if _, dup := seen[v.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateVariant, v.ID)
		}
		seen[v.ID] = struct{}{}
		if v.Quantity < 0 {
			return fmt.Errorf("%w: variant %d", ErrInvalidQuantity, v.ID)
		}
	}
	return nil
}

// HasVariant reports whether id names one of the product's variants
func (p Product) HasVariant(id int) bool {
	for _, v := range p.Variants {
		if v.ID == id {
			return true
		}
	}
	return false
}

// Default returns the embedded sample product
func Default() (Product, error) {
	return Parse(seed)
}

// Load reads a product from path, or returns the embedded sample when path is empty
func Load(path string) (Product, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Product{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON catalog entry
func Parse(data []byte) (Product, error) {
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return Product{}, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypeIPhone ProductType = "iPhone"
	ProductTypeIPad   ProductType = "iPad"
	ProductTypeWatch  ProductType = "Watch"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeIPhone, ProductTypeIPad, ProductTypeWatch:
		return true
	}
	return false
}

// Product is an inventory item: a sellable accessory or a repair part.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Model     string          `json:"model"`
	Color     string          `json:"color"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Type      ProductType     `json:"type"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ProductRequest struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Model    string          `json:"model"`
	Color    string          `json:"color"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Type     ProductType     `json:"type"`
	Version  *int            `json:"version,omitempty"`
}

// BulkGenerateRequest creates one product per model in [FromModel, ToModel] and color.
// NameTemplate may use {model}, {color} and {category}.
type BulkGenerateRequest struct {
	Type         ProductType     `json:"type"`
	FromModel    string          `json:"from_model"`
	ToModel      string          `json:"to_model"`
	Colors       []string        `json:"colors"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	NameTemplate string          `json:"name_template"`
}

type StockAdjustRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason,omitempty"`
}

type BulkStockRequest struct {
	Adjustments []StockAdjustRequest `json:"adjustments"`
}

type ProductFilter struct {
	Type     ProductType
	Category string
	Model    string
	Search   string
	LowStock bool
}

// ServicePrice is a price-list entry used to price services at intake.
type ServicePrice struct {
	ID        uuid.UUID       `json:"id"`
	Model     string          `json:"model"`
	Service   string          `json:"service"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ServicePriceRequest struct {
	Model   string          `json:"model"`
	Service string          `json:"service"`
	Price   decimal.Decimal `json:"price"`
}

type BulkServicePriceRequest struct {
	Type      ProductType     `json:"type"`
	FromModel string          `json:"from_model"`
	ToModel   string          `json:"to_model"`
	Service   string          `json:"service"`
	Price     decimal.Decimal `json:"price"`
}

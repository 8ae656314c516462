package product

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusOutOfStock Status = "out_of_stock"
)

type Size string

const (
	SizeXS  Size = "XS"
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

// Sizes lists the garment sizes in display order.
var Sizes = []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL, SizeXXL}

// ParseSize matches s case-insensitively against the known sizes.
func ParseSize(s string) (Size, bool) {
	candidate := Size(strings.ToUpper(strings.TrimSpace(s)))
	for _, size := range Sizes {
		if size == candidate {
			return size, true
		}
	}
	return "", false
}

// Rank is the position of the size in Sizes, or -1.
func (s Size) Rank() int {
	for i, size := range Sizes {
		if size == s {
			return i
		}
	}
	return -1
}

type SizeStock struct {
	Size  Size `json:"size"`
	Stock int  `json:"stock"`
}

type Product struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Color      string          `json:"color"`
	Image      string          `json:"image"`
	Price      decimal.Decimal `json:"price"`
	Sizes      []SizeStock     `json:"sizeStock"`
	TotalStock int             `json:"totalStock"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// StockFor returns the stock of size and whether the product carries it.
func (p *Product) StockFor(size Size) (int, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock, true
		}
	}
	return 0, false
}

// Purchasable reports whether the product is visible to checkout. Sold out
// products are still purchasable; the stock check rejects them.
func (p *Product) Purchasable() bool {
	return p.Status == StatusActive || p.Status == StatusOutOfStock
}

// SumSizes is the total of the per-size counters; TotalStock must equal it.
func (p *Product) SumSizes() int {
	total := 0
	for _, s := range p.Sizes {
		total += s.Stock
	}
	return total
}

// NextStatus recalculates the lifecycle status after a stock movement.
// Draft and inactive products keep their status.
func NextStatus(current Status, totalStock int) Status {
	switch {
	case current == StatusActive && totalStock <= 0:
		return StatusOutOfStock
	case current == StatusOutOfStock && totalStock > 0:
		return StatusActive
	default:
		return current
	}
}

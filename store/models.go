// Package store is the PostgreSQL entity gateway. It owns the schema, the
// row models, and every query the dispatcher needs.
package store

import (
	"time"

	"github.com/uptrace/bun"

	contractx "wholesale-agent/agent/contract"
)

// Movement types recorded in the stock ledger.
const (
	MovementInbound    = "INBOUND"
	MovementOutbound   = "OUTBOUND"
	MovementAdjustment = "ADJUSTMENT"
	MovementReturn     = "RETURN"
	MovementDamaged    = "DAMAGED"
	MovementTransfer   = "TRANSFER"
)

// Stock status labels derived from current vs minimum stock.
const (
	StatusOK         = "OK"
	StatusLowStock   = "LOW_STOCK"
	StatusOutOfStock = "OUT_OF_STOCK"
)

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name,notnull,unique"`
	Description string `bun:"description"`
}

type Supplier struct {
	bun.BaseModel `bun:"table:suppliers,alias:s"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Name         string `bun:"name,notnull,unique"`
	ContactEmail string `bun:"contact_email"`
	ContactPhone string `bun:"contact_phone"`
	PaymentTerms string `bun:"payment_terms"`
	Active       bool   `bun:"is_active,notnull,default:true"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          int64  `bun:"id,pk,autoincrement"`
	SKU         string `bun:"sku,notnull,unique"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description"`

	CategoryID int64     `bun:"category_id,notnull"`
	Category   *Category `bun:"rel:belongs-to,join:category_id=id"`
	SupplierID int64     `bun:"supplier_id,notnull"`
	Supplier   *Supplier `bun:"rel:belongs-to,join:supplier_id=id"`

	CostPrice      float64 `bun:"cost_price,notnull"`
	WholesalePrice float64 `bun:"wholesale_price,notnull"`
	RetailPrice    float64 `bun:"retail_price,notnull"`

	CurrentStock int  `bun:"current_stock,notnull,default:0"`
	MinimumStock int  `bun:"minimum_stock,notnull,default:0"`
	Active       bool `bun:"is_active,notnull,default:true"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// StockStatus classifies the product's stock level.
func (p *Product) StockStatus() string {
	switch {
	case p.CurrentStock <= 0:
		return StatusOutOfStock
	case p.CurrentStock <= p.MinimumStock:
		return StatusLowStock
	default:
		return StatusOK
	}
}

// StockMovement is one immutable ledger entry. Quantity is signed: positive
// for stock in, negative for stock out.
type StockMovement struct {
	bun.BaseModel `bun:"table:stock_movements,alias:m"`

	ID        int64    `bun:"id,pk,autoincrement"`
	ProductID int64    `bun:"product_id,notnull"`
	Product   *Product `bun:"rel:belongs-to,join:product_id=id"`

	Type      string    `bun:"movement_type,notnull"`
	Quantity  int       `bun:"quantity,notnull"`
	Reference string    `bun:"reference_number"`
	Notes     string    `bun:"notes"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func toProductRecord(p *Product) contractx.ProductRecord {
	rec := contractx.ProductRecord{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		Description:    p.Description,
		CurrentStock:   p.CurrentStock,
		MinimumStock:   p.MinimumStock,
		StockStatus:    p.StockStatus(),
		CostPrice:      p.CostPrice,
		WholesalePrice: p.WholesalePrice,
		RetailPrice:    p.RetailPrice,
	}
	if p.Category != nil {
		rec.Category = p.Category.Name
	}
	if p.Supplier != nil {
		rec.Supplier = p.Supplier.Name
	}
	return rec
}

func toProductRecords(products []Product) []contractx.ProductRecord {
	records := make([]contractx.ProductRecord, 0, len(products))
	for i := range products {
		records = append(records, toProductRecord(&products[i]))
	}
	return records
}

func toMovementRecord(m *StockMovement) contractx.MovementRecord {
	rec := contractx.MovementRecord{
		ID:        m.ID,
		Type:      m.Type,
		Quantity:  m.Quantity,
		Reference: m.Reference,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
	}
	if m.Product != nil {
		rec.ProductSKU = m.Product.SKU
		rec.ProductName = m.Product.Name
	}
	return rec
}

func toMovementRecords(movements []StockMovement) []contractx.MovementRecord {
	records := make([]contractx.MovementRecord, 0, len(movements))
	for i := range movements {
		records = append(records, toMovementRecord(&movements[i]))
	}
	return records
}

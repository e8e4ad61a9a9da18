package contract

import (
	"context"
	"time"
)

// Generator is the narrow gateway to the hosted language model: one call,
// free text in, free text out. It raises on network/auth/timeout failure and
// makes no structured-output guarantee.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// IntentSource converts a raw query plus a context snapshot into an Intent.
// Implementations never return an error; failures degrade to a low-confidence
// clarification-seeking Intent.
type IntentSource interface {
	Analyze(ctx context.Context, query string, snap ContextSnapshot) Intent
}

// Dispatcher maps an Intent onto one of the fixed business operations.
// It never propagates an error; failures become failed ActionResults.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent Intent) ActionResult
}

// Synthesizer converts an ActionResult into user-facing plain text. It always
// returns non-empty text, falling back to deterministic rendering when the
// model gateway is unavailable.
type Synthesizer interface {
	Format(ctx context.Context, query string, result ActionResult, snap ContextSnapshot) string
}

// ProductRecord is the flat, serializable shape of one product row as handed
// to the synthesizer and the conversation tracker.
type ProductRecord struct {
	ID             int64   `json:"id"`
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Category       string  `json:"category"`
	Supplier       string  `json:"supplier"`
	CurrentStock   int     `json:"current_stock"`
	MinimumStock   int     `json:"minimum_stock"`
	StockStatus    string  `json:"stock_status"`
	CostPrice      float64 `json:"cost_price,omitempty"`
	WholesalePrice float64 `json:"wholesale_price"`
	RetailPrice    float64 `json:"retail_price,omitempty"`
}

// MovementRecord is the flat shape of one stock-movement ledger entry.
type MovementRecord struct {
	ID          int64     `json:"id"`
	ProductSKU  string    `json:"product_sku"`
	ProductName string    `json:"product_name"`
	Type        string    `json:"movement_type"`
	Quantity    int       `json:"quantity"`
	Reference   string    `json:"reference_number,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SupplierRecord is the flat shape of one supplier row.
type SupplierRecord struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	PaymentTerms string `json:"payment_terms,omitempty"`
	Active       bool   `json:"is_active"`
	ProductCount int    `json:"product_count"`
}

// CategoryRollup is one per-category aggregation row.
type CategoryRollup struct {
	Name           string  `json:"name"`
	ProductCount   int     `json:"product_count"`
	InventoryValue float64 `json:"inventory_value"`
}

// MutationReceipt describes one committed stock mutation.
type MutationReceipt struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	OldStock   int    `json:"old_stock"`
	NewStock   int    `json:"new_stock"`
	MovementID int64  `json:"movement_id"`
	Warning    string `json:"warning,omitempty"`
}

// MovementStats summarizes ledger activity over a time window.
type MovementStats struct {
	WindowDays    int `json:"window_days"`
	TotalMoves    int `json:"total_movements"`
	UnitsInbound  int `json:"units_inbound"`
	UnitsOutbound int `json:"units_outbound"`
}

// EntityStore is the gateway to the structured data store. Lookups return
// ErrNotFound-wrapped errors when nothing matches; mutations return
// ErrConstraint-wrapped errors when they would violate a store invariant
// (e.g. drive stock negative). Everything else passes through wrapped.
type EntityStore interface {
	// FindByIdentifier resolves text to one product: exact SKU first, then
	// case-insensitive exact name, then substring name.
	FindByIdentifier(ctx context.Context, identifier string) (ProductRecord, error)
	Search(ctx context.Context, term, category string, limit int) ([]ProductRecord, error)
	ListProducts(ctx context.Context, limit int) ([]ProductRecord, error)
	ProductsByCategory(ctx context.Context, category string, limit int) ([]ProductRecord, error)
	CountProducts(ctx context.Context) (total, lowStock, outOfStock int, err error)

	// AddStock, RemoveStock and AdjustStock each commit one signed-delta
	// movement record and the matching quantity update as a single
	// transaction. RemoveStock rejects decreases past zero.
	AddStock(ctx context.Context, identifier string, quantity int, notes string) (MutationReceipt, error)
	RemoveStock(ctx context.Context, identifier string, quantity int, movementType, notes string) (MutationReceipt, error)
	AdjustStock(ctx context.Context, identifier string, newQuantity int, notes string) (MutationReceipt, error)

	MovementsForProduct(ctx context.Context, identifier string, limit int) ([]MovementRecord, error)
	RecentMovements(ctx context.Context, limit int) ([]MovementRecord, error)
	MovementStats(ctx context.Context, window time.Duration) (MovementStats, error)

	LowStock(ctx context.Context, limit int) ([]ProductRecord, error)
	OutOfStock(ctx context.Context, limit int) ([]ProductRecord, error)
	InventoryValue(ctx context.Context) (float64, error)
	CategoryRollups(ctx context.Context, limit int) ([]CategoryRollup, error)
	Suppliers(ctx context.Context, name string, limit int) ([]SupplierRecord, error)
}

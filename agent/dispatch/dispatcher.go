// Package dispatch maps typed Intents onto the fixed set of business
// operations against the entity store.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "wholesale-agent/agent/contract"
)

const (
	listingLimit  = 50
	matchLimit    = 10
	searchLimit   = 20
	sampleLimit   = 20
	movementLimit = 10
	rollupLimit   = 10
)

// Dispatcher routes Intents to handlers. The store gateway is injected at
// construction, never looked up from ambient scope.
type Dispatcher struct {
	store contractx.EntityStore
}

var _ contractx.Dispatcher = (*Dispatcher)(nil)

func New(store contractx.EntityStore) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("entity store is required")
	}
	return &Dispatcher{store: store}, nil
}

// Dispatch executes the operation the intent names and never propagates an
// error: store failures and panics alike become failed ActionResults.
func (d *Dispatcher) Dispatch(ctx context.Context, intent contractx.Intent) (result contractx.ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("dispatch recovered")
			result = contractx.Failure(contractx.ActionError, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	if intent.NeedsClarification {
		question := intent.ClarificationQuestion
		if question == "" {
			question = "Could you please provide more details?"
		}
		return contractx.ActionResult{
			Success:    true,
			ActionType: contractx.ActionClarification,
			Message:    question,
		}
	}

	switch intent.Type {
	case contractx.IntentInventoryQuery:
		result = d.handleInventoryQuery(ctx, intent)
	case contractx.IntentProductSearch:
		result = d.handleProductSearch(ctx, intent)
	case contractx.IntentInventoryManagement:
		result = d.handleInventoryManagement(ctx, intent)
	case contractx.IntentInventoryHistory:
		result = d.handleInventoryHistory(ctx, intent)
	case contractx.IntentAnalytics:
		result = d.handleAnalytics(ctx)
	case contractx.IntentSupplierQuery:
		result = d.handleSupplierQuery(ctx, intent)
	case contractx.IntentPriceQuery:
		result = d.handlePriceQuery(ctx, intent)
	case contractx.IntentLowStockAlert:
		result = d.handleLowStockAlert(ctx)
	case contractx.IntentHelpCapabilities, contractx.IntentGeneral:
		result = handleHelpCapabilities()
	default:
		result = contractx.Failure(contractx.ActionUnknown, fmt.Sprintf("unknown intent type: %s", intent.Type))
	}
	return result
}

// overviewPhrases drives the "general overview vs specific query" heuristic.
// The exact condition is tunable policy, not contract.
var overviewPhrases = []string{"all products", "every product", "entire stock", "total inventory"}

func isOverviewQuery(intent contractx.Intent) bool {
	product := intent.Slot(contractx.SlotProduct)
	category := intent.Slot(contractx.SlotCategory)
	action := strings.ToLower(intent.Slot(contractx.SlotAction))

	if product == "" && category == "" && action == "" {
		return true
	}
	if action == "list" && strings.Contains(strings.ToLower(category), "all") {
		return true
	}
	joined := strings.ToLower(strings.Join([]string{product, category, action, intent.RawQuery}, " "))
	for _, phrase := range overviewPhrases {
		if strings.Contains(joined, phrase) {
			return true
		}
	}
	return false
}

// OverviewPayload is the inventory-overview data shape.
type OverviewPayload struct {
	TotalProducts  int                       `json:"total_products"`
	LowStockCount  int                       `json:"low_stock_count"`
	OutOfStock     int                       `json:"out_of_stock_count"`
	SampleProducts []contractx.ProductRecord `json:"sample_products"`
}

func (d *Dispatcher) handleInventoryQuery(ctx context.Context, intent contractx.Intent) contractx.ActionResult {
	if isOverviewQuery(intent) {
		if name := intent.Slot(contractx.SlotProduct); name == "" && intent.Slot(contractx.SlotCategory) == "" {
			total, lowStock, outOfStock, err := d.store.CountProducts(ctx)
			if err != nil {
				return storeFailure(contractx.ActionInventoryOverview, err)
			}
			samples, err := d.store.ListProducts(ctx, sampleLimit)
			if err != nil {
				return storeFailure(contractx.ActionInventoryOverview, err)
			}
			return contractx.ActionResult{
				Success:    true,
				ActionType: contractx.ActionInventoryOverview,
				Data: OverviewPayload{
					TotalProducts:  total,
					LowStockCount:  lowStock,
					OutOfStock:     outOfStock,
					SampleProducts: samples,
				},
				Message: fmt.Sprintf("Inventory overview: %d total products", total),
			}
		}

		products, err := d.store.ListProducts(ctx, listingLimit)
		if err != nil {
			return storeFailure(contractx.ActionInventoryListing, err)
		}
		return contractx.ActionResult{
			Success:    true,
			ActionType: contractx.ActionInventoryListing,
			Data:       products,
			Message:    fmt.Sprintf("Retrieved %d products with stock information", len(products)),
		}
	}

	if product := intent.Slot(contractx.SlotProduct); product != "" {
		matches, err := d.store.Search(ctx, product, "", matchLimit)
		if err != nil {
			return storeFailure(contractx.ActionInventoryQuery, err)
		}
		message := fmt.Sprintf("Found %d products matching %q", len(matches), product)
		if len(matches) == 0 {
			// Not-found stays a successful result so the pipeline can still
			// answer helpfully.
			message = fmt.Sprintf("No products found matching %q", product)
		}
		return contractx.ActionResult{
			Success:    true,
			ActionType: contractx.ActionInventoryQuery,
			Data:       matches,
			Message:    message,
		}
	}

	category := intent.Slot(contractx.SlotCategory)
	products, err := d.store.ProductsByCategory(ctx, category, listingLimit)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return contractx.ActionResult{
				Success:    true,
				ActionType: contractx.ActionInventoryQuery,
				Data:       []contractx.ProductRecord{},
				Message:    fmt.Sprintf("No category found matching %q", category),
			}
		}
		return storeFailure(contractx.ActionInventoryQuery, err)
	}
	return contractx.ActionResult{
		Success:    true,
		ActionType: contractx.ActionInventoryQuery,
		Data:       products,
		Message:    fmt.Sprintf("Found %d products in the %s category", len(products), category),
	}
}

func (d *Dispatcher) handleProductSearch(ctx context.Context, intent contractx.Intent) contractx.ActionResult {
	term := intent.Slot(contractx.SlotProduct)
	category := intent.Slot(contractx.SlotCategory)

	products, err := d.store.Search(ctx, term, category, searchLimit)
	if err != nil {
		return storeFailure(contractx.ActionProductSearch, err)
	}
	return contractx.ActionResult{
		Success:    true,
		ActionType: contractx.ActionProductSearch,
		Data:       products,
		Message:    fmt.Sprintf("Found %d products", len(products)),
	}
}

var (
	addVerbs    = map[string]bool{"add": true, "increase": true, "receive": true, "restock": true}
	removeVerbs = map[string]bool{"remove": true, "decrease": true, "sell": true, "ship": true, "lost": true, "lose": true}
	adjustVerbs = map[string]bool{"adjust": true, "set": true, "update": true}
)

func (d *Dispatcher) handleInventoryManagement(ctx context.Context, intent contractx.Intent) contractx.ActionResult {
	action := strings.ToLower(intent.Slot(contractx.SlotAction))
	product := intent.Slot(contractx.SlotProduct)
	quantityStr := intent.Slot(contractx.SlotQuantity)

	if action == "" {
		return contractx.Failure(contractx.ActionInventoryManagement, "no action specified (add, remove, adjust, etc.)")
	}
	if product == "" {
		return contractx.Failure(contractx.ActionInventoryManagement, "no product specified")
	}
	if quantityStr == "" {
		return contractx.Failure(contractx.ActionInventoryManagement, "no quantity specified")
	}
	quantity, err := strconv.Atoi(quantityStr)
	if err != nil {
		return contractx.Failure(contractx.ActionInventoryManagement, fmt.Sprintf("invalid quantity: %s", quantityStr))
	}

	var receipt contractx.MutationReceipt
	switch {
	case addVerbs[action]:
		receipt, err = d.store.AddStock(ctx, product, quantity, "Stock added via assistant")
	case removeVerbs[action]:
		movementType := "OUTBOUND"
		if action == "lost" || action == "lose" {
			movementType = "DAMAGED"
		}
		receipt, err = d.store.RemoveStock(ctx, product, quantity, movementType, fmt.Sprintf("Stock %s via assistant", action))
	case adjustVerbs[action]:
		receipt, err = d.store.AdjustStock(ctx, product, quantity, "Stock adjusted via assistant")
	default:
		return contractx.Failure(contractx.ActionInventoryManagement, fmt.Sprintf("unknown action: %s", action))
	}
	if err != nil {
		return storeFailure(contractx.ActionInventoryManagement, err)
	}

	message := fmt.Sprintf("Successfully updated %s: stock %d -> %d", receipt.Name, receipt.OldStock, receipt.NewStock)
	return contractx.ActionResult{
		Success:    true,
		ActionType: contractx.ActionInventoryManagement,
		Data:       receipt,
		Message:    message,
	}
}

// ProductHistory is the per-product movement-history data shape.
type ProductHistory struct {
	SKU             string                     `json:"sku"`
	Name            string                     `json:"name"`
	CurrentStock    int                        `json:"current_stock"`
	LastUpdated     *time.Time                 `json:"last_updated,omitempty"`
	DaysSinceUpdate int                        `json:"last_update_days_ago"`
	RecentMovements []contractx.MovementRecord `json:"recent_movements"`
	TotalMovements  int                        `json:"total_movements"`
}

func (d *Dispatcher) handleInventoryHistory(ctx context.Context, intent contractx.Intent) contractx.ActionResult {
	product := intent.Slot(contractx.SlotProduct)
	if product == "" {
		return contractx.Failure(contractx.ActionInventoryHistory, "no product specified for history query")
	}

	matches, err := d.store.Search(ctx, product, "", 5)
	if err != nil {
		return storeFailure(contractx.ActionInventoryHistory, err)
	}
	if len(matches) == 0 {
		return contractx.ActionResult{
			Success:    true,
			ActionType: contractx.ActionInventoryHistory,
			Data:       []ProductHistory{},
			Message:    fmt.Sprintf("No products found matching %q", product),
		}
	}

	histories := make([]ProductHistory, 0, len(matches))
	for _, p := range matches {
		movements, err := d.store.MovementsForProduct(ctx, p.SKU, movementLimit)
		if err != nil {
			return storeFailure(contractx.ActionInventoryHistory, err)
		}
		entry := ProductHistory{
			SKU:             p.SKU,
			Name:            p.Name,
			CurrentStock:    p.CurrentStock,
			RecentMovements: movements,
			TotalMovements:  len(movements),
		}
		if len(movements) > 0 {
			last := movements[0].CreatedAt
			entry.LastUpdated = &last
			entry.DaysSinceUpdate = int(time.Since(last).Hours() / 24)
			if len(entry.RecentMovements) > 5 {
				entry.RecentMovements = entry.RecentMovements[:5]
			}
		}
		histories = append(histories, entry)
	}

	return contractx.ActionResult{
		Success:    true,
		ActionType: contractx.ActionInventoryHistory,
		Data:       histories,
		Message:    fmt.Sprintf("Found inventory history for %d products", len(histories)),
	}
}

// AnalyticsPayload is the business-analytics data shape.
type AnalyticsPayload struct {
	TotalProducts       int                        `json:"total_products"`
	TotalInventoryValue float64                    `json:"total_inventory_value"`
	TopCategories       []contractx.CategoryRollup `json:"top_categories"`
	RecentMovements     []contractx.MovementRecord `json:"recent_movements"`
	MovementStats       contractx.MovementStats    `json:"movement_stats"`
}

func (d *Dispatcher) handleAnalytics(ctx context.Context) contractx.ActionResult {
	total, _, _, err := d.store.CountProducts(ctx)
	if err != nil {
		return storeFailure(contractx.ActionAnalytics, err)
	}
	value, err := d.store.InventoryValue(ctx)
	if err != nil {
		return storeFailure(contractx.ActionAnalytics, err)
	}
	rollups, err := d.store.CategoryRollups(ctx, rollupLimit)
	if err != nil {
		return storeFailure(contractx.ActionAnalytics, err)
	}
	movements, err := d.store.RecentMovements(ctx, movementLimit)
	if err != nil {
		return storeFailure(contractx.ActionAnalytics, err)
	}
	stats, err := d.store.MovementStats(ctx, 30*24*time.Hour)
	if err != nil {
		return storeFailure(contractx.ActionAnalytics, err)
	}

	return contractx.ActionResult{
		Success:    true,
		ActionType: contractx.ActionAnalytics,
		Data: AnalyticsPayload{
			TotalProducts:       total,
			TotalInventoryValue: value,
			TopCategories:       rollups,
			RecentMovements:     movements,
			MovementStats:       stats,
		},
		Message: "Business analytics data retrieved",
	}
}

func (d *Dispatcher) handleSupplierQuery(ctx context.Context, intent contractx.Intent) contractx.ActionResult {
	name := intent.Slot(contractx.SlotSupplier)
	suppliers, err := d.store.Suppliers(ctx, name, matchLimit)
	if err != nil {
		return storeFailure(contractx.ActionSupplierQuery, err)
	}
	return contractx.ActionResult{
		Success:    true,
		ActionType: contractx.ActionSupplierQuery,
		Data:       suppliers,
		Message:    fmt.Sprintf("Found %d suppliers", len(suppliers)),
	}
}

func (d *Dispatcher) handlePriceQuery(ctx context.Context, intent contractx.Intent) contractx.ActionResult {
	product := intent.Slot(contractx.SlotProduct)
	if product == "" {
		return contractx.Failure(contractx.ActionPriceQuery, "no product specified for price query")
	}

	matches, err := d.store.Search(ctx, product, "", matchLimit)
	if err != nil {
		return storeFailure(contractx.ActionPriceQuery, err)
	}
	message := fmt.Sprintf("Found pricing for %d products", len(matches))
	if len(matches) == 0 {
		message = fmt.Sprintf("No products found matching %q", product)
	}
	return contractx.ActionResult{
		Success:    true,
		ActionType: contractx.ActionPriceQuery,
		Data:       matches,
		Message:    message,
	}
}

// AlertPayload is the low/out-of-stock alert data shape.
type AlertPayload struct {
	LowStock        []contractx.ProductRecord `json:"low_stock_products"`
	OutOfStock      []contractx.ProductRecord `json:"out_of_stock_products"`
	LowStockCount   int                       `json:"low_stock_count"`
	OutOfStockCount int                       `json:"out_of_stock_count"`
}

func (d *Dispatcher) handleLowStockAlert(ctx context.Context) contractx.ActionResult {
	lowStock, err := d.store.LowStock(ctx, listingLimit)
	if err != nil {
		return storeFailure(contractx.ActionLowStockAlert, err)
	}
	outOfStock, err := d.store.OutOfStock(ctx, sampleLimit)
	if err != nil {
		return storeFailure(contractx.ActionLowStockAlert, err)
	}

	return contractx.ActionResult{
		Success:    true,
		ActionType: contractx.ActionLowStockAlert,
		Data: AlertPayload{
			LowStock:        lowStock,
			OutOfStock:      outOfStock,
			LowStockCount:   len(lowStock),
			OutOfStockCount: len(outOfStock),
		},
		Message: fmt.Sprintf("Found %d low stock and %d out of stock products", len(lowStock), len(outOfStock)),
	}
}

// Capability describes one thing the agent can do, for help output.
type Capability struct {
	Topic       string   `json:"topic"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

var capabilities = []Capability{
	{
		Topic:       "Inventory Operations",
		Description: "Manage your inventory with natural language",
		Examples: []string{
			"How much stock of gaming keyboard do we have?",
			"Add 50 units to laptop stand",
			"Remove 10 brake pads from inventory",
			"Adjust wireless mouse stock to 100 units",
		},
	},
	{
		Topic:       "Product Search",
		Description: "Find and browse your product catalog",
		Examples: []string{
			"Show me all electronics products",
			"Find products with 'wireless' in the name",
		},
	},
	{
		Topic:       "Pricing Information",
		Description: "Get pricing details for products",
		Examples: []string{
			"What's the price of gaming keyboard?",
			"What's the wholesale price of phone charger?",
		},
	},
	{
		Topic:       "Inventory History",
		Description: "Check when products were last updated or modified",
		Examples: []string{
			"When did we last modify gaming keyboard stock?",
			"Show recent inventory movements for wireless mouse",
		},
	},
	{
		Topic:       "Analytics & Reporting",
		Description: "Get business insights and analytics",
		Examples: []string{
			"What's our total inventory value?",
			"How many products do we have in total?",
		},
	},
	{
		Topic:       "Stock Alerts",
		Description: "Check for low stock and out-of-stock products",
		Examples: []string{
			"Show me all low stock products",
			"Which products are out of stock?",
		},
	},
	{
		Topic:       "Supplier Information",
		Description: "Get information about your suppliers",
		Examples: []string{
			"Show me all active suppliers",
			"Which suppliers do we work with?",
		},
	},
	{
		Topic:       "Contextual Conversations",
		Description: "Ask natural follow-up questions; 'its' and 'that product' refer back to earlier answers",
		Examples: []string{
			"How much stock of gaming keyboard? ... What about its price?",
		},
	},
}

func handleHelpCapabilities() contractx.ActionResult {
	return contractx.ActionResult{
		Success:    true,
		ActionType: contractx.ActionHelpCapabilities,
		Data:       capabilities,
		Message:    "Here are my capabilities and what you can ask me",
	}
}

// storeFailure converts a gateway error into a failed result, preserving the
// constraint or transport message for the synthesizer.
func storeFailure(action contractx.ActionType, err error) contractx.ActionResult {
	log.Error().Err(err).Str("action", string(action)).Msg("store operation failed")
	return contractx.Failure(action, err.Error())
}

package contract

import "time"

// IntentType is the fixed catalogue of query intents the agent understands.
type IntentType string

const (
	IntentInventoryQuery      IntentType = "inventory_query"
	IntentProductSearch       IntentType = "product_search"
	IntentInventoryManagement IntentType = "inventory_management"
	IntentInventoryHistory    IntentType = "inventory_history"
	IntentAnalytics           IntentType = "analytics"
	IntentSupplierQuery       IntentType = "supplier_query"
	IntentPriceQuery          IntentType = "price_query"
	IntentLowStockAlert       IntentType = "low_stock_alert"
	IntentHelpCapabilities    IntentType = "help_capabilities"
	IntentGeneral             IntentType = "general"
)

// IntentCatalogue maps every declared intent to the one-line description used
// in classification prompts. Prompt ordering comes from IntentOrder.
var IntentCatalogue = map[IntentType]string{
	IntentInventoryQuery:      "Check stock levels, inventory status, or product availability",
	IntentProductSearch:       "Find specific products or browse the product catalog",
	IntentInventoryManagement: "Add, remove, or adjust stock quantities",
	IntentInventoryHistory:    "Check movement history or when products were last modified",
	IntentAnalytics:           "Business analytics, totals, trends, or reporting",
	IntentSupplierQuery:       "Information about suppliers or vendor management",
	IntentPriceQuery:          "Product pricing information",
	IntentLowStockAlert:       "Check products with low or out-of-stock status",
	IntentHelpCapabilities:    "Ask what the agent can do and how to use it",
	IntentGeneral:             "General questions or unclear requests that need clarification",
}

var IntentOrder = []IntentType{
	IntentInventoryQuery,
	IntentProductSearch,
	IntentInventoryManagement,
	IntentInventoryHistory,
	IntentAnalytics,
	IntentSupplierQuery,
	IntentPriceQuery,
	IntentLowStockAlert,
	IntentHelpCapabilities,
	IntentGeneral,
}

func (t IntentType) IsValid() bool {
	_, ok := IntentCatalogue[t]
	return ok
}

// Entity slot names the analyzer extracts from queries.
const (
	SlotProduct  = "product_name"
	SlotQuantity = "quantity"
	SlotAction   = "action"
	SlotCategory = "category"
	SlotSupplier = "supplier"
	SlotPrice    = "price"
)

// Intent is the classified purpose of one query plus its extracted slots.
type Intent struct {
	Type                  IntentType        `json:"intent_type"`
	Confidence            float64           `json:"confidence"`
	Entities              map[string]string `json:"entities,omitempty"`
	NeedsClarification    bool              `json:"needs_clarification"`
	ClarificationQuestion string            `json:"clarification_question,omitempty"`
	RawQuery              string            `json:"raw_query,omitempty"`
}

// Slot returns the named entity slot, or "" when absent.
func (i Intent) Slot(name string) string {
	if i.Entities == nil {
		return ""
	}
	return i.Entities[name]
}

// ActionType tags the business operation an ActionResult came from. The tag
// drives both response shaping and conversation-context tracking.
type ActionType string

const (
	ActionClarification       ActionType = "clarification"
	ActionInventoryQuery      ActionType = "inventory_query"
	ActionInventoryListing    ActionType = "inventory_listing"
	ActionInventoryOverview   ActionType = "inventory_overview"
	ActionProductSearch       ActionType = "product_search"
	ActionInventoryManagement ActionType = "inventory_management"
	ActionInventoryHistory    ActionType = "inventory_history"
	ActionAnalytics           ActionType = "analytics"
	ActionSupplierQuery       ActionType = "supplier_query"
	ActionPriceQuery          ActionType = "price_query"
	ActionLowStockAlert       ActionType = "low_stock_alert"
	ActionHelpCapabilities    ActionType = "help_capabilities"
	ActionUnknown             ActionType = "unknown"
	ActionError               ActionType = "error"
)

// ActionResult is the structured outcome of one executed business operation.
// Invariant: Success=false implies Error is non-empty; build failed results
// with Failure.
type ActionResult struct {
	Success    bool       `json:"success"`
	ActionType ActionType `json:"action_type"`
	Data       any        `json:"data,omitempty"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Failure builds a failed ActionResult with a guaranteed non-empty error text.
func Failure(action ActionType, errText string) ActionResult {
	if errText == "" {
		errText = "operation failed"
	}
	return ActionResult{
		Success:    false,
		ActionType: action,
		Error:      errText,
	}
}

// ConversationTurn is one query/response exchange plus its intermediate
// artifacts. Turns are immutable once recorded.
type ConversationTurn struct {
	ID        int          `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Query     string       `json:"query"`
	Intent    Intent       `json:"intent"`
	Result    ActionResult `json:"result"`
	Response  string       `json:"response"`
}

// ContextSnapshot is what the context store hands the analyzer and the
// synthesizer for one query: tracked state plus lexical reference cues
// detected in the query itself.
type ContextSnapshot struct {
	HasHistory     bool
	RecentProducts []string
	LastActionType ActionType
	LastEntities   map[string]string
	Summary        string

	RefersToPrevious   bool
	RefersToProduct    bool
	RefersToSameAction bool
	IsFollowUp         bool
}

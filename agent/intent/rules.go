package intent

import (
	"context"
	"regexp"
	"strings"

	contractx "wholesale-agent/agent/contract"
)

// RuleAnalyzer is the legacy pattern classifier, kept as an explicit
// alternate strategy behind the same IntentSource contract. It is selected,
// never blended with the model-backed analyzer.
type RuleAnalyzer struct{}

var _ contractx.IntentSource = (*RuleAnalyzer)(nil)

func NewRuleAnalyzer() *RuleAnalyzer {
	return &RuleAnalyzer{}
}

var rulePatterns = map[contractx.IntentType][]*regexp.Regexp{
	contractx.IntentInventoryQuery: compileAll(
		`(?i)(?:how much|how many|stock|inventory|quantity).+(?:do we have|in stock|available)`,
		`(?i)(?:stock level|current stock|inventory level)`,
		`(?i)(?:how much stock|stock of)`,
		`(?i)(?:list|show).+(?:all|every).+(?:products?|items?)`,
		`(?i)(?:all products?|every product|entire stock|total inventory)`,
	),
	contractx.IntentProductSearch: compileAll(
		`(?i)(?:find|search|look for|show me).+(?:product|item)`,
		`(?i)(?:what products|which products)`,
		`(?i)(?:product information|product details)`,
		`(?i)(?:tell me about|information on)`,
	),
	contractx.IntentInventoryManagement: compileAll(
		`(?i)(?:add|increase|receive|restock).+(?:stock|inventory|units)`,
		`(?i)(?:remove|decrease|sell|ship|lost|damaged).+(?:stock|inventory|units)`,
		`(?i)(?:adjust|set|update).+(?:stock|inventory|quantity)`,
		`(?i)(?:let's|we).+(?:remove|lose|sell|ship)`,
		`(?i)lost \d+ units`,
		`(?i)we lost \d+`,
	),
	contractx.IntentInventoryHistory: compileAll(
		`(?i)(?:last time|last updated|when did we).+(?:update|modify|change)`,
		`(?i)(?:movement history|stock movements|recent movements)`,
	),
	contractx.IntentAnalytics: compileAll(
		`(?i)(?:top|best|highest|most).+(?:selling|sold|popular)`,
		`(?i)(?:revenue|sales|profit|earnings)`,
		`(?i)(?:analytics|statistics|stats|report)`,
		`(?i)(?:total|sum|count|average).+(?:value|worth)`,
		`(?i)(?:performance|trends|analysis)`,
	),
	contractx.IntentSupplierQuery: compileAll(
		`(?i)(?:supplier|vendor|manufacturer)`,
		`(?i)(?:who supplies|supplied by)`,
	),
	contractx.IntentPriceQuery: compileAll(
		`(?i)(?:price|cost|pricing)`,
		`(?i)(?:how much|what does).+(?:cost|price)`,
		`(?i)(?:wholesale|retail).+(?:price|cost)`,
	),
	contractx.IntentLowStockAlert: compileAll(
		`(?i)(?:low stock|out of stock|running low|stock alert)`,
	),
	contractx.IntentHelpCapabilities: compileAll(
		`(?i)(?:what can (?:i|you)|your capabilities|how do i use|help me understand)`,
	),
}

var ruleEntityPatterns = map[string][]*regexp.Regexp{
	contractx.SlotProduct: compileAll(
		`(?i)(?:stock of|inventory of|price of|about)\s+([a-zA-Z][a-zA-Z ]*?)(?:\s+do we|\s+in stock|\?|$|,)`,
		`"([^"]+)"`,
		`'([^']+)'`,
		`(?i)(?:add|remove|adjust|set)\s+\d+\s+units?\s+of\s+(.+?)\s*$`,
		`(?i)(?:remove|add|adjust|sell|ship)\s+([a-zA-Z][a-zA-Z ]*?)\s+(?:as|because|from|to)\b`,
	),
	contractx.SlotCategory: compileAll(
		`(?i)(?:in|from|of)\s+([a-zA-Z &]+?)\s+category`,
		`(?i)category:?\s*([a-zA-Z &]+?)(?:\s*$|,)`,
	),
	contractx.SlotSupplier: compileAll(
		`(?i)(?:manufactured by|supplied by)\s+([a-zA-Z ]+?)(?:\s*$|,)`,
		`(?i)supplier:?\s*([a-zA-Z ]+?)(?:\s*$|,)`,
	),
	contractx.SlotQuantity: compileAll(
		`(\d+)\s*(?:units?|pieces?|items?)`,
		`(?i)quantity:?\s*(\d+)`,
		`(?i)(?:add|remove|adjust|set)\s+(\d+)`,
		`(?i)(?:to|into|from)\s+(\d+)`,
	),
	contractx.SlotAction: compileAll(
		`(?i)\b(add|increase|receive|restock|remove|decrease|sell|ship|adjust|set|update|lost|lose)\b`,
	),
	contractx.SlotPrice: compileAll(
		`\$(\d+(?:\.\d{2})?)`,
		`(?i)(\d+(?:\.\d{2})?)\s*(?:dollars?|usd)`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Analyze scores every intent's pattern list against the query; the highest
// score wins and ties resolve in catalogue order. No match degrades to the
// general category with clarification requested.
func (r *RuleAnalyzer) Analyze(_ context.Context, query string, _ contractx.ContextSnapshot) contractx.Intent {
	lowered := strings.ToLower(strings.TrimSpace(query))
	if lowered == "" {
		return DegradedIntent(query)
	}

	best := contractx.IntentGeneral
	bestScore := 0
	for _, candidate := range contractx.IntentOrder {
		patterns, ok := rulePatterns[candidate]
		if !ok {
			continue
		}
		score := 0
		for _, p := range patterns {
			if p.MatchString(lowered) {
				score++
			}
		}
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	if best == contractx.IntentGeneral {
		return contractx.Intent{
			Type:                  contractx.IntentGeneral,
			Confidence:            0.2,
			NeedsClarification:    true,
			ClarificationQuestion: "Could you tell me more about what you're looking for? I can check stock, search products, adjust inventory, and more.",
			RawQuery:              query,
		}
	}

	confidence := 0.5 + 0.15*float64(bestScore)
	if confidence > 0.9 {
		confidence = 0.9
	}

	return contractx.Intent{
		Type:       best,
		Confidence: confidence,
		Entities:   extractRuleEntities(query),
		RawQuery:   query,
	}
}

func extractRuleEntities(query string) map[string]string {
	entities := make(map[string]string)
	for slot, patterns := range ruleEntityPatterns {
		for _, p := range patterns {
			if m := p.FindStringSubmatch(query); len(m) > 1 {
				value := strings.TrimSpace(m[1])
				if value != "" {
					entities[slot] = value
					break
				}
			}
		}
	}
	if len(entities) == 0 {
		return nil
	}
	return entities
}

package intent

import (
	"context"
	"testing"

	contractx "wholesale-agent/agent/contract"
)

func TestRuleAnalyzerClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		query string
		want  contractx.IntentType
	}{
		{"how much stock of gaming keyboard do we have", contractx.IntentInventoryQuery},
		{"show me all products", contractx.IntentInventoryQuery},
		{"find products with wireless in the name", contractx.IntentProductSearch},
		{"add 50 units of laptop stand", contractx.IntentInventoryManagement},
		{"we lost 5 units of gaming keyboard", contractx.IntentInventoryManagement},
		{"when did we last modify the wireless mouse", contractx.IntentInventoryHistory},
		{"show me sales analytics", contractx.IntentAnalytics},
		{"which suppliers do we work with", contractx.IntentSupplierQuery},
		{"what is the wholesale price of phone charger", contractx.IntentPriceQuery},
		{"any low stock alerts today", contractx.IntentLowStockAlert},
		{"what can you do", contractx.IntentHelpCapabilities},
	}

	analyzer := NewRuleAnalyzer()
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			t.Parallel()
			got := analyzer.Analyze(context.Background(), tc.query, contractx.ContextSnapshot{})
			if got.Type != tc.want {
				t.Fatalf("got %s, want %s", got.Type, tc.want)
			}
			if got.NeedsClarification {
				t.Fatal("matched query should not request clarification")
			}
			if got.Confidence < 0.5 || got.Confidence > 0.9 {
				t.Fatalf("confidence %v out of range", got.Confidence)
			}
		})
	}
}

func TestRuleAnalyzerUnmatchedRequestsClarification(t *testing.T) {
	t.Parallel()

	analyzer := NewRuleAnalyzer()
	got := analyzer.Analyze(context.Background(), "tell me a joke", contractx.ContextSnapshot{})
	if got.Type != contractx.IntentGeneral {
		t.Fatalf("got %s", got.Type)
	}
	if !got.NeedsClarification || got.ClarificationQuestion == "" {
		t.Fatal("unmatched query must request clarification")
	}
}

func TestRuleAnalyzerEmptyQuery(t *testing.T) {
	t.Parallel()

	analyzer := NewRuleAnalyzer()
	got := analyzer.Analyze(context.Background(), "   ", contractx.ContextSnapshot{})
	if got.Type != contractx.IntentGeneral || !got.NeedsClarification {
		t.Fatalf("expected degraded intent, got %+v", got)
	}
}

func TestRuleAnalyzerEntityExtraction(t *testing.T) {
	t.Parallel()

	analyzer := NewRuleAnalyzer()
	got := analyzer.Analyze(context.Background(), "add 50 units of laptop stand", contractx.ContextSnapshot{})

	if got.Slot(contractx.SlotAction) != "add" {
		t.Fatalf("got action %q", got.Slot(contractx.SlotAction))
	}
	if got.Slot(contractx.SlotQuantity) != "50" {
		t.Fatalf("got quantity %q", got.Slot(contractx.SlotQuantity))
	}
	if got.Slot(contractx.SlotProduct) != "laptop stand" {
		t.Fatalf("got product %q", got.Slot(contractx.SlotProduct))
	}
}

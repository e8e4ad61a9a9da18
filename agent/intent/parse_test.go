package intent

import (
	"errors"
	"testing"

	contractx "wholesale-agent/agent/contract"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "fenced block",
			raw:  "Here you go:\n```json\n{\"intent_type\": \"price_query\"}\n```\nDone.",
			want: `{"intent_type": "price_query"}`,
		},
		{
			name: "bare object",
			raw:  `{"intent_type": "inventory_query"}`,
			want: `{"intent_type": "inventory_query"}`,
		},
		{
			name: "object with surrounding prose",
			raw:  `Sure! {"intent_type": "general"} hope that helps`,
			want: `{"intent_type": "general"}`,
		},
		{
			name:    "no json at all",
			raw:     "I cannot answer that.",
			wantErr: true,
		},
		{
			name:    "empty response",
			raw:     "   ",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractJSON(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if !errors.Is(err, contractx.ErrSchemaViolation) {
					t.Fatalf("expected schema violation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDecodeIntent(t *testing.T) {
	t.Parallel()

	t.Run("full response", func(t *testing.T) {
		t.Parallel()
		raw := `{"intent_type": "inventory_query", "confidence": 0.92,
			"entities": {"product_name": "gaming keyboard", "quantity": 50},
			"needs_clarification": false}`

		got, err := DecodeIntent(raw, "how much gaming keyboard stock?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Type != contractx.IntentInventoryQuery {
			t.Fatalf("got type %s", got.Type)
		}
		if got.Confidence != 0.92 {
			t.Fatalf("got confidence %v", got.Confidence)
		}
		if got.Slot(contractx.SlotProduct) != "gaming keyboard" {
			t.Fatalf("got product %q", got.Slot(contractx.SlotProduct))
		}
		if got.Slot(contractx.SlotQuantity) != "50" {
			t.Fatalf("numeric slot not stringified: %q", got.Slot(contractx.SlotQuantity))
		}
		if got.RawQuery != "how much gaming keyboard stock?" {
			t.Fatalf("raw query not preserved: %q", got.RawQuery)
		}
	})

	t.Run("trailing comma tolerated", func(t *testing.T) {
		t.Parallel()
		raw := `{"intent_type": "price_query", "confidence": 0.8,}`
		got, err := DecodeIntent(raw, "q")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Type != contractx.IntentPriceQuery {
			t.Fatalf("got type %s", got.Type)
		}
	})

	t.Run("null and empty entities dropped", func(t *testing.T) {
		t.Parallel()
		raw := `{"intent_type": "inventory_query", "confidence": 0.7,
			"entities": {"product_name": null, "category": "", "supplier": "none"}}`
		got, err := DecodeIntent(raw, "q")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Entities != nil {
			t.Fatalf("expected no entities, got %v", got.Entities)
		}
	})

	t.Run("unknown intent type degrades", func(t *testing.T) {
		t.Parallel()
		raw := `{"intent_type": "order_pizza", "confidence": 0.99}`
		got, err := DecodeIntent(raw, "q")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Type != contractx.IntentGeneral {
			t.Fatalf("got type %s", got.Type)
		}
		if !got.NeedsClarification {
			t.Fatal("expected clarification request")
		}
		if got.ClarificationQuestion == "" {
			t.Fatal("expected a default clarification question")
		}
	})

	t.Run("confidence clamped", func(t *testing.T) {
		t.Parallel()
		raw := `{"intent_type": "analytics", "confidence": 3.5}`
		got, err := DecodeIntent(raw, "q")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Confidence != 1 {
			t.Fatalf("got confidence %v", got.Confidence)
		}
	})

	t.Run("unparseable response errors", func(t *testing.T) {
		t.Parallel()
		if _, err := DecodeIntent("{not json", "q"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestDegradedIntent(t *testing.T) {
	t.Parallel()

	got := DegradedIntent("whatever")
	if got.Type != contractx.IntentGeneral {
		t.Fatalf("got type %s", got.Type)
	}
	if got.Confidence != 0 {
		t.Fatalf("got confidence %v", got.Confidence)
	}
	if !got.NeedsClarification || got.ClarificationQuestion == "" {
		t.Fatal("degraded intent must request clarification")
	}
	if got.RawQuery != "whatever" {
		t.Fatalf("raw query not preserved: %q", got.RawQuery)
	}
}

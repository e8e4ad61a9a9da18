package contract

import "testing"

func TestIntentCatalogueComplete(t *testing.T) {
	t.Parallel()

	if len(IntentOrder) != len(IntentCatalogue) {
		t.Fatalf("order lists %d intents, catalogue has %d", len(IntentOrder), len(IntentCatalogue))
	}
	for _, typ := range IntentOrder {
		if !typ.IsValid() {
			t.Fatalf("ordered intent %s missing from catalogue", typ)
		}
	}
	if IntentType("order_pizza").IsValid() {
		t.Fatal("unknown type must be invalid")
	}
}

func TestFailureGuaranteesError(t *testing.T) {
	t.Parallel()

	got := Failure(ActionInventoryQuery, "")
	if got.Success {
		t.Fatal("failure result must not be successful")
	}
	if got.Error == "" {
		t.Fatal("failure result must carry an error message")
	}

	got = Failure(ActionError, "boom")
	if got.Error != "boom" {
		t.Fatalf("got %q", got.Error)
	}
}

func TestIntentSlot(t *testing.T) {
	t.Parallel()

	var empty Intent
	if empty.Slot(SlotProduct) != "" {
		t.Fatal("nil entities must read as empty slots")
	}

	withSlots := Intent{Entities: map[string]string{SlotProduct: "gaming keyboard"}}
	if withSlots.Slot(SlotProduct) != "gaming keyboard" {
		t.Fatalf("got %q", withSlots.Slot(SlotProduct))
	}
}

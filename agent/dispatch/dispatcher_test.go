package dispatch

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	contractx "wholesale-agent/agent/contract"
)

// fakeStore is an in-memory EntityStore. Every call is counted so tests can
// assert the dispatcher touched (or did not touch) the gateway.
type fakeStore struct {
	products  []contractx.ProductRecord
	movements []contractx.MovementRecord
	suppliers []contractx.SupplierRecord
	rollups   []contractx.CategoryRollup

	calls      int
	failWith   error
	lastNotes  string
	lastMoveTy string
}

func (f *fakeStore) bump() error {
	f.calls++
	return f.failWith
}

func (f *fakeStore) find(identifier string) (contractx.ProductRecord, error) {
	for _, p := range f.products {
		if strings.EqualFold(p.SKU, identifier) || strings.EqualFold(p.Name, identifier) {
			return p, nil
		}
	}
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(identifier)) {
			return p, nil
		}
	}
	return contractx.ProductRecord{}, fmt.Errorf("%w: product %q not found", contractx.ErrNotFound, identifier)
}

func (f *fakeStore) FindByIdentifier(_ context.Context, identifier string) (contractx.ProductRecord, error) {
	if err := f.bump(); err != nil {
		return contractx.ProductRecord{}, err
	}
	return f.find(identifier)
}

func (f *fakeStore) Search(_ context.Context, term, category string, _ int) ([]contractx.ProductRecord, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	var out []contractx.ProductRecord
	for _, p := range f.products {
		if term != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		out = append(out, p)
	}
	if out == nil {
		out = []contractx.ProductRecord{}
	}
	return out, nil
}

func (f *fakeStore) ListProducts(_ context.Context, _ int) ([]contractx.ProductRecord, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.products, nil
}

func (f *fakeStore) ProductsByCategory(ctx context.Context, category string, limit int) ([]contractx.ProductRecord, error) {
	return f.Search(ctx, "", category, limit)
}

func (f *fakeStore) CountProducts(_ context.Context) (int, int, int, error) {
	if err := f.bump(); err != nil {
		return 0, 0, 0, err
	}
	var low, out int
	for _, p := range f.products {
		switch {
		case p.CurrentStock <= 0:
			out++
		case p.CurrentStock <= p.MinimumStock:
			low++
		}
	}
	return len(f.products), low, out, nil
}

func (f *fakeStore) mutate(identifier string, delta int, movementType, notes string) (contractx.MutationReceipt, error) {
	if err := f.bump(); err != nil {
		return contractx.MutationReceipt{}, err
	}
	product, err := f.find(identifier)
	if err != nil {
		return contractx.MutationReceipt{}, err
	}
	newStock := product.CurrentStock + delta
	if newStock < 0 {
		return contractx.MutationReceipt{}, fmt.Errorf("%w: insufficient stock for %s: have %d, requested %d",
			contractx.ErrConstraint, product.Name, product.CurrentStock, -delta)
	}
	for i := range f.products {
		if f.products[i].SKU == product.SKU {
			f.products[i].CurrentStock = newStock
		}
	}
	f.lastNotes = notes
	f.lastMoveTy = movementType
	return contractx.MutationReceipt{
		SKU:      product.SKU,
		Name:     product.Name,
		OldStock: product.CurrentStock,
		NewStock: newStock,
	}, nil
}

func (f *fakeStore) AddStock(_ context.Context, identifier string, quantity int, notes string) (contractx.MutationReceipt, error) {
	return f.mutate(identifier, quantity, "INBOUND", notes)
}

func (f *fakeStore) RemoveStock(_ context.Context, identifier string, quantity int, movementType, notes string) (contractx.MutationReceipt, error) {
	return f.mutate(identifier, -quantity, movementType, notes)
}

func (f *fakeStore) AdjustStock(_ context.Context, identifier string, newQuantity int, notes string) (contractx.MutationReceipt, error) {
	product, err := f.find(identifier)
	if err != nil {
		f.calls++
		return contractx.MutationReceipt{}, err
	}
	return f.mutate(identifier, newQuantity-product.CurrentStock, "ADJUSTMENT", notes)
}

func (f *fakeStore) MovementsForProduct(_ context.Context, _ string, _ int) ([]contractx.MovementRecord, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.movements, nil
}

func (f *fakeStore) RecentMovements(_ context.Context, _ int) ([]contractx.MovementRecord, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.movements, nil
}

func (f *fakeStore) MovementStats(_ context.Context, window time.Duration) (contractx.MovementStats, error) {
	if err := f.bump(); err != nil {
		return contractx.MovementStats{}, err
	}
	return contractx.MovementStats{WindowDays: int(window.Hours() / 24), TotalMoves: len(f.movements)}, nil
}

func (f *fakeStore) LowStock(_ context.Context, _ int) ([]contractx.ProductRecord, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	var out []contractx.ProductRecord
	for _, p := range f.products {
		if p.CurrentStock > 0 && p.CurrentStock <= p.MinimumStock {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) OutOfStock(_ context.Context, _ int) ([]contractx.ProductRecord, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	var out []contractx.ProductRecord
	for _, p := range f.products {
		if p.CurrentStock <= 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) InventoryValue(_ context.Context) (float64, error) {
	if err := f.bump(); err != nil {
		return 0, err
	}
	var value float64
	for _, p := range f.products {
		value += float64(p.CurrentStock) * p.WholesalePrice
	}
	return value, nil
}

func (f *fakeStore) CategoryRollups(_ context.Context, _ int) ([]contractx.CategoryRollup, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.rollups, nil
}

func (f *fakeStore) Suppliers(_ context.Context, _ string, _ int) ([]contractx.SupplierRecord, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.suppliers, nil
}

func demoStore() *fakeStore {
	return &fakeStore{
		products: []contractx.ProductRecord{
			{ID: 1, SKU: "WS-1000", Name: "Gaming Keyboard", Category: "Electronics", CurrentStock: 120, MinimumStock: 10, WholesalePrice: 51.30},
			{ID: 2, SKU: "WS-1001", Name: "Wireless Mouse", Category: "Electronics", CurrentStock: 4, MinimumStock: 10, WholesalePrice: 16.88},
			{ID: 3, SKU: "WS-1005", Name: "Brake Pads Set", Category: "Automotive", CurrentStock: 0, MinimumStock: 5, WholesalePrice: 30.24},
		},
	}
}

func newDispatcher(t *testing.T, store contractx.EntityStore) *Dispatcher {
	t.Helper()
	d, err := New(store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func intentWith(typ contractx.IntentType, entities map[string]string) contractx.Intent {
	return contractx.Intent{Type: typ, Confidence: 0.9, Entities: entities}
}

func TestDispatchClarificationShortCircuits(t *testing.T) {
	t.Parallel()

	store := demoStore()
	d := newDispatcher(t, store)

	result := d.Dispatch(context.Background(), contractx.Intent{
		Type:                  contractx.IntentInventoryQuery,
		NeedsClarification:    true,
		ClarificationQuestion: "Which product do you mean?",
	})

	if !result.Success || result.ActionType != contractx.ActionClarification {
		t.Fatalf("got %+v", result)
	}
	if result.Message != "Which product do you mean?" {
		t.Fatalf("got message %q", result.Message)
	}
	if store.calls != 0 {
		t.Fatalf("store touched %d times during clarification", store.calls)
	}
}

func TestDispatchInventoryQueryForProduct(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, demoStore())
	result := d.Dispatch(context.Background(), intentWith(contractx.IntentInventoryQuery,
		map[string]string{contractx.SlotProduct: "gaming keyboard"}))

	if !result.Success || result.ActionType != contractx.ActionInventoryQuery {
		t.Fatalf("got %+v", result)
	}
	rows, ok := result.Data.([]contractx.ProductRecord)
	if !ok || len(rows) != 1 || rows[0].Name != "Gaming Keyboard" {
		t.Fatalf("got data %+v", result.Data)
	}
}

func TestDispatchInventoryQueryNotFoundIsSuccess(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, demoStore())
	result := d.Dispatch(context.Background(), intentWith(contractx.IntentInventoryQuery,
		map[string]string{contractx.SlotProduct: "flux capacitor"}))

	if !result.Success {
		t.Fatalf("not-found must stay a successful result: %+v", result)
	}
	rows, ok := result.Data.([]contractx.ProductRecord)
	if !ok || len(rows) != 0 {
		t.Fatalf("got data %+v", result.Data)
	}
	if !strings.Contains(result.Message, "No products found") {
		t.Fatalf("got message %q", result.Message)
	}
}

func TestDispatchInventoryOverview(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, demoStore())
	result := d.Dispatch(context.Background(), intentWith(contractx.IntentInventoryQuery, nil))

	if !result.Success || result.ActionType != contractx.ActionInventoryOverview {
		t.Fatalf("got %+v", result)
	}
	payload, ok := result.Data.(OverviewPayload)
	if !ok {
		t.Fatalf("got data %T", result.Data)
	}
	if payload.TotalProducts != 3 || payload.LowStockCount != 1 || payload.OutOfStock != 1 {
		t.Fatalf("got payload %+v", payload)
	}
}

func TestDispatchManagementAdd(t *testing.T) {
	t.Parallel()

	store := demoStore()
	d := newDispatcher(t, store)
	result := d.Dispatch(context.Background(), intentWith(contractx.IntentInventoryManagement, map[string]string{
		contractx.SlotAction:   "add",
		contractx.SlotProduct:  "gaming keyboard",
		contractx.SlotQuantity: "50",
	}))

	if !result.Success {
		t.Fatalf("got %+v", result)
	}
	receipt, ok := result.Data.(contractx.MutationReceipt)
	if !ok || receipt.OldStock != 120 || receipt.NewStock != 170 {
		t.Fatalf("got receipt %+v", result.Data)
	}
}

func TestDispatchManagementInsufficientStock(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, demoStore())
	result := d.Dispatch(context.Background(), intentWith(contractx.IntentInventoryManagement, map[string]string{
		contractx.SlotAction:   "remove",
		contractx.SlotProduct:  "wireless mouse",
		contractx.SlotQuantity: "50",
	}))

	if result.Success {
		t.Fatalf("expected failure, got %+v", result)
	}
	if !strings.Contains(result.Error, "insufficient stock") {
		t.Fatalf("constraint message lost: %q", result.Error)
	}
}

func TestDispatchManagementLostMapsToDamaged(t *testing.T) {
	t.Parallel()

	store := demoStore()
	d := newDispatcher(t, store)
	result := d.Dispatch(context.Background(), intentWith(contractx.IntentInventoryManagement, map[string]string{
		contractx.SlotAction:   "lost",
		contractx.SlotProduct:  "gaming keyboard",
		contractx.SlotQuantity: "5",
	}))

	if !result.Success {
		t.Fatalf("got %+v", result)
	}
	if store.lastMoveTy != "DAMAGED" {
		t.Fatalf("got movement type %q", store.lastMoveTy)
	}
}

func TestDispatchManagementValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		entities map[string]string
		wantIn   string
	}{
		{"missing action", map[string]string{contractx.SlotProduct: "x", contractx.SlotQuantity: "5"}, "no action"},
		{"missing product", map[string]string{contractx.SlotAction: "add", contractx.SlotQuantity: "5"}, "no product"},
		{"missing quantity", map[string]string{contractx.SlotAction: "add", contractx.SlotProduct: "x"}, "no quantity"},
		{"bad quantity", map[string]string{contractx.SlotAction: "add", contractx.SlotProduct: "x", contractx.SlotQuantity: "many"}, "invalid quantity"},
		{"unknown verb", map[string]string{contractx.SlotAction: "teleport", contractx.SlotProduct: "x", contractx.SlotQuantity: "5"}, "unknown action"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := demoStore()
			d := newDispatcher(t, store)
			result := d.Dispatch(context.Background(), intentWith(contractx.IntentInventoryManagement, tc.entities))
			if result.Success {
				t.Fatalf("expected failure, got %+v", result)
			}
			if !strings.Contains(result.Error, tc.wantIn) {
				t.Fatalf("error %q missing %q", result.Error, tc.wantIn)
			}
			if store.calls != 0 {
				t.Fatalf("store touched despite invalid slots")
			}
		})
	}
}

func TestDispatchLowStockAlert(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, demoStore())
	result := d.Dispatch(context.Background(), intentWith(contractx.IntentLowStockAlert, nil))

	if !result.Success || result.ActionType != contractx.ActionLowStockAlert {
		t.Fatalf("got %+v", result)
	}
	payload, ok := result.Data.(AlertPayload)
	if !ok {
		t.Fatalf("got data %T", result.Data)
	}
	if payload.LowStockCount != 1 || payload.OutOfStockCount != 1 {
		t.Fatalf("got payload %+v", payload)
	}
}

func TestDispatchHelpAndGeneral(t *testing.T) {
	t.Parallel()

	store := demoStore()
	d := newDispatcher(t, store)

	for _, typ := range []contractx.IntentType{contractx.IntentHelpCapabilities, contractx.IntentGeneral} {
		result := d.Dispatch(context.Background(), intentWith(typ, nil))
		if !result.Success || result.ActionType != contractx.ActionHelpCapabilities {
			t.Fatalf("%s: got %+v", typ, result)
		}
		if _, ok := result.Data.([]Capability); !ok {
			t.Fatalf("%s: got data %T", typ, result.Data)
		}
	}
	if store.calls != 0 {
		t.Fatal("help must not touch the store")
	}
}

func TestDispatchUnknownIntentType(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, demoStore())
	result := d.Dispatch(context.Background(), contractx.Intent{Type: "order_pizza"})

	if result.Success || result.ActionType != contractx.ActionUnknown {
		t.Fatalf("got %+v", result)
	}
}

func TestDispatchStoreErrorBecomesFailedResult(t *testing.T) {
	t.Parallel()

	store := demoStore()
	store.failWith = fmt.Errorf("connection reset by peer")
	d := newDispatcher(t, store)

	result := d.Dispatch(context.Background(), intentWith(contractx.IntentAnalytics, nil))
	if result.Success || result.Error == "" {
		t.Fatalf("got %+v", result)
	}
}

type panickyStore struct{ fakeStore }

func (p *panickyStore) ListProducts(context.Context, int) ([]contractx.ProductRecord, error) {
	panic("unexpected nil")
}
func (p *panickyStore) CountProducts(context.Context) (int, int, int, error) {
	panic("unexpected nil")
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, &panickyStore{})
	result := d.Dispatch(context.Background(), intentWith(contractx.IntentInventoryQuery, nil))

	if result.Success || result.ActionType != contractx.ActionError {
		t.Fatalf("got %+v", result)
	}
	if !strings.Contains(result.Error, "unexpected") {
		t.Fatalf("got error %q", result.Error)
	}
}

func TestNewRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

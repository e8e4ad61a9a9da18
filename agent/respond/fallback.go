package respond

import (
	"fmt"
	"strings"

	contractx "wholesale-agent/agent/contract"
	dispatchx "wholesale-agent/agent/dispatch"
)

// renderFailure maps the error text onto a user-readable explanation. The
// store's constraint messages carry the operative detail, so they are shown
// verbatim under a classified prefix.
func renderFailure(result contractx.ActionResult) string {
	errText := result.Error
	lowered := strings.ToLower(errText)

	switch {
	case strings.Contains(lowered, "insufficient stock"):
		return "Cannot complete the operation: " + errText
	case strings.Contains(lowered, "not found"):
		return "I couldn't find that product. " + errText
	case strings.Contains(lowered, "invalid"):
		return "There was a problem with your request: " + errText
	default:
		return "Sorry, the operation failed: " + errText
	}
}

// RenderFallback renders a successful result without the model. Output is
// plain console text in the same register the model is prompted to use.
func RenderFallback(result contractx.ActionResult) string {
	switch data := result.Data.(type) {
	case []contractx.ProductRecord:
		return renderProducts(result, data)
	case contractx.ProductRecord:
		return renderProducts(result, []contractx.ProductRecord{data})
	case contractx.MutationReceipt:
		return renderReceipt(data)
	case dispatchx.OverviewPayload:
		return renderOverview(data)
	case dispatchx.AlertPayload:
		return renderAlerts(data)
	case dispatchx.AnalyticsPayload:
		return renderAnalytics(data)
	case []dispatchx.ProductHistory:
		return renderHistories(data)
	case []contractx.SupplierRecord:
		return renderSuppliers(data)
	case []dispatchx.Capability:
		return renderCapabilities(data)
	default:
		if result.Message != "" {
			return result.Message
		}
		return "Done."
	}
}

func renderProducts(result contractx.ActionResult, products []contractx.ProductRecord) string {
	if len(products) == 0 {
		if result.Message != "" {
			return result.Message
		}
		return "No matching products found."
	}

	var b strings.Builder
	if result.Message != "" {
		b.WriteString(result.Message + "\n\n")
	}
	for _, p := range products {
		fmt.Fprintf(&b, "- %s (SKU %s): %d in stock", p.Name, p.SKU, p.CurrentStock)
		if p.StockStatus != "" && p.StockStatus != "OK" {
			fmt.Fprintf(&b, " [%s]", p.StockStatus)
		}
		if p.WholesalePrice > 0 {
			fmt.Fprintf(&b, ", wholesale $%.2f", p.WholesalePrice)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderReceipt(receipt contractx.MutationReceipt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Updated %s (SKU %s): stock %d -> %d", receipt.Name, receipt.SKU, receipt.OldStock, receipt.NewStock)
	if receipt.Warning != "" {
		b.WriteString("\nWarning: " + receipt.Warning)
	}
	return b.String()
}

func renderOverview(p dispatchx.OverviewPayload) string {
	var b strings.Builder
	b.WriteString("Inventory overview:\n")
	fmt.Fprintf(&b, "- Total products: %d\n", p.TotalProducts)
	fmt.Fprintf(&b, "- Low stock: %d\n", p.LowStockCount)
	fmt.Fprintf(&b, "- Out of stock: %d", p.OutOfStock)
	return b.String()
}

func renderAlerts(p dispatchx.AlertPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stock alerts: %d low stock, %d out of stock.\n", p.LowStockCount, p.OutOfStockCount)
	for _, prod := range p.LowStock {
		fmt.Fprintf(&b, "- %s (SKU %s): %d left, minimum %d\n", prod.Name, prod.SKU, prod.CurrentStock, prod.MinimumStock)
	}
	for _, prod := range p.OutOfStock {
		fmt.Fprintf(&b, "- %s (SKU %s): out of stock\n", prod.Name, prod.SKU)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderAnalytics(p dispatchx.AnalyticsPayload) string {
	var b strings.Builder
	b.WriteString("Business analytics:\n")
	fmt.Fprintf(&b, "- Total products: %d\n", p.TotalProducts)
	fmt.Fprintf(&b, "- Total inventory value: $%.2f\n", p.TotalInventoryValue)
	if len(p.TopCategories) > 0 {
		b.WriteString("- Top categories:\n")
		for _, c := range p.TopCategories {
			fmt.Fprintf(&b, "  - %s: %d products, $%.2f\n", c.Name, c.ProductCount, c.InventoryValue)
		}
	}
	fmt.Fprintf(&b, "- Movements over last %d days: %d (%d units in, %d units out)",
		p.MovementStats.WindowDays, p.MovementStats.TotalMoves, p.MovementStats.UnitsInbound, p.MovementStats.UnitsOutbound)
	return b.String()
}

func renderHistories(histories []dispatchx.ProductHistory) string {
	if len(histories) == 0 {
		return "No matching products found."
	}
	var b strings.Builder
	for _, h := range histories {
		fmt.Fprintf(&b, "%s (SKU %s), current stock %d:\n", h.Name, h.SKU, h.CurrentStock)
		if len(h.RecentMovements) == 0 {
			b.WriteString("  No recorded movements.\n")
			continue
		}
		fmt.Fprintf(&b, "  Last updated %d days ago.\n", h.DaysSinceUpdate)
		for _, m := range h.RecentMovements {
			fmt.Fprintf(&b, "  - %s: %+d units on %s\n", m.Type, m.Quantity, m.CreatedAt.Format("2006-01-02"))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSuppliers(suppliers []contractx.SupplierRecord) string {
	if len(suppliers) == 0 {
		return "No suppliers found."
	}
	var b strings.Builder
	b.WriteString("Suppliers:\n")
	for _, s := range suppliers {
		fmt.Fprintf(&b, "- %s (%d products", s.Name, s.ProductCount)
		if !s.Active {
			b.WriteString(", inactive")
		}
		b.WriteString(")")
		if s.ContactEmail != "" {
			b.WriteString(", " + s.ContactEmail)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCapabilities(caps []dispatchx.Capability) string {
	var b strings.Builder
	b.WriteString("Here's what I can help you with:\n")
	for _, c := range caps {
		fmt.Fprintf(&b, "\n%s: %s\n", c.Topic, c.Description)
		for _, ex := range c.Examples {
			b.WriteString("  - " + ex + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

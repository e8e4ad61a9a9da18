package store

import (
	"context"
	"fmt"
	"time"

	contractx "wholesale-agent/agent/contract"
)

func (s *Store) MovementsForProduct(ctx context.Context, identifier string, limit int) ([]contractx.MovementRecord, error) {
	product, err := s.findProduct(ctx, identifier)
	if err != nil {
		return nil, err
	}

	var movements []StockMovement
	err = s.db.NewSelect().
		Model(&movements).
		Relation("Product").
		Where("m.product_id = ?", product.ID).
		OrderExpr("m.created_at DESC").
		Limit(clampLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("movements for product: %w", err)
	}
	return toMovementRecords(movements), nil
}

func (s *Store) RecentMovements(ctx context.Context, limit int) ([]contractx.MovementRecord, error) {
	var movements []StockMovement
	err := s.db.NewSelect().
		Model(&movements).
		Relation("Product").
		OrderExpr("m.created_at DESC").
		Limit(clampLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent movements: %w", err)
	}
	return toMovementRecords(movements), nil
}

func (s *Store) MovementStats(ctx context.Context, window time.Duration) (contractx.MovementStats, error) {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	since := time.Now().Add(-window)

	stats := contractx.MovementStats{WindowDays: int(window.Hours() / 24)}
	err := s.db.NewSelect().
		Model((*StockMovement)(nil)).
		ColumnExpr("count(*)").
		ColumnExpr("coalesce(sum(quantity) FILTER (WHERE quantity > 0), 0)").
		ColumnExpr("coalesce(-sum(quantity) FILTER (WHERE quantity < 0), 0)").
		Where("created_at >= ?", since).
		Scan(ctx, &stats.TotalMoves, &stats.UnitsInbound, &stats.UnitsOutbound)
	if err != nil {
		return contractx.MovementStats{}, fmt.Errorf("movement stats: %w", err)
	}
	return stats, nil
}

func (s *Store) LowStock(ctx context.Context, limit int) ([]contractx.ProductRecord, error) {
	var products []Product
	err := s.db.NewSelect().
		Model(&products).
		Relation("Category").
		Relation("Supplier").
		Where("p.is_active").
		Where("p.current_stock > 0").
		Where("p.current_stock <= p.minimum_stock").
		OrderExpr("p.current_stock ASC").
		Limit(clampLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("low stock products: %w", err)
	}
	return toProductRecords(products), nil
}

func (s *Store) OutOfStock(ctx context.Context, limit int) ([]contractx.ProductRecord, error) {
	var products []Product
	err := s.db.NewSelect().
		Model(&products).
		Relation("Category").
		Relation("Supplier").
		Where("p.is_active").
		Where("p.current_stock <= 0").
		OrderExpr("p.name ASC").
		Limit(clampLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("out of stock products: %w", err)
	}
	return toProductRecords(products), nil
}

func (s *Store) InventoryValue(ctx context.Context) (float64, error) {
	var value float64
	err := s.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("coalesce(sum(current_stock * wholesale_price), 0)").
		Where("is_active").
		Scan(ctx, &value)
	if err != nil {
		return 0, fmt.Errorf("inventory value: %w", err)
	}
	return value, nil
}

func (s *Store) CategoryRollups(ctx context.Context, limit int) ([]contractx.CategoryRollup, error) {
	var rollups []contractx.CategoryRollup
	err := s.db.NewSelect().
		Model((*Product)(nil)).
		Join("JOIN categories AS c ON c.id = p.category_id").
		ColumnExpr("c.name AS name").
		ColumnExpr("count(*) AS product_count").
		ColumnExpr("coalesce(sum(p.current_stock * p.wholesale_price), 0) AS inventory_value").
		Where("p.is_active").
		GroupExpr("c.name").
		OrderExpr("inventory_value DESC").
		Limit(clampLimit(limit)).
		Scan(ctx, &rollups)
	if err != nil {
		return nil, fmt.Errorf("category rollups: %w", err)
	}
	return rollups, nil
}

func (s *Store) Suppliers(ctx context.Context, name string, limit int) ([]contractx.SupplierRecord, error) {
	var suppliers []contractx.SupplierRecord
	q := s.db.NewSelect().
		Model((*Supplier)(nil)).
		ColumnExpr("s.id AS id").
		ColumnExpr("s.name AS name").
		ColumnExpr("s.contact_email AS contact_email").
		ColumnExpr("s.contact_phone AS contact_phone").
		ColumnExpr("s.payment_terms AS payment_terms").
		ColumnExpr("s.is_active AS active").
		ColumnExpr("count(p.id) AS product_count").
		Join("LEFT JOIN products AS p ON p.supplier_id = s.id AND p.is_active").
		GroupExpr("s.id").
		OrderExpr("s.name ASC").
		Limit(clampLimit(limit))
	if name != "" {
		q = q.Where("s.name ILIKE ?", "%"+name+"%")
	}

	if err := q.Scan(ctx, &suppliers); err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return suppliers, nil
}

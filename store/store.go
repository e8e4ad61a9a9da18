package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "wholesale-agent/agent/contract"
)

// Config holds the database connection settings.
type Config struct {
	DSN          string        `envconfig:"DSN" required:"true"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" default:"4"`
	PingTimeout  time.Duration `envconfig:"PING_TIMEOUT" default:"5s"`
}

// Store implements the entity gateway over PostgreSQL via bun.
type Store struct {
	db *bun.DB
}

var _ contractx.EntityStore = (*Store)(nil)

// New opens the connection pool and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &Store{db: db}, nil
}

func MustNew(ctx context.Context, cfg Config) *Store {
	s, err := New(ctx, cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

// FindByIdentifier resolves free text to one product. Resolution order: exact
// SKU, then case-insensitive exact name, then substring name match.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (contractx.ProductRecord, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return contractx.ProductRecord{}, fmt.Errorf("%w: empty product identifier", contractx.ErrValidation)
	}

	product, err := s.findProduct(ctx, identifier)
	if err != nil {
		return contractx.ProductRecord{}, err
	}
	return toProductRecord(product), nil
}

func (s *Store) findProduct(ctx context.Context, identifier string) (*Product, error) {
	for _, clause := range []struct {
		cond string
		arg  string
	}{
		{"p.sku = ?", strings.ToUpper(identifier)},
		{"lower(p.name) = lower(?)", identifier},
		{"p.name ILIKE ?", "%" + identifier + "%"},
	} {
		product := new(Product)
		err := s.db.NewSelect().
			Model(product).
			Relation("Category").
			Relation("Supplier").
			Where("p.is_active").
			Where(clause.cond, clause.arg).
			OrderExpr("p.name ASC").
			Limit(1).
			Scan(ctx)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find product: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: product %q not found", contractx.ErrNotFound, identifier)
}

func (s *Store) Search(ctx context.Context, term, category string, limit int) ([]contractx.ProductRecord, error) {
	var products []Product
	q := s.db.NewSelect().
		Model(&products).
		Relation("Category").
		Relation("Supplier").
		Where("p.is_active").
		OrderExpr("p.name ASC").
		Limit(clampLimit(limit))

	if term = strings.TrimSpace(term); term != "" {
		pattern := "%" + term + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("p.name ILIKE ?", pattern).
				WhereOr("p.sku ILIKE ?", pattern).
				WhereOr("p.description ILIKE ?", pattern)
		})
	}
	if category = strings.TrimSpace(category); category != "" {
		q = q.Where("c.name ILIKE ?", "%"+category+"%")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return toProductRecords(products), nil
}

func (s *Store) ListProducts(ctx context.Context, limit int) ([]contractx.ProductRecord, error) {
	var products []Product
	err := s.db.NewSelect().
		Model(&products).
		Relation("Category").
		Relation("Supplier").
		Where("p.is_active").
		OrderExpr("p.name ASC").
		Limit(clampLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return toProductRecords(products), nil
}

func (s *Store) ProductsByCategory(ctx context.Context, category string, limit int) ([]contractx.ProductRecord, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return s.ListProducts(ctx, limit)
	}

	var products []Product
	err := s.db.NewSelect().
		Model(&products).
		Relation("Category").
		Relation("Supplier").
		Where("p.is_active").
		Where("c.name ILIKE ?", "%"+category+"%").
		OrderExpr("p.name ASC").
		Limit(clampLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("products by category: %w", err)
	}
	if len(products) == 0 {
		exists, err := s.db.NewSelect().
			Model((*Category)(nil)).
			Where("name ILIKE ?", "%"+category+"%").
			Exists(ctx)
		if err != nil {
			return nil, fmt.Errorf("check category: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: category %q not found", contractx.ErrNotFound, category)
		}
	}
	return toProductRecords(products), nil
}

func (s *Store) CountProducts(ctx context.Context) (total, lowStock, outOfStock int, err error) {
	err = s.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("count(*)").
		ColumnExpr("count(*) FILTER (WHERE current_stock > 0 AND current_stock <= minimum_stock)").
		ColumnExpr("count(*) FILTER (WHERE current_stock <= 0)").
		Where("is_active").
		Scan(ctx, &total, &lowStock, &outOfStock)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("count products: %w", err)
	}
	return total, lowStock, outOfStock, nil
}

func (s *Store) AddStock(ctx context.Context, identifier string, quantity int, notes string) (contractx.MutationReceipt, error) {
	if quantity <= 0 {
		return contractx.MutationReceipt{}, fmt.Errorf("%w: invalid quantity %d, must be positive", contractx.ErrValidation, quantity)
	}
	return s.recordMovement(ctx, identifier, quantity, MovementInbound, notes)
}

func (s *Store) RemoveStock(ctx context.Context, identifier string, quantity int, movementType, notes string) (contractx.MutationReceipt, error) {
	if quantity <= 0 {
		return contractx.MutationReceipt{}, fmt.Errorf("%w: invalid quantity %d, must be positive", contractx.ErrValidation, quantity)
	}
	if movementType == "" {
		movementType = MovementOutbound
	}
	return s.recordMovement(ctx, identifier, -quantity, movementType, notes)
}

func (s *Store) AdjustStock(ctx context.Context, identifier string, newQuantity int, notes string) (contractx.MutationReceipt, error) {
	if newQuantity < 0 {
		return contractx.MutationReceipt{}, fmt.Errorf("%w: invalid target quantity %d", contractx.ErrValidation, newQuantity)
	}

	product, err := s.findProduct(ctx, identifier)
	if err != nil {
		return contractx.MutationReceipt{}, err
	}
	delta := newQuantity - product.CurrentStock
	if delta == 0 {
		return contractx.MutationReceipt{
			SKU:      product.SKU,
			Name:     product.Name,
			OldStock: product.CurrentStock,
			NewStock: product.CurrentStock,
			Warning:  "stock already at the requested quantity, no adjustment recorded",
		}, nil
	}
	return s.recordMovement(ctx, identifier, delta, MovementAdjustment, notes)
}

// recordMovement commits one signed-delta ledger entry and the matching stock
// update as a single transaction, with the product row locked for the
// duration. Deltas that would drive stock negative are rejected.
func (s *Store) recordMovement(ctx context.Context, identifier string, delta int, movementType, notes string) (contractx.MutationReceipt, error) {
	resolved, err := s.findProduct(ctx, identifier)
	if err != nil {
		return contractx.MutationReceipt{}, err
	}

	var receipt contractx.MutationReceipt
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		product := new(Product)
		if err := tx.NewSelect().
			Model(product).
			Where("p.id = ?", resolved.ID).
			For("UPDATE").
			Scan(ctx); err != nil {
			return fmt.Errorf("lock product row: %w", err)
		}

		newStock := product.CurrentStock + delta
		if newStock < 0 {
			return fmt.Errorf("%w: insufficient stock for %s: have %d, requested %d",
				contractx.ErrConstraint, product.Name, product.CurrentStock, -delta)
		}

		movement := &StockMovement{
			ProductID: product.ID,
			Type:      movementType,
			Quantity:  delta,
			Reference: referenceNumber(movementType),
			Notes:     notes,
		}
		if _, err := tx.NewInsert().Model(movement).Exec(ctx); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}

		if _, err := tx.NewUpdate().
			Model((*Product)(nil)).
			Set("current_stock = ?", newStock).
			Set("updated_at = now()").
			Where("id = ?", product.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}

		receipt = contractx.MutationReceipt{
			SKU:        product.SKU,
			Name:       product.Name,
			OldStock:   product.CurrentStock,
			NewStock:   newStock,
			MovementID: movement.ID,
		}
		if newStock == 0 {
			receipt.Warning = "product is now out of stock"
		} else if newStock <= product.MinimumStock {
			receipt.Warning = fmt.Sprintf("stock is below the minimum of %d", product.MinimumStock)
		}
		return nil
	})
	if err != nil {
		return contractx.MutationReceipt{}, err
	}
	return receipt, nil
}

// referenceNumber builds a unique, human-scannable ledger reference.
func referenceNumber(movementType string) string {
	prefix := "MOV"
	if len(movementType) >= 3 {
		prefix = movementType[:3]
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.NewString()[:8]))
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 200
	}
	return limit
}

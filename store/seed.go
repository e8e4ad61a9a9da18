package store

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

// Seed populates an empty database with demo data: fixed categories and
// suppliers, a set of recognizable products, faker-generated filler products,
// and a few weeks of movement history. Skipped when products already exist.
func (s *Store) Seed(ctx context.Context) error {
	count, err := s.db.NewSelect().Model((*Product)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("check existing products: %w", err)
	}
	if count > 0 {
		log.Info().Int("products", count).Msg("database already seeded")
		return nil
	}

	faker := gofakeit.New(0)

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		categories := seedCategories()
		if _, err := tx.NewInsert().Model(&categories).Exec(ctx); err != nil {
			return fmt.Errorf("insert categories: %w", err)
		}
		suppliers := seedSuppliers(faker)
		if _, err := tx.NewInsert().Model(&suppliers).Exec(ctx); err != nil {
			return fmt.Errorf("insert suppliers: %w", err)
		}

		products := seedProducts(faker, categories, suppliers)
		if _, err := tx.NewInsert().Model(&products).Exec(ctx); err != nil {
			return fmt.Errorf("insert products: %w", err)
		}

		movements := seedMovements(faker, products)
		if _, err := tx.NewInsert().Model(&movements).Exec(ctx); err != nil {
			return fmt.Errorf("insert movements: %w", err)
		}

		log.Info().
			Int("categories", len(categories)).
			Int("suppliers", len(suppliers)).
			Int("products", len(products)).
			Int("movements", len(movements)).
			Msg("seeded demo data")
		return nil
	})
}

func seedCategories() []Category {
	return []Category{
		{Name: "Electronics", Description: "Consumer electronics and accessories"},
		{Name: "Office Supplies", Description: "Office and stationery products"},
		{Name: "Automotive", Description: "Automotive parts and accessories"},
		{Name: "Home & Garden", Description: "Household and garden products"},
		{Name: "Tools", Description: "Hand tools and power tools"},
	}
}

func seedSuppliers(faker *gofakeit.Faker) []Supplier {
	names := []string{
		"TechSource Distribution", "Pacific Wholesale Group", "Metro Supply Co",
		"Prime Parts Ltd", "Northline Trading",
	}
	suppliers := make([]Supplier, 0, len(names))
	for _, name := range names {
		suppliers = append(suppliers, Supplier{
			Name:         name,
			ContactEmail: faker.Email(),
			ContactPhone: faker.Phone(),
			PaymentTerms: faker.RandomString([]string{"NET 15", "NET 30", "NET 60", "COD"}),
			Active:       true,
		})
	}
	return suppliers
}

// Recognizable demo products, one per common query in the docs.
var demoProducts = []struct {
	name     string
	category string
	cost     float64
}{
	{"Gaming Keyboard", "Electronics", 38.00},
	{"Wireless Mouse", "Electronics", 12.50},
	{"USB-C Phone Charger", "Electronics", 6.80},
	{"Laptop Stand", "Office Supplies", 14.20},
	{"Ergonomic Desk Chair", "Office Supplies", 95.00},
	{"Brake Pads Set", "Automotive", 22.40},
	{"LED Work Light", "Tools", 17.90},
	{"Cordless Drill", "Tools", 54.00},
	{"Garden Hose 25m", "Home & Garden", 19.60},
}

func seedProducts(faker *gofakeit.Faker, categories []Category, suppliers []Supplier) []Product {
	categoryByName := make(map[string]int64, len(categories))
	for _, c := range categories {
		categoryByName[c.Name] = c.ID
	}

	products := make([]Product, 0, len(demoProducts)+40)
	for i, d := range demoProducts {
		products = append(products, buildProduct(faker, d.name, categoryByName[d.category], suppliers[i%len(suppliers)].ID, d.cost, i))
	}
	for i := 0; i < 40; i++ {
		category := categories[faker.Number(0, len(categories)-1)]
		supplier := suppliers[faker.Number(0, len(suppliers)-1)]
		products = append(products, buildProduct(faker, faker.ProductName(), category.ID, supplier.ID, faker.Price(5, 120), len(demoProducts)+i))
	}
	return products
}

func buildProduct(faker *gofakeit.Faker, name string, categoryID, supplierID int64, cost float64, ordinal int) Product {
	stock := faker.Number(0, 300)
	// A few products land at or below minimum so alert queries have material.
	if ordinal%7 == 0 {
		stock = faker.Number(0, 8)
	}
	return Product{
		SKU:            fmt.Sprintf("WS-%04d", 1000+ordinal),
		Name:           name,
		Description:    faker.ProductDescription(),
		CategoryID:     categoryID,
		SupplierID:     supplierID,
		CostPrice:      round2(cost),
		WholesalePrice: round2(cost * 1.35),
		RetailPrice:    round2(cost * 1.9),
		CurrentStock:   stock,
		MinimumStock:   faker.Number(5, 20),
		Active:         true,
	}
}

func seedMovements(faker *gofakeit.Faker, products []Product) []StockMovement {
	types := []string{
		MovementInbound, MovementOutbound, MovementAdjustment,
		MovementReturn, MovementDamaged, MovementTransfer,
	}
	movements := make([]StockMovement, 0, len(products)*3)
	for _, p := range products {
		for i := 0; i < faker.Number(1, 4); i++ {
			movementType := types[faker.Number(0, len(types)-1)]
			quantity := faker.Number(1, 40)
			if movementType != MovementInbound && movementType != MovementReturn {
				quantity = -quantity
			}
			movements = append(movements, StockMovement{
				ProductID: p.ID,
				Type:      movementType,
				Quantity:  quantity,
				Reference: referenceNumber(movementType),
				Notes:     "Seeded demo movement",
				CreatedAt: time.Now().Add(-time.Duration(faker.Number(1, 45*24)) * time.Hour),
			})
		}
	}
	return movements
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
